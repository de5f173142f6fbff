package snapshot

import (
	"context"
	"fmt"

	"pageshot/internal/browser"
	"pageshot/internal/core/thumbnail"
	"pageshot/internal/logger"
)

// CaptureOptions are the knobs the orchestrator needs from the request.
type CaptureOptions struct {
	Format                string
	Quality               int
	FullPage              bool
	DetectVideoThumbnails bool
}

// Orchestrator sequences thumbnail detection, byte fetch, region crop, and
// the plain-capture fallback into one decision per page.
type Orchestrator struct {
	log      *logger.Logger
	detector *thumbnail.Detector
}

func NewOrchestrator(detector *thumbnail.Detector) *Orchestrator {
	return &Orchestrator{log: logger.New("SnapshotDecision"), detector: detector}
}

// ProduceImageOrURL applies the capture policy. Every intermediate failure
// (detection, candidate fetch, crop) degrades to the next step; the only
// error returned is a failing plain capture, which means the page link
// itself is dead and no image can be produced at all.
func (o *Orchestrator) ProduceImageOrURL(ctx context.Context, page browser.Page, opts CaptureOptions) (*Decision, error) {
	if !opts.DetectVideoThumbnails {
		buf, err := o.plainCapture(page, opts)
		if err != nil {
			return nil, err
		}
		return &Decision{Kind: DecisionImage, Bytes: buf}, nil
	}

	res := o.detector.Detect(ctx, page)
	log := res.Log

	if res.Thumbnail != nil {
		cand := res.Thumbnail
		if cand.DirectURL() {
			log = append(log, fmt.Sprintf("returning thumbnail url directly (%s)", cand.Source))
			return &Decision{Kind: DecisionURL, URL: cand.URL, IsVideoThumbnail: true, Log: log}, nil
		}

		buf, err := page.Fetch(ctx, cand.URL, thumbnail.FetchTimeout)
		if err == nil && len(buf) > 0 {
			log = append(log, "fetched thumbnail bytes")
			return &Decision{Kind: DecisionImage, Bytes: buf, IsVideoThumbnail: true, Log: log}, nil
		}
		log = append(log, fmt.Sprintf("thumbnail fetch failed: %v", err))

		if buf, err := thumbnail.CropCapture(page, opts.Format, opts.Quality); err == nil {
			log = append(log, "cropped video region after failed fetch")
			return &Decision{Kind: DecisionImage, Bytes: buf, IsVideoThumbnail: true, Log: log}, nil
		} else {
			log = append(log, fmt.Sprintf("region crop failed: %v", err))
		}
	} else if res.HasVideo {
		if buf, err := thumbnail.CropCapture(page, opts.Format, opts.Quality); err == nil {
			log = append(log, "cropped video region (no url candidate)")
			return &Decision{Kind: DecisionImage, Bytes: buf, IsVideoThumbnail: true, Log: log}, nil
		} else {
			log = append(log, fmt.Sprintf("region crop failed: %v", err))
		}
	}

	buf, err := o.plainCapture(page, opts)
	if err != nil {
		return nil, err
	}
	log = append(log, "fell back to plain capture")
	return &Decision{Kind: DecisionImage, Bytes: buf, Log: log}, nil
}

func (o *Orchestrator) plainCapture(page browser.Page, opts CaptureOptions) ([]byte, error) {
	buf, err := page.Capture(browser.CaptureOptions{
		Format:   opts.Format,
		Quality:  opts.Quality,
		FullPage: opts.FullPage,
	})
	if err != nil {
		o.log.LogErrorf("plain capture failed: %v", err)
		return nil, fmt.Errorf("capture failed: %w", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("capture produced empty image")
	}
	return buf, nil
}

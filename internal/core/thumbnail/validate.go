package thumbnail

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
	"time"

	// Register decoders for the dimension probe.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	minCandidateWidth  = 200
	minCandidateHeight = 150
	dimensionTimeout   = 5 * time.Second
)

// URL substrings that mark chrome assets, not content thumbnails.
var urlDenylist = []string{
	"icon", "favicon", "logo", "sprite", "avatar", "profile",
	"button", "arrow", "close", "play-button", "controls",
}

// validate resolves each candidate's URL against the page location, fills in
// missing dimensions with an off-DOM probe, and discards candidates failing
// the size, name, or aspect rules. Probe failures leave dimensions at zero,
// which fails the minimum-size check.
func (d *Detector) validate(ctx context.Context, base *url.URL, cands []Candidate, res *DetectionResult) []Candidate {
	var out []Candidate
	for _, c := range cands {
		resolved, err := resolveURL(base, c.URL)
		if err != nil {
			res.logf("rejected %s: %v", c.URL, err)
			continue
		}
		c.URL = resolved

		if c.Width == 0 || c.Height == 0 {
			w, h, err := d.probeDimensions(ctx, c.URL)
			if err != nil {
				d.log.LogDebugf("dimension probe %s failed: %v", c.URL, err)
			}
			c.Width, c.Height = w, h
		}

		if reason := rejectReason(c); reason != "" {
			res.logf("rejected %s: %s", c.URL, reason)
			continue
		}
		out = append(out, c)
	}
	return out
}

func resolveURL(base *url.URL, raw string) (string, error) {
	var u *url.URL
	var err error
	if base != nil {
		u, err = base.Parse(raw)
	} else {
		u, err = url.Parse(raw)
	}
	if err != nil {
		return "", fmt.Errorf("unparseable url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func rejectReason(c Candidate) string {
	if c.Width < minCandidateWidth || c.Height < minCandidateHeight {
		return fmt.Sprintf("below minimum size (%dx%d)", c.Width, c.Height)
	}
	lower := strings.ToLower(c.URL)
	for _, deny := range urlDenylist {
		if strings.Contains(lower, deny) {
			return fmt.Sprintf("url matches denylist %q", deny)
		}
	}
	// Deliberately loose: unknown ratios and anything near a video player
	// shape pass through.
	if ar := c.AspectRatio(); ar > 0 && ar < 0.5 && !nearPreferredRatio(ar, 0.3) {
		return fmt.Sprintf("implausible aspect ratio %.2f", ar)
	}
	return ""
}

// probeDimensions fetches just enough of the image to decode its header.
// The request is bounded so one unresponsive host cannot stall the pipeline.
func (d *Detector) probeDimensions(ctx context.Context, imageURL string) (int, int, error) {
	probeCtx, cancel := context.WithTimeout(ctx, dimensionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	cfg, _, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

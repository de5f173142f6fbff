package thumbnail

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pageshot/internal/browser"
	"pageshot/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

// Detector runs the extraction fan-out, validation, scoring, and selection
// against one page. A Detector is stateless between calls and safe for
// concurrent use across independent pages.
type Detector struct {
	log    *logger.Logger
	client *http.Client
}

func NewDetector() *Detector {
	return &Detector{
		log:    logger.New("ThumbnailDetector"),
		client: &http.Client{Timeout: dimensionTimeout},
	}
}

// NewDetectorWithClient allows tests and callers to control the HTTP client
// used for oEmbed fetches and dimension probes.
func NewDetectorWithClient(client *http.Client) *Detector {
	return &Detector{log: logger.New("ThumbnailDetector"), client: client}
}

// Detect runs all six extraction strategies, validates and scores the
// survivors, and selects at most one winner. Strategy failures are contained
// per strategy; Detect itself never fails, it just reports fewer candidates.
func (d *Detector) Detect(ctx context.Context, page browser.Page) *DetectionResult {
	res := &DetectionResult{}

	html, err := page.Content()
	if err != nil {
		res.logf("page content unavailable: %v", err)
		return res
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		res.logf("page parse failed: %v", err)
		return res
	}
	base, err := url.Parse(page.URL())
	if err != nil {
		base = nil
	}

	strategies := []struct {
		name string
		run  func() []Candidate
	}{
		{"metadata", func() []Candidate { return extractMetadata(doc) }},
		{"video element", func() []Candidate { return extractVideoElements(doc) }},
		{"dom traversal", func() []Candidate { return extractDOMTraversal(doc) }},
		{"css background", func() []Candidate { return extractCSSBackgrounds(page) }},
		{"iframe", func() []Candidate { return extractIframes(doc) }},
		{"oembed", func() []Candidate { return d.extractOEmbed(ctx, doc, base) }},
	}

	var raw []Candidate
	for _, s := range strategies {
		cands := d.runStrategy(s.name, s.run)
		res.logf("%s: %d candidate(s)", s.name, len(cands))
		raw = append(raw, cands...)
	}

	hasIndicators := hasVideoIndicators(doc)

	validated := d.validate(ctx, base, raw, res)
	for i := range validated {
		validated[i].Confidence = score(validated[i])
	}
	res.Candidates = validated

	if best := selectBest(validated); best != nil {
		res.Thumbnail = best
		res.logf("selected %s via %s (confidence %.2f)", best.URL, best.Method, best.Confidence)
	} else {
		res.logf("no candidate survived selection")
	}

	res.HasVideo = hasIndicators || res.Thumbnail != nil
	return res
}

// runStrategy contains one strategy's failure so the other five still run.
func (d *Detector) runStrategy(name string, run func() []Candidate) (cands []Candidate) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.LogWarnf("strategy %s panicked: %v", name, rec)
			cands = nil
		}
	}()
	return run()
}

// hasVideoIndicators reports whether the page shows direct video presence:
// a native video element or a known embed-host iframe.
func hasVideoIndicators(doc *goquery.Document) bool {
	if doc.Find("video").Length() > 0 {
		return true
	}
	found := false
	doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.ToLower(s.AttrOr("src", ""))
		for _, kw := range embedHostKeywords {
			if src != "" && strings.Contains(src, kw) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// DirectURLSources are provenance tags that point at an authoritative
// thumbnail endpoint; the orchestrator may return these URLs without
// fetching bytes.
func (c Candidate) DirectURL() bool {
	if c.Source == "oEmbed" || c.Source == "VideoObject" {
		return true
	}
	if c.Confidence >= 0.8 {
		return true
	}
	return isKnownThumbnailCDN(c.URL)
}

var thumbnailCDNPatterns = []string{
	"img.youtube.com/vi/", "i.ytimg.com/vi/",
	"i.vimeocdn.com/video/", "vumbnail.com/",
	"dailymotion.com/thumbnail/", "s1.dmcdn.net/", "s2.dmcdn.net/",
}

func isKnownThumbnailCDN(u string) bool {
	lower := strings.ToLower(u)
	for _, p := range thumbnailCDNPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// FetchTimeout bounds the byte fetch of a selected candidate.
const FetchTimeout = 10 * time.Second

package thumbnail

import "fmt"

// Candidate is one proposed thumbnail with provenance. Candidates are
// created by an extractor, mutated only during the validate/score pass
// (URL resolution, dimension fill-in, confidence bonus), and treated as
// immutable once scored.
type Candidate struct {
	URL        string  `json:"url"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Method     string  `json:"method"`
	ElementRef string  `json:"element_ref,omitempty"`
}

func (c Candidate) AspectRatio() float64 {
	if c.Width <= 0 || c.Height <= 0 {
		return 0
	}
	return float64(c.Width) / float64(c.Height)
}

// DetectionResult is produced fresh per page and never persisted.
type DetectionResult struct {
	HasVideo   bool        `json:"has_video"`
	Thumbnail  *Candidate  `json:"thumbnail,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Log        []string    `json:"log,omitempty"`
}

func (r *DetectionResult) logf(format string, v ...interface{}) {
	r.Log = append(r.Log, fmt.Sprintf(format, v...))
}

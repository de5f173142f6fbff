// Package browser defines the page capability the detection core runs
// against: navigate, query the DOM, read computed style and geometry,
// inject styles, fetch from page context, and capture pixels. The
// production implementation wraps Playwright; tests use the in-memory
// fake from the browsertest subpackage.
package browser

import (
	"context"
	"time"
)

// Rect is an element bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type CaptureOptions struct {
	Format   string // "png" or "jpeg"
	Quality  int    // jpeg only, 1-100
	FullPage bool
	Clip     *Rect
}

// Element is a handle to one DOM node.
type Element interface {
	// Attribute returns the attribute value, or "" when absent.
	Attribute(name string) (string, error)
	TextContent() (string, error)
	// ComputedStyle returns one computed CSS property value.
	ComputedStyle(prop string) (string, error)
	// BoundingBox returns nil when the element is not rendered.
	BoundingBox() (*Rect, error)
	ScrollIntoView() error
	Click() error
	Remove() error
}

// Page is the minimal browser-control contract consumed by the banner and
// thumbnail engines. One Page value is owned by exactly one capture request;
// nothing here is safe for concurrent use against the same page.
type Page interface {
	URL() string
	// Content returns the current DOM serialized to HTML.
	Content() (string, error)
	Query(selector string) ([]Element, error)
	Evaluate(js string, args ...interface{}) (interface{}, error)
	AddStyle(css string) error
	Capture(opts CaptureOptions) ([]byte, error)
	// Fetch retrieves a URL from the page's network context.
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
	// Sleep suspends cooperatively; fakes may return immediately.
	Sleep(d time.Duration)
}

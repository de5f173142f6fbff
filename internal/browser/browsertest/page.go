// Package browsertest provides an in-memory Page implementation for unit
// tests of the banner and thumbnail engines. Selectors are matched by exact
// string against a registration table rather than by a CSS engine; tests
// register the element lists they expect each query to resolve.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pageshot/internal/browser"
)

type Element struct {
	Attrs  map[string]string
	Text   string
	Styles map[string]string
	Box    *browser.Rect

	// Sticky elements survive a click; by default a clicked element is
	// detached, which models a dismissed overlay.
	Sticky  bool
	OnClick func()

	ClickErr error
	StyleErr error

	mu      sync.Mutex
	clicks  int
	removed bool
}

// NewElement returns a visible element with a default bounding box.
func NewElement() *Element {
	return &Element{
		Attrs:  map[string]string{},
		Styles: map[string]string{},
		Box:    &browser.Rect{X: 0, Y: 0, Width: 100, Height: 50},
	}
}

func (e *Element) Clicks() int { return e.clicks }

func (e *Element) Detached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removed
}

func (e *Element) Attribute(name string) (string, error) {
	return e.Attrs[name], nil
}

func (e *Element) TextContent() (string, error) { return e.Text, nil }

func (e *Element) ComputedStyle(prop string) (string, error) {
	if e.StyleErr != nil {
		return "", e.StyleErr
	}
	if v, ok := e.Styles[prop]; ok {
		return v, nil
	}
	switch prop {
	case "display":
		return "block", nil
	case "visibility":
		return "visible", nil
	case "opacity":
		return "1", nil
	}
	return "", nil
}

func (e *Element) BoundingBox() (*browser.Rect, error) { return e.Box, nil }

func (e *Element) ScrollIntoView() error { return nil }

func (e *Element) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.mu.Lock()
	e.clicks++
	if !e.Sticky {
		e.removed = true
	}
	e.mu.Unlock()
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Remove() error {
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return nil
}

type Page struct {
	PageURL   string
	HTML      string
	Selectors map[string][]*Element
	QueryErr  map[string]error

	EvaluateFn func(js string, args ...interface{}) (interface{}, error)
	FetchFn    func(ctx context.Context, url string) ([]byte, error)
	CaptureFn  func(opts browser.CaptureOptions) ([]byte, error)

	AddedStyles []string
	Captures    []browser.CaptureOptions
	Slept       time.Duration
}

var _ browser.Page = (*Page)(nil)

func New(url string) *Page {
	return &Page{
		PageURL:   url,
		Selectors: map[string][]*Element{},
		QueryErr:  map[string]error{},
	}
}

// Register associates a selector string with the elements it resolves to.
func (p *Page) Register(selector string, els ...*Element) {
	p.Selectors[selector] = append(p.Selectors[selector], els...)
}

func (p *Page) URL() string { return p.PageURL }

func (p *Page) Content() (string, error) { return p.HTML, nil }

func (p *Page) Query(selector string) ([]browser.Element, error) {
	if err, ok := p.QueryErr[selector]; ok {
		return nil, err
	}
	var out []browser.Element
	for _, el := range p.Selectors[selector] {
		if !el.Detached() {
			out = append(out, el)
		}
	}
	return out, nil
}

func (p *Page) Evaluate(js string, args ...interface{}) (interface{}, error) {
	if p.EvaluateFn != nil {
		return p.EvaluateFn(js, args...)
	}
	return nil, nil
}

func (p *Page) AddStyle(css string) error {
	p.AddedStyles = append(p.AddedStyles, css)
	return nil
}

func (p *Page) Capture(opts browser.CaptureOptions) ([]byte, error) {
	p.Captures = append(p.Captures, opts)
	if p.CaptureFn != nil {
		return p.CaptureFn(opts)
	}
	return []byte("fake-capture"), nil
}

func (p *Page) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if p.FetchFn != nil {
		return p.FetchFn(ctx, url)
	}
	return nil, fmt.Errorf("no fetch handler for %s", url)
}

// Sleep records the requested settle time without blocking the test.
func (p *Page) Sleep(d time.Duration) { p.Slept += d }

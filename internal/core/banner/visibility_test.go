package banner

import (
	"fmt"
	"testing"

	"pageshot/internal/browser"
	"pageshot/internal/browser/browsertest"
)

func TestIsVisible(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*browsertest.Element)
		expected bool
	}{
		{"default element", func(e *browsertest.Element) {}, true},
		{"display none", func(e *browsertest.Element) { e.Styles["display"] = "none" }, false},
		{"visibility hidden", func(e *browsertest.Element) { e.Styles["visibility"] = "hidden" }, false},
		{"zero opacity", func(e *browsertest.Element) { e.Styles["opacity"] = "0" }, false},
		{"fractional opacity", func(e *browsertest.Element) { e.Styles["opacity"] = "0.5" }, true},
		{"no bounding box", func(e *browsertest.Element) { e.Box = nil }, false},
		{"zero width box", func(e *browsertest.Element) { e.Box = &browser.Rect{Width: 0, Height: 50} }, false},
		{"zero height box", func(e *browsertest.Element) { e.Box = &browser.Rect{Width: 100, Height: 0} }, false},
		{"style probe error", func(e *browsertest.Element) { e.StyleErr = fmt.Errorf("detached") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := browsertest.NewElement()
			tt.mutate(el)
			if got := IsVisible(el); got != tt.expected {
				t.Errorf("IsVisible() = %v, want %v", got, tt.expected)
			}
		})
	}
}

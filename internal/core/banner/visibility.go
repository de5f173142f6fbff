package banner

import "pageshot/internal/browser"

// IsVisible reports whether an element is actually rendered: display not
// none, visibility not hidden, opacity not zero, and a bounding box with
// positive area. Style or geometry probe errors count as not visible so a
// broad selector never triggers an interaction with a dead node.
func IsVisible(el browser.Element) bool {
	display, err := el.ComputedStyle("display")
	if err != nil || display == "none" {
		return false
	}
	visibility, err := el.ComputedStyle("visibility")
	if err != nil || visibility == "hidden" {
		return false
	}
	opacity, err := el.ComputedStyle("opacity")
	if err != nil || opacity == "0" {
		return false
	}
	box, err := el.BoundingBox()
	if err != nil || box == nil {
		return false
	}
	return box.Width > 0 && box.Height > 0
}

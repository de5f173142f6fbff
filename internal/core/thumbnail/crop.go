package thumbnail

import (
	"fmt"

	"pageshot/internal/browser"
)

const (
	cropMinWidth  = 300
	cropMinHeight = 200
	cropMinAspect = 1.3
	cropMaxAspect = 2.5
)

// FindVideoRegion returns the bounding box of the most plausible on-screen
// video player: the first native video element, else the first
// player-flavored container with a video-like shape.
func FindVideoRegion(page browser.Page) *browser.Rect {
	if els, err := page.Query("video"); err == nil {
		for _, el := range els {
			if box, err := el.BoundingBox(); err == nil && box != nil && box.Width > 0 && box.Height > 0 {
				return box
			}
		}
	}
	for _, sel := range playerContainerSelectors {
		els, err := page.Query(sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			box, err := el.BoundingBox()
			if err != nil || box == nil || box.Width <= cropMinWidth || box.Height <= cropMinHeight {
				continue
			}
			aspect := box.Width / box.Height
			if aspect >= cropMinAspect && aspect <= cropMaxAspect {
				return box
			}
		}
	}
	return nil
}

// CropCapture takes a capture clipped to the detected video region.
func CropCapture(page browser.Page, format string, quality int) ([]byte, error) {
	region := FindVideoRegion(page)
	if region == nil {
		return nil, fmt.Errorf("no video region found")
	}
	return page.Capture(browser.CaptureOptions{Format: format, Quality: quality, Clip: region})
}

package banner

import (
	"strings"
	"time"

	"pageshot/internal/browser"
	"pageshot/internal/logger"
)

// clickSettle lets in-flight animations finish between scrolling an element
// into view and clicking it.
const clickSettle = 200 * time.Millisecond

type Dismisser struct {
	log *logger.Logger
}

func NewDismisser() *Dismisser {
	return &Dismisser{log: logger.New("BannerDismisser")}
}

// Apply tries the pattern's selectors in order and performs the pattern's
// action on the first visible match. It returns true once an action
// succeeded and false when every selector was exhausted. Errors while
// probing one selector mean "no match here" and never stop the scan.
func (d *Dismisser) Apply(page browser.Page, p Pattern) bool {
	for _, sel := range p.Selectors {
		el, err := resolve(page, sel)
		if err != nil {
			d.log.LogDebugf("pattern %s selector %q probe failed: %v", p.Name, sel.Query, err)
			continue
		}
		if el == nil || !IsVisible(el) {
			continue
		}
		if !d.perform(page, p, el) {
			continue
		}
		d.log.LogDebugf("pattern %s dismissed via %q (%s)", p.Name, sel.Query, p.Action)
		return true
	}
	return false
}

func (d *Dismisser) perform(page browser.Page, p Pattern, el browser.Element) bool {
	switch p.Action {
	case ActionRemove:
		if err := el.Remove(); err != nil {
			d.log.LogDebugf("pattern %s remove failed: %v", p.Name, err)
			return false
		}
	default:
		if err := el.ScrollIntoView(); err != nil {
			d.log.LogDebugf("pattern %s scroll failed: %v", p.Name, err)
			return false
		}
		page.Sleep(clickSettle)
		if err := el.Click(); err != nil {
			d.log.LogDebugf("pattern %s click failed: %v", p.Name, err)
			return false
		}
	}
	return true
}

// resolve evaluates a two-part selector: enumerate matches of the structural
// query, then filter by text containment when the selector requires it.
func resolve(page browser.Page, sel Selector) (browser.Element, error) {
	els, err := page.Query(sel.Query)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		if sel.Text != "" {
			text, err := el.TextContent()
			if err != nil || !strings.Contains(text, sel.Text) {
				continue
			}
		}
		return el, nil
	}
	return nil, nil
}

package banner

import (
	"fmt"
	"time"

	"pageshot/internal/browser"
	"pageshot/internal/logger"
)

const (
	// initialSettle lets late-arriving overlays render before the first scan.
	initialSettle = 800 * time.Millisecond
	// finalSettle runs after the loop regardless of how it ended.
	finalSettle = 500 * time.Millisecond
	// customSettle separates clicks in the caller-selector pass.
	customSettle = 500 * time.Millisecond

	maxPasses = 5
)

// Runner drives bounded banner dismissal over the pattern catalog.
type Runner struct {
	log      *logger.Logger
	dismiss  *Dismisser
	patterns []Pattern
}

// NewRunner builds a runner over the built-in catalog plus any extra
// patterns, which run after the built-ins in the order given.
func NewRunner(extra ...Pattern) *Runner {
	return &Runner{
		log:      logger.New("BannerLoop"),
		dismiss:  NewDismisser(),
		patterns: append(Catalog(), extra...),
	}
}

// Run scans the catalog repeatedly until a full pass matches nothing, the
// time budget runs out, or the pass cap is hit. Each pass stops at its first
// successful pattern and re-scans from the top. The timeout is a soft
// deadline: an in-flight pattern application finishes, but no new pass
// starts past it. Returns the number of dismissed banners; failures never
// propagate to the caller.
func (r *Runner) Run(page browser.Page, timeout time.Duration) int {
	page.Sleep(initialSettle)
	deadline := time.Now().Add(timeout)

	dismissed := 0
	for pass := 0; pass < maxPasses; pass++ {
		if !time.Now().Before(deadline) {
			r.log.LogDebugf("banner loop deadline reached after %d passes", pass)
			break
		}
		handled, err := r.runPass(page)
		if err != nil {
			r.log.LogWarnf("banner pass failed: %v", err)
			break
		}
		if !handled {
			break
		}
		dismissed++
	}

	page.Sleep(finalSettle)
	if dismissed > 0 {
		r.log.LogDebugf("dismissed %d banner(s)", dismissed)
	}
	return dismissed
}

// runPass applies the first matching pattern and reports whether anything
// was handled. A panic inside a pattern application is converted to an
// error at this boundary so banner handling can never abort the capture.
func (r *Runner) runPass(page browser.Page) (handled bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			handled = false
			err = fmt.Errorf("banner pass panic: %v", rec)
		}
	}()
	for _, p := range r.patterns {
		if r.dismiss.Apply(page, p) {
			if p.WaitAfter > 0 {
				page.Sleep(p.WaitAfter)
			}
			return true, nil
		}
	}
	return false, nil
}

// HandleCustom clicks each caller-supplied selector once if it resolves to
// a visible element. Selectors are plain structural queries with no text
// matching; individual failures are logged and skipped.
func (r *Runner) HandleCustom(page browser.Page, selectors []string) int {
	clicked := 0
	for _, sel := range selectors {
		els, err := page.Query(sel)
		if err != nil {
			r.log.LogDebugf("custom selector %q probe failed: %v", sel, err)
			continue
		}
		if len(els) == 0 || !IsVisible(els[0]) {
			continue
		}
		if err := els[0].Click(); err != nil {
			r.log.LogDebugf("custom selector %q click failed: %v", sel, err)
			continue
		}
		clicked++
		page.Sleep(customSettle)
	}
	return clicked
}

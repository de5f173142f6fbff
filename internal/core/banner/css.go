package banner

import (
	"pageshot/internal/browser"
	"pageshot/internal/logger"
)

// BlocklistCSS force-hides the usual banner container patterns and restores
// scrolling in case a consent modal had locked it. Re-applying the rule is
// harmless, so injection is idempotent from the caller's point of view.
const BlocklistCSS = `
[id*="cookie-banner"], [class*="cookie-banner"],
[id*="cookie-notice"], [class*="cookie-notice"],
[id*="gdpr-banner"], [class*="gdpr-banner"],
[id*="consent-banner"], [class*="consent-banner"],
[id*="privacy-banner"], [class*="privacy-banner"],
[class*="newsletter-popup"], [class*="subscription-popup"],
[class*="age-verification-overlay"],
.modal-backdrop, .overlay-backdrop {
  display: none !important;
  visibility: hidden !important;
  opacity: 0 !important;
  z-index: -9999 !important;
}
html, body {
  overflow: auto !important;
}
`

// InjectBlocklist appends the defensive style block. Errors are logged and
// never fatal; a page that rejects the style still goes through the loop.
func InjectBlocklist(page browser.Page) {
	if err := page.AddStyle(BlocklistCSS); err != nil {
		logger.New("BannerCSS").LogWarnf("style injection failed: %v", err)
	}
}

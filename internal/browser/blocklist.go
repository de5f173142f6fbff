package browser

import "strings"

// URL pattern lists for request-level blocking. These cut page noise before
// it renders; overlay elements that still slip through are handled by the
// banner engine after load.

var adPatterns = []string{
	"googlesyndication.com", "doubleclick.net", "googleadservices.com", "googletag",
	"amazon-adsystem.com", "facebook.com/plugins", "fbcdn.net", "outbrain.com",
	"taboola.com", "adsystem.amazon", "googleads", "/ads/", "/ad?", "adsense",
}

var cookieVendorPatterns = []string{
	"cookielaw.org", "onetrust.com", "quantcast.com", "cookiebot.com",
	"trustarc.com", "cookie-consent", "usercentrics.eu", "didomi.io",
}

var chatPatterns = []string{
	"intercom.io", "zendesk.com", "livechat.com", "drift.com", "helpscout.com",
	"freshchat.com", "tawk.to", "crisp.chat", "messenger.com",
}

var trackerPatterns = []string{
	"google-analytics.com", "googletagmanager.com", "hotjar.com", "mixpanel.com",
	"segment.com", "amplitude.com", "fullstory.com", "logrocket.com",
	"mouseflow.com", "smartlook.com", "/analytics", "/tracking",
	"facebook.com/tr", "linkedin.com/px", "twitter.com/i/adsct",
}

func matchesAny(url string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(url, pattern) {
			return true
		}
	}
	return false
}

func IsAdURL(url string) bool           { return matchesAny(url, adPatterns) }
func IsCookieVendorURL(url string) bool { return matchesAny(url, cookieVendorPatterns) }
func IsChatURL(url string) bool         { return matchesAny(url, chatPatterns) }
func IsTrackerURL(url string) bool      { return matchesAny(url, trackerPatterns) }

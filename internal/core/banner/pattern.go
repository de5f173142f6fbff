package banner

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Action string

const (
	ActionClick  Action = "click"
	ActionRemove Action = "remove"
)

// Selector is a two-part matcher: a structural query plus an optional
// required substring of the element's text content (case-sensitive).
type Selector struct {
	Query string `yaml:"query"`
	Text  string `yaml:"text,omitempty"`
}

// Pattern is one named dismissal rule. Patterns are immutable and shared
// read-only across all detection attempts.
type Pattern struct {
	Name      string        `yaml:"name"`
	Selectors []Selector    `yaml:"selectors"`
	Action    Action        `yaml:"action"`
	WaitAfter time.Duration `yaml:"-"`
}

// Catalog returns the built-in dismissal rules in priority order:
// age gates first (they block the whole page), then the major cookie
// consent vendors, then generic consent/GDPR/newsletter/modal rules.
func Catalog() []Pattern {
	return []Pattern{
		{
			Name: "age-verification",
			Selectors: []Selector{
				{Query: "#age-gate button", Text: "Yes"},
				{Query: "[class*=\"age-verification\"] button", Text: "Enter"},
				{Query: "[class*=\"age-gate\"] button"},
				{Query: "button", Text: "I am over 18"},
				{Query: "button", Text: "I am 18 or older"},
			},
			Action:    ActionClick,
			WaitAfter: 1000 * time.Millisecond,
		},
		{
			Name: "onetrust",
			Selectors: []Selector{
				{Query: "#onetrust-accept-btn-handler"},
				{Query: "#onetrust-banner-sdk #accept-recommended-btn-handler"},
			},
			Action:    ActionClick,
			WaitAfter: 500 * time.Millisecond,
		},
		{
			Name: "cookiebot",
			Selectors: []Selector{
				{Query: "#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"},
				{Query: "#CybotCookiebotDialogBodyButtonAccept"},
			},
			Action:    ActionClick,
			WaitAfter: 500 * time.Millisecond,
		},
		{
			Name: "quantcast",
			Selectors: []Selector{
				{Query: ".qc-cmp2-summary-buttons button[mode=\"primary\"]"},
				{Query: ".qc-cmp2-footer button", Text: "ACCEPT"},
			},
			Action:    ActionClick,
			WaitAfter: 500 * time.Millisecond,
		},
		{
			Name: "didomi",
			Selectors: []Selector{
				{Query: "#didomi-notice-agree-button"},
			},
			Action:    ActionClick,
			WaitAfter: 500 * time.Millisecond,
		},
		{
			Name: "trustarc",
			Selectors: []Selector{
				{Query: "#truste-consent-button"},
				{Query: ".truste-button1"},
			},
			Action:    ActionClick,
			WaitAfter: 500 * time.Millisecond,
		},
		{
			Name: "cookie-consent-generic",
			Selectors: []Selector{
				{Query: "[id*=\"cookie\"] button", Text: "Accept"},
				{Query: "[class*=\"cookie\"] button", Text: "Accept"},
				{Query: "[class*=\"consent\"] button", Text: "Accept all"},
				{Query: "[class*=\"consent\"] button", Text: "Agree"},
				{Query: "button[aria-label*=\"accept cookies\"]"},
				{Query: "button", Text: "Accept All Cookies"},
			},
			Action:    ActionClick,
			WaitAfter: 500 * time.Millisecond,
		},
		{
			Name: "gdpr-generic",
			Selectors: []Selector{
				{Query: "[class*=\"gdpr\"] button", Text: "Accept"},
				{Query: "[id*=\"gdpr\"] button", Text: "OK"},
			},
			Action:    ActionClick,
			WaitAfter: 500 * time.Millisecond,
		},
		{
			Name: "newsletter-popup",
			Selectors: []Selector{
				{Query: "[class*=\"newsletter\"] [class*=\"close\"]"},
				{Query: "[class*=\"newsletter-popup\"] button[aria-label=\"Close\"]"},
				{Query: "[class*=\"subscription-popup\"] [class*=\"close\"]"},
			},
			Action: ActionClick,
		},
		{
			Name: "modal-close",
			Selectors: []Selector{
				{Query: ".modal.show button[aria-label=\"Close\"]"},
				{Query: "[class*=\"modal\"] button[class*=\"close\"]"},
				{Query: "[class*=\"popup\"] button[class*=\"close\"]"},
			},
			Action: ActionClick,
		},
		{
			Name: "overlay-remove",
			Selectors: []Selector{
				{Query: "[id*=\"cookie-banner\"]"},
				{Query: "[class*=\"cookie-banner\"]"},
				{Query: "[id*=\"cookie-notice\"]"},
				{Query: "[class*=\"consent-banner\"]"},
			},
			Action: ActionRemove,
		},
	}
}

type overlayPattern struct {
	Name        string     `yaml:"name"`
	Selectors   []Selector `yaml:"selectors"`
	Action      Action     `yaml:"action"`
	WaitAfterMs int        `yaml:"wait_after_ms"`
}

// LoadOverlay reads deployment-specific patterns from a YAML file. Overlay
// patterns run after the built-in catalog.
func LoadOverlay(path string) ([]Pattern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern overlay: %w", err)
	}
	var raw []overlayPattern
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse pattern overlay: %w", err)
	}
	out := make([]Pattern, 0, len(raw))
	for _, p := range raw {
		if p.Name == "" || len(p.Selectors) == 0 {
			return nil, fmt.Errorf("pattern overlay entry missing name or selectors")
		}
		action := p.Action
		if action == "" {
			action = ActionClick
		}
		if action != ActionClick && action != ActionRemove {
			return nil, fmt.Errorf("pattern %q: unknown action %q", p.Name, p.Action)
		}
		out = append(out, Pattern{
			Name:      p.Name,
			Selectors: p.Selectors,
			Action:    action,
			WaitAfter: time.Duration(p.WaitAfterMs) * time.Millisecond,
		})
	}
	return out, nil
}

package banner

import (
	"fmt"
	"testing"
	"time"

	"pageshot/internal/browser/browsertest"
)

func clickPattern(selectors ...Selector) Pattern {
	return Pattern{Name: "test", Selectors: selectors, Action: ActionClick, WaitAfter: 100 * time.Millisecond}
}

func TestApplyClicksFirstVisibleMatch(t *testing.T) {
	page := browsertest.New("https://example.com")
	el := browsertest.NewElement()
	page.Register("#accept", el)

	d := NewDismisser()
	if !d.Apply(page, clickPattern(Selector{Query: "#accept"})) {
		t.Fatal("Apply() = false, want true")
	}
	if el.Clicks() != 1 {
		t.Errorf("clicks = %d, want 1", el.Clicks())
	}
}

func TestApplySkipsHiddenElement(t *testing.T) {
	page := browsertest.New("https://example.com")
	hidden := browsertest.NewElement()
	hidden.Styles["display"] = "none"
	page.Register("#accept", hidden)

	d := NewDismisser()
	if d.Apply(page, clickPattern(Selector{Query: "#accept"})) {
		t.Fatal("Apply() = true for hidden element, want false")
	}
	if hidden.Clicks() != 0 {
		t.Errorf("clicks = %d, want 0", hidden.Clicks())
	}
}

func TestApplyTextContainmentIsCaseSensitive(t *testing.T) {
	page := browsertest.New("https://example.com")
	reject := browsertest.NewElement()
	reject.Text = "Reject all"
	accept := browsertest.NewElement()
	accept.Text = "Accept all cookies"
	page.Register("button", reject, accept)

	d := NewDismisser()
	if !d.Apply(page, clickPattern(Selector{Query: "button", Text: "Accept"})) {
		t.Fatal("Apply() = false, want true")
	}
	if reject.Clicks() != 0 || accept.Clicks() != 1 {
		t.Errorf("clicks = (%d, %d), want (0, 1)", reject.Clicks(), accept.Clicks())
	}

	// lowercase requirement must not match the capitalized button
	if d.Apply(page, clickPattern(Selector{Query: "button", Text: "reject"})) {
		t.Error("Apply() matched with wrong case")
	}
}

func TestApplyRemoveDetachesElement(t *testing.T) {
	page := browsertest.New("https://example.com")
	overlay := browsertest.NewElement()
	page.Register(".consent-overlay", overlay)

	d := NewDismisser()
	p := Pattern{Name: "overlay", Selectors: []Selector{{Query: ".consent-overlay"}}, Action: ActionRemove}
	if !d.Apply(page, p) {
		t.Fatal("Apply() = false, want true")
	}
	if !overlay.Detached() {
		t.Error("element not detached")
	}
	if overlay.Clicks() != 0 {
		t.Errorf("clicks = %d, want 0", overlay.Clicks())
	}
}

func TestApplyProbeErrorContinuesToNextSelector(t *testing.T) {
	page := browsertest.New("https://example.com")
	page.QueryErr["#broken"] = fmt.Errorf("selector engine error")
	el := browsertest.NewElement()
	page.Register("#fallback", el)

	d := NewDismisser()
	ok := d.Apply(page, clickPattern(
		Selector{Query: "#broken"},
		Selector{Query: "#fallback"},
	))
	if !ok {
		t.Fatal("Apply() = false, want fallback selector to succeed")
	}
	if el.Clicks() != 1 {
		t.Errorf("clicks = %d, want 1", el.Clicks())
	}
}

func TestApplyClickErrorReportsFailure(t *testing.T) {
	page := browsertest.New("https://example.com")
	el := browsertest.NewElement()
	el.ClickErr = fmt.Errorf("element covered")
	page.Register("#accept", el)

	d := NewDismisser()
	if d.Apply(page, clickPattern(Selector{Query: "#accept"})) {
		t.Error("Apply() = true despite click failure")
	}
}

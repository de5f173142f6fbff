package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pageshot/internal/browser"

	"github.com/PuerkitoBio/goquery"
)

// Lazy-load attributes commonly carrying a poster or preview image.
var lazyImageAttrs = []string{"data-thumb", "data-poster", "data-thumbnail", "data-preview", "data-image"}

// Container selectors the DOM traversal and region cropper consider
// video-player flavored.
var playerContainerSelectors = []string{
	"[class*=\"video\"]",
	"[class*=\"player\"]",
	"[id*=\"video\"]",
	"[id*=\"player\"]",
	"[class*=\"media\"]",
	"[class*=\"embed\"]",
	".video-container",
	".video-wrapper",
	".player-container",
}

var embedHostKeywords = []string{"youtube", "vimeo", "dailymotion", "twitch", "player", "embed"}

// extractMetadata reads og:image, twitter:image, and any VideoObject
// thumbnailUrl inside JSON-LD blocks. Malformed JSON blocks are skipped.
func extractMetadata(doc *goquery.Document) []Candidate {
	var out []Candidate

	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		if content := strings.TrimSpace(s.AttrOr("content", "")); content != "" {
			out = append(out, Candidate{URL: content, Source: "og:image", Confidence: 0.8, Method: "metadata"})
		}
	})
	doc.Find(`meta[name="twitter:image"], meta[property="twitter:image"]`).Each(func(_ int, s *goquery.Selection) {
		if content := strings.TrimSpace(s.AttrOr("content", "")); content != "" {
			out = append(out, Candidate{URL: content, Source: "twitter:image", Confidence: 0.7, Method: "metadata"})
		}
	})
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		for _, thumb := range videoObjectThumbnails(data) {
			out = append(out, Candidate{URL: thumb, Source: "VideoObject", Confidence: 0.9, Method: "metadata"})
		}
	})
	return out
}

// videoObjectThumbnails walks arbitrarily nested JSON looking for objects
// typed VideoObject and collects their thumbnailUrl values.
func videoObjectThumbnails(v interface{}) []string {
	var out []string
	switch node := v.(type) {
	case map[string]interface{}:
		if t, _ := node["@type"].(string); t == "VideoObject" {
			out = append(out, thumbnailURLValues(node["thumbnailUrl"])...)
		}
		for _, child := range node {
			out = append(out, videoObjectThumbnails(child)...)
		}
	case []interface{}:
		for _, child := range node {
			out = append(out, videoObjectThumbnails(child)...)
		}
	}
	return out
}

// thumbnailUrl may be a single string or a list of strings.
func thumbnailURLValues(v interface{}) []string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return []string{t}
		}
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// extractVideoElements reads poster and lazy-load attributes off native
// video elements.
func extractVideoElements(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find("video").Each(func(i int, s *goquery.Selection) {
		ref := fmt.Sprintf("video:nth-of-type(%d)", i+1)
		if poster := strings.TrimSpace(s.AttrOr("poster", "")); poster != "" {
			out = append(out, Candidate{URL: poster, Source: "video poster", Confidence: 0.9, Method: "video element", ElementRef: ref})
		}
		for _, attr := range lazyImageAttrs {
			if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
				out = append(out, Candidate{URL: v, Source: "video " + attr, Confidence: 0.8, Method: "video element", ElementRef: ref})
			}
		}
	})
	return out
}

// extractDOMTraversal collects image sources inside player-flavored
// containers and inside their sibling elements.
func extractDOMTraversal(doc *goquery.Document) []Candidate {
	var out []Candidate
	seen := map[string]bool{}

	add := func(u, source string, conf float64, ref string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, Candidate{URL: u, Source: source, Confidence: conf, Method: "dom traversal", ElementRef: ref})
	}

	for _, sel := range playerContainerSelectors {
		doc.Find(sel).Each(func(_ int, container *goquery.Selection) {
			container.Find("img").Each(func(_ int, img *goquery.Selection) {
				src := img.AttrOr("src", img.AttrOr("data-src", ""))
				add(src, "container image", 0.6, sel)
			})
			container.Siblings().Each(func(_ int, sib *goquery.Selection) {
				if sib.Is("img") {
					add(sib.AttrOr("src", ""), "sibling image", 0.5, sel)
					return
				}
				sib.Find("img").Each(func(_ int, img *goquery.Selection) {
					add(img.AttrOr("src", ""), "sibling image", 0.5, sel)
				})
			})
		})
	}
	return out
}

const backgroundScanJS = `() => {
	const out = [];
	for (const el of document.querySelectorAll('*')) {
		const bg = getComputedStyle(el).backgroundImage;
		if (!bg || bg === 'none') continue;
		const m = bg.match(/url\(["']?([^"')]+)["']?\)/);
		if (!m) continue;
		const hint = ((el.getAttribute('class') || '') + ' ' + (el.id || '')).toLowerCase();
		out.push({ url: m[1], hint: hint, ref: el.tagName.toLowerCase() + (el.id ? '#' + el.id : '') });
	}
	return out;
}`

var backgroundHintKeywords = []string{"video", "player", "thumb", "preview"}

// extractCSSBackgrounds scans computed background-image values in page
// context and keeps URLs on elements whose class or id carries a video
// keyword.
func extractCSSBackgrounds(page browser.Page) []Candidate {
	raw, err := page.Evaluate(backgroundScanJS)
	if err != nil {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var out []Candidate
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		u, _ := m["url"].(string)
		hint, _ := m["hint"].(string)
		ref, _ := m["ref"].(string)
		if u == "" {
			continue
		}
		matched := false
		for _, kw := range backgroundHintKeywords {
			if strings.Contains(hint, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		out = append(out, Candidate{URL: u, Source: "css background", Confidence: 0.7, Method: "css background", ElementRef: ref})
	}
	return out
}

// extractIframes reads poster-like data attributes directly off embed-host
// iframes. Cross-origin frame contents are never traversed; the attributes
// on the iframe element itself are all this strategy can see.
func extractIframes(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find("iframe").Each(func(i int, s *goquery.Selection) {
		src := strings.ToLower(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		hosted := false
		for _, kw := range embedHostKeywords {
			if strings.Contains(src, kw) {
				hosted = true
				break
			}
		}
		if !hosted {
			return
		}
		ref := fmt.Sprintf("iframe:nth-of-type(%d)", i+1)
		for _, attr := range lazyImageAttrs {
			if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
				out = append(out, Candidate{URL: v, Source: "iframe " + attr, Confidence: 0.6, Method: "iframe", ElementRef: ref})
			}
		}
	})
	return out
}

type oembedDocument struct {
	ThumbnailURL    string `json:"thumbnail_url"`
	ThumbnailWidth  int    `json:"thumbnail_width"`
	ThumbnailHeight int    `json:"thumbnail_height"`
}

// extractOEmbed follows JSON oEmbed discovery links and reads the provider's
// declared thumbnail. This is the one strategy that touches the network; its
// fetch carries its own bounded timeout via the detector's client.
func (d *Detector) extractOEmbed(ctx context.Context, doc *goquery.Document, base *url.URL) []Candidate {
	var out []Candidate
	doc.Find(`link[type="application/json+oembed"]`).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		endpoint := href
		if base != nil {
			if resolved, err := base.Parse(href); err == nil {
				endpoint = resolved.String()
			}
		}
		oe, err := d.fetchOEmbed(ctx, endpoint)
		if err != nil {
			d.log.LogDebugf("oEmbed fetch %s failed: %v", endpoint, err)
			return
		}
		if oe.ThumbnailURL == "" {
			return
		}
		out = append(out, Candidate{
			URL:        oe.ThumbnailURL,
			Source:     "oEmbed",
			Confidence: 0.8,
			Width:      oe.ThumbnailWidth,
			Height:     oe.ThumbnailHeight,
			Method:     "oembed",
		})
	})
	return out
}

func (d *Detector) fetchOEmbed(ctx context.Context, endpoint string) (*oembedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var oe oembedDocument
	if err := json.NewDecoder(resp.Body).Decode(&oe); err != nil {
		return nil, err
	}
	return &oe, nil
}

package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestRejectReason(t *testing.T) {
	tests := []struct {
		name     string
		cand     Candidate
		rejected bool
	}{
		{"valid 16:9", Candidate{URL: "https://x/a.jpg", Width: 1280, Height: 720}, false},
		{"below minimum width", Candidate{URL: "https://x/a.jpg", Width: 199, Height: 720}, true},
		{"below minimum height", Candidate{URL: "https://x/a.jpg", Width: 1280, Height: 149}, true},
		{"unknown dimensions", Candidate{URL: "https://x/a.jpg"}, true},
		{"denylisted logo", Candidate{URL: "https://x/logo.png", Width: 1280, Height: 720}, true},
		{"denylisted favicon", Candidate{URL: "https://x/favicon.ico", Width: 1280, Height: 720}, true},
		{"denylisted play button", Candidate{URL: "https://x/play-button.png", Width: 400, Height: 400}, true},
		{"portrait far from video ratios", Candidate{URL: "https://x/a.jpg", Width: 200, Height: 600}, true},
		{"narrow but above threshold", Candidate{URL: "https://x/a.jpg", Width: 300, Height: 550}, false},
		{"square passes", Candidate{URL: "https://x/a.jpg", Width: 400, Height: 400}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := rejectReason(tt.cand)
			if tt.rejected {
				assert.NotEmpty(t, reason)
			} else {
				assert.Empty(t, reason, "unexpected rejection: %s", reason)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://example.com/watch/v1")

	got, err := resolveURL(base, "/thumbs/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/thumbs/a.jpg", got)

	got, err = resolveURL(base, "https://cdn.example.net/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.net/b.jpg", got)

	_, err = resolveURL(base, "data:image/png;base64,AAAA")
	assert.Error(t, err)
}

func TestProbeDimensions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(pngBytes(t, 640, 360))
		case "/broken.png":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	d := NewDetectorWithClient(ts.Client())

	w, h, err := d.probeDimensions(context.Background(), ts.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)

	_, _, err = d.probeDimensions(context.Background(), ts.URL+"/broken.png")
	assert.Error(t, err)

	_, _, err = d.probeDimensions(context.Background(), ts.URL+"/missing.png")
	assert.Error(t, err)
}

func TestValidateFillsDimensionsAndRejects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/big.png":
			_, _ = w.Write(pngBytes(t, 1280, 720))
		case "/tiny.png":
			_, _ = w.Write(pngBytes(t, 100, 80))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	base, _ := url.Parse(ts.URL + "/")
	d := NewDetectorWithClient(ts.Client())
	res := &DetectionResult{}

	out := d.validate(context.Background(), base, []Candidate{
		{URL: "/big.png", Source: "og:image", Confidence: 0.8},
		{URL: "/tiny.png", Source: "video poster", Confidence: 0.9},
		{URL: "/gone.png", Source: "twitter:image", Confidence: 0.7},
	}, res)

	require.Len(t, out, 1)
	assert.Equal(t, ts.URL+"/big.png", out[0].URL)
	assert.Equal(t, 1280, out[0].Width)
	assert.Equal(t, 720, out[0].Height)
	assert.NotEmpty(t, res.Log)
}

package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"pageshot/internal/browser/browsertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageServer(t *testing.T, sizes map[string][2]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size, ok := sizes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, size[0], size[1]))))
		_, _ = w.Write(buf.Bytes())
	}))
}

func TestDetectSelectsMetadataThumbnail(t *testing.T) {
	ts := imageServer(t, map[string][2]int{"/og.png": {1280, 720}})
	defer ts.Close()

	page := browsertest.New(ts.URL + "/watch")
	page.HTML = fmt.Sprintf(`<html><head>
		<meta property="og:image" content="%s/og.png">
	</head><body><video src="movie.mp4"></video></body></html>`, ts.URL)

	d := NewDetectorWithClient(ts.Client())
	res := d.Detect(context.Background(), page)

	assert.True(t, res.HasVideo)
	require.NotNil(t, res.Thumbnail)
	assert.Equal(t, ts.URL+"/og.png", res.Thumbnail.URL)
	assert.Equal(t, "og:image", res.Thumbnail.Source)
	// 0.8 base, +0.1 large area, +0.1 16:9 aspect.
	assert.InDelta(t, 1.0, res.Thumbnail.Confidence, 1e-9)
	assert.Equal(t, 1280, res.Thumbnail.Width)
	assert.NotEmpty(t, res.Log)
}

func TestDetectPosterBeatsMetadataAfterScoring(t *testing.T) {
	ts := imageServer(t, map[string][2]int{
		"/og.png":     {400, 400},
		"/poster.png": {1280, 720},
	})
	defer ts.Close()

	page := browsertest.New(ts.URL + "/watch")
	page.HTML = fmt.Sprintf(`<html><head>
		<meta property="og:image" content="%s/og.png">
	</head><body><video poster="%s/poster.png"></video></body></html>`, ts.URL, ts.URL)

	d := NewDetectorWithClient(ts.Client())
	res := d.Detect(context.Background(), page)

	require.NotNil(t, res.Thumbnail)
	assert.Equal(t, ts.URL+"/poster.png", res.Thumbnail.URL)
	assert.Equal(t, "video poster", res.Thumbnail.Source)
	assert.Len(t, res.Candidates, 2)
}

func TestDetectRejectsAllCandidatesKeepsVideoFlag(t *testing.T) {
	ts := imageServer(t, map[string][2]int{"/tiny.png": {100, 80}})
	defer ts.Close()

	page := browsertest.New(ts.URL + "/watch")
	page.HTML = fmt.Sprintf(`<html><body>
		<video poster="%s/tiny.png"></video>
	</body></html>`, ts.URL)

	d := NewDetectorWithClient(ts.Client())
	res := d.Detect(context.Background(), page)

	assert.Nil(t, res.Thumbnail)
	assert.Empty(t, res.Candidates)
	assert.True(t, res.HasVideo, "native video element still counts as an indicator")
}

func TestDetectNoVideoNoCandidates(t *testing.T) {
	page := browsertest.New("https://example.com")
	page.HTML = `<html><body><p>just an article</p></body></html>`

	d := NewDetectorWithClient(http.DefaultClient)
	res := d.Detect(context.Background(), page)

	assert.False(t, res.HasVideo)
	assert.Nil(t, res.Thumbnail)
}

func TestDetectContainsStrategyPanic(t *testing.T) {
	page := browsertest.New("https://example.com")
	page.HTML = `<html><body><video src="a.mp4"></video></body></html>`
	page.EvaluateFn = func(js string, args ...interface{}) (interface{}, error) {
		panic("renderer gone")
	}

	d := NewDetectorWithClient(http.DefaultClient)
	res := d.Detect(context.Background(), page)

	assert.True(t, res.HasVideo)
}

func TestCandidateDirectURL(t *testing.T) {
	tests := []struct {
		name string
		cand Candidate
		want bool
	}{
		{"oEmbed source", Candidate{URL: "https://x/a.jpg", Source: "oEmbed", Confidence: 0.5}, true},
		{"VideoObject source", Candidate{URL: "https://x/a.jpg", Source: "VideoObject", Confidence: 0.5}, true},
		{"high confidence", Candidate{URL: "https://x/a.jpg", Source: "container image", Confidence: 0.85}, true},
		{"youtube cdn", Candidate{URL: "https://i.ytimg.com/vi/abc/hq720.jpg", Source: "css background", Confidence: 0.5}, true},
		{"vimeo cdn", Candidate{URL: "https://i.vimeocdn.com/video/123.jpg", Source: "css background", Confidence: 0.5}, true},
		{"ordinary host", Candidate{URL: "https://cdn.example.com/a.jpg", Source: "container image", Confidence: 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cand.DirectURL())
		})
	}
}

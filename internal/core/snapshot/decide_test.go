package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"pageshot/internal/browser"
	"pageshot/internal/browser/browsertest"
	"pageshot/internal/core/thumbnail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servePNG(t *testing.T, sizes map[string][2]int) *httptest.Server {
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

func newOrchestrator(client *http.Client) *Orchestrator {
	return NewOrchestrator(thumbnail.NewDetectorWithClient(client))
}

func TestProduceDetectionDisabled(t *testing.T) {
	page := browsertest.New("https://example.com")
	page.HTML = `<html><head><meta property="og:image" content="https://x/og.jpg"></head></html>`

	orch := newOrchestrator(http.DefaultClient)
	dec, err := orch.ProduceImageOrURL(context.Background(), page, CaptureOptions{Format: "png"})
	require.NoError(t, err)

	assert.Equal(t, DecisionImage, dec.Kind)
	assert.False(t, dec.IsVideoThumbnail)
	assert.NotEmpty(t, dec.Bytes)
	require.Len(t, page.Captures, 1)
	assert.Nil(t, page.Captures[0].Clip)
}

func TestProduceDirectURLShortCircuitsCapture(t *testing.T) {
	ts := servePNG(t, map[string][2]int{"/og.png": {1280, 720}})
	defer ts.Close()

	page := browsertest.New(ts.URL + "/watch")
	page.HTML = fmt.Sprintf(`<html><head>
		<meta property="og:image" content="%s/og.png">
	</head><body><video src="a.mp4"></video></body></html>`, ts.URL)

	orch := newOrchestrator(ts.Client())
	dec, err := orch.ProduceImageOrURL(context.Background(), page, CaptureOptions{Format: "png", DetectVideoThumbnails: true})
	require.NoError(t, err)

	assert.Equal(t, DecisionURL, dec.Kind)
	assert.Equal(t, ts.URL+"/og.png", dec.URL)
	assert.True(t, dec.IsVideoThumbnail)
	assert.Empty(t, dec.Bytes)
	assert.Empty(t, page.Captures, "no screenshot taken when a url is returned")
}

func TestProduceFetchesModestCandidateBytes(t *testing.T) {
	// A container image scores below the direct-url bar, so its bytes are
	// fetched through the page instead.
	ts := servePNG(t, map[string][2]int{"/thumb.png": {640, 360}})
	defer ts.Close()

	page := browsertest.New(ts.URL + "/watch")
	page.HTML = fmt.Sprintf(`<html><body>
		<div class="video-wrap"><img src="%s/thumb.png"></div>
	</body></html>`, ts.URL)
	page.FetchFn = func(ctx context.Context, url string) ([]byte, error) {
		return []byte("thumb-bytes"), nil
	}

	orch := newOrchestrator(ts.Client())
	dec, err := orch.ProduceImageOrURL(context.Background(), page, CaptureOptions{Format: "png", DetectVideoThumbnails: true})
	require.NoError(t, err)

	assert.Equal(t, DecisionImage, dec.Kind)
	assert.True(t, dec.IsVideoThumbnail)
	assert.Equal(t, []byte("thumb-bytes"), dec.Bytes)
	assert.Empty(t, page.Captures)
}

func TestProduceCropsAfterFailedFetch(t *testing.T) {
	ts := servePNG(t, map[string][2]int{"/thumb.png": {640, 360}})
	defer ts.Close()

	page := browsertest.New(ts.URL + "/watch")
	page.HTML = fmt.Sprintf(`<html><body>
		<div class="video-wrap"><img src="%s/thumb.png"></div>
	</body></html>`, ts.URL)
	page.FetchFn = func(ctx context.Context, url string) ([]byte, error) {
		return nil, fmt.Errorf("net::ERR_BLOCKED_BY_ORB")
	}

	videoEl := browsertest.NewElement()
	videoEl.Box = &browser.Rect{X: 10, Y: 20, Width: 640, Height: 360}
	page.Register("video", videoEl)

	orch := newOrchestrator(ts.Client())
	dec, err := orch.ProduceImageOrURL(context.Background(), page, CaptureOptions{Format: "jpeg", Quality: 80, DetectVideoThumbnails: true})
	require.NoError(t, err)

	assert.Equal(t, DecisionImage, dec.Kind)
	assert.True(t, dec.IsVideoThumbnail)
	require.Len(t, page.Captures, 1)
	require.NotNil(t, page.Captures[0].Clip)
	assert.Equal(t, 640.0, page.Captures[0].Clip.Width)
	assert.Equal(t, 80, page.Captures[0].Quality)
}

func TestProduceCropsOnVideoIndicatorsAlone(t *testing.T) {
	page := browsertest.New("https://example.com/watch")
	page.HTML = `<html><body><video src="a.mp4"></video></body></html>`

	videoEl := browsertest.NewElement()
	videoEl.Box = &browser.Rect{X: 0, Y: 0, Width: 800, Height: 450}
	page.Register("video", videoEl)

	orch := newOrchestrator(http.DefaultClient)
	dec, err := orch.ProduceImageOrURL(context.Background(), page, CaptureOptions{Format: "png", DetectVideoThumbnails: true})
	require.NoError(t, err)

	assert.Equal(t, DecisionImage, dec.Kind)
	assert.True(t, dec.IsVideoThumbnail)
	require.Len(t, page.Captures, 1)
	require.NotNil(t, page.Captures[0].Clip)
}

func TestProduceFallsBackToPlainCapture(t *testing.T) {
	// Video indicators but no croppable region and no candidates.
	page := browsertest.New("https://example.com/watch")
	page.HTML = `<html><body><iframe src="https://www.youtube.com/embed/x"></iframe></body></html>`

	orch := newOrchestrator(http.DefaultClient)
	dec, err := orch.ProduceImageOrURL(context.Background(), page, CaptureOptions{Format: "png", FullPage: true, DetectVideoThumbnails: true})
	require.NoError(t, err)

	assert.Equal(t, DecisionImage, dec.Kind)
	assert.False(t, dec.IsVideoThumbnail)
	require.Len(t, page.Captures, 1)
	assert.True(t, page.Captures[0].FullPage)
	assert.Nil(t, page.Captures[0].Clip)
}

func TestProducePlainCaptureFailurePropagates(t *testing.T) {
	page := browsertest.New("https://example.com")
	page.HTML = `<html><body></body></html>`
	page.CaptureFn = func(opts browser.CaptureOptions) ([]byte, error) {
		return nil, fmt.Errorf("target closed")
	}

	orch := newOrchestrator(http.DefaultClient)
	_, err := orch.ProduceImageOrURL(context.Background(), page, CaptureOptions{Format: "png", DetectVideoThumbnails: true})
	assert.Error(t, err)
}

func TestProduceEmptyCaptureIsError(t *testing.T) {
	page := browsertest.New("https://example.com")
	page.HTML = `<html><body></body></html>`
	page.CaptureFn = func(opts browser.CaptureOptions) ([]byte, error) {
		return []byte{}, nil
	}

	orch := newOrchestrator(http.DefaultClient)
	_, err := orch.ProduceImageOrURL(context.Background(), page, CaptureOptions{Format: "png"})
	assert.Error(t, err)
}

package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pageshot/internal/logger"

	"github.com/playwright-community/playwright-go"
)

// LaunchOptions controls one browser session.
type LaunchOptions struct {
	IgnoreHTTPS bool
	DisableJS   bool
}

// ContextOptions configures the page created for one capture request.
type ContextOptions struct {
	Device        string // desktop | mobile | tablet | custom
	Width         int
	Height        int
	DeviceScale   float64
	IsMobile      bool
	HasTouch      bool
	IsLandscape   bool
	UserAgent     string
	Headers       map[string]string
	IgnoreHTTPS   bool
	DarkMode      bool
	ReducedMotion bool

	BlockAds      bool
	BlockCookies  bool
	BlockChats    bool
	BlockTrackers bool
}

// Session owns one Playwright runtime plus one launched Chromium instance.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	log     *logger.Logger
}

func StartSession(opts LaunchOptions) (*Session, error) {
	log := logger.New("Browser")

	pw, err := playwright.Run()
	if err != nil {
		log.LogErrorf("Failed to start Playwright: %v", err)
		return nil, fmt.Errorf("playwright initialization failed: %w", err)
	}

	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--disable-blink-features=AutomationControlled",
		"--disable-features=VizDisplayCompositor",
	}
	if opts.IgnoreHTTPS {
		args = append(args, "--ignore-certificate-errors", "--ignore-ssl-errors")
	}
	if opts.DisableJS {
		args = append(args, "--disable-javascript")
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     args,
	})
	if err != nil {
		_ = pw.Stop()
		log.LogErrorf("Failed to launch browser: %v", err)
		return nil, fmt.Errorf("browser launch failed: %w", err)
	}
	return &Session{pw: pw, browser: b, log: log}, nil
}

func (s *Session) Close() {
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.pw != nil {
		_ = s.pw.Stop()
	}
}

// NewPage creates a fresh browser context and page for one capture request.
func (s *Session) NewPage(opts ContextOptions) (*PlaywrightPage, error) {
	co := playwright.BrowserNewContextOptions{}

	switch opts.Device {
	case "mobile":
		co.Viewport = &playwright.Size{Width: 375, Height: 667}
		co.DeviceScaleFactor = playwright.Float(2.0)
		co.IsMobile = playwright.Bool(true)
		co.HasTouch = playwright.Bool(true)
		if opts.UserAgent == "" {
			co.UserAgent = playwright.String("Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1")
		}
	case "tablet":
		if opts.IsLandscape {
			co.Viewport = &playwright.Size{Width: 1024, Height: 768}
		} else {
			co.Viewport = &playwright.Size{Width: 768, Height: 1024}
		}
		co.DeviceScaleFactor = playwright.Float(2.0)
		co.IsMobile = playwright.Bool(true)
		co.HasTouch = playwright.Bool(true)
		if opts.UserAgent == "" {
			co.UserAgent = playwright.String("Mozilla/5.0 (iPad; CPU OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1")
		}
	case "custom":
		if opts.Width > 0 && opts.Height > 0 {
			co.Viewport = &playwright.Size{Width: opts.Width, Height: opts.Height}
		}
		if opts.DeviceScale > 0 {
			co.DeviceScaleFactor = playwright.Float(opts.DeviceScale)
		}
		co.IsMobile = playwright.Bool(opts.IsMobile)
		co.HasTouch = playwright.Bool(opts.HasTouch)
	default:
		co.Viewport = &playwright.Size{Width: 1920, Height: 1080}
		co.DeviceScaleFactor = playwright.Float(1.0)
		co.IsMobile = playwright.Bool(false)
		co.HasTouch = playwright.Bool(false)
	}

	if opts.DarkMode {
		co.ColorScheme = playwright.ColorSchemeDark
	}
	if opts.ReducedMotion {
		co.ReducedMotion = playwright.ReducedMotionReduce
	}
	if opts.UserAgent != "" {
		co.UserAgent = playwright.String(opts.UserAgent)
	}
	if len(opts.Headers) > 0 {
		co.ExtraHttpHeaders = opts.Headers
	}
	if opts.IgnoreHTTPS {
		co.IgnoreHttpsErrors = playwright.Bool(true)
	}

	ctx, err := s.browser.NewContext(co)
	if err != nil {
		s.log.LogErrorf("Failed to create browser context: %v", err)
		return nil, fmt.Errorf("browser context creation failed: %w", err)
	}

	if opts.BlockAds || opts.BlockCookies || opts.BlockChats || opts.BlockTrackers {
		if err := ctx.Route("**/*", func(route playwright.Route) {
			url := route.Request().URL()
			if opts.BlockAds && IsAdURL(url) {
				_ = route.Abort("blockedbyclient")
				return
			}
			if opts.BlockCookies && IsCookieVendorURL(url) {
				_ = route.Abort("blockedbyclient")
				return
			}
			if opts.BlockChats && IsChatURL(url) {
				_ = route.Abort("blockedbyclient")
				return
			}
			if opts.BlockTrackers && IsTrackerURL(url) {
				_ = route.Abort("blockedbyclient")
				return
			}
			_ = route.Continue()
		}); err != nil {
			s.log.LogWarnf("Failed to set up resource blocking: %v", err)
		}
	}

	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		s.log.LogErrorf("Failed to create page: %v", err)
		return nil, fmt.Errorf("page creation failed: %w", err)
	}
	return &PlaywrightPage{page: page, ctx: ctx, log: s.log}, nil
}

// PlaywrightPage adapts a playwright page to the Page contract.
type PlaywrightPage struct {
	page playwright.Page
	ctx  playwright.BrowserContext
	log  *logger.Logger
}

var _ Page = (*PlaywrightPage)(nil)

// Navigate loads the URL and settles on the requested wait condition.
func (p *PlaywrightPage) Navigate(url, waitUntil string, timeoutMs int) error {
	state := playwright.WaitUntilStateDomcontentloaded
	switch waitUntil {
	case "load":
		state = playwright.WaitUntilStateLoad
	case "networkidle":
		state = playwright.WaitUntilStateNetworkidle
	}
	timeout := 30000.0
	if timeoutMs > 0 {
		timeout = float64(timeoutMs)
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: state,
		Timeout:   playwright.Float(timeout),
	}); err != nil {
		p.log.LogErrorf("Failed to navigate to %s: %v", url, err)
		if strings.Contains(err.Error(), "timeout") {
			return fmt.Errorf("page load timeout: %w", err)
		}
		if strings.Contains(err.Error(), "net::") {
			return fmt.Errorf("network error accessing page: %w", err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitForQuiet waits for the network to go idle, bounded by timeoutMs.
func (p *PlaywrightPage) WaitForQuiet(timeoutMs int) {
	_ = p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeoutMs)),
	})
}

func (p *PlaywrightPage) Close() {
	_ = p.ctx.Close()
}

func (p *PlaywrightPage) URL() string { return p.page.URL() }

func (p *PlaywrightPage) Content() (string, error) { return p.page.Content() }

func (p *PlaywrightPage) Query(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &playwrightElement{h: h})
	}
	return out, nil
}

func (p *PlaywrightPage) Evaluate(js string, args ...interface{}) (interface{}, error) {
	if len(args) > 0 {
		return p.page.Evaluate(js, args[0])
	}
	return p.page.Evaluate(js)
}

func (p *PlaywrightPage) AddStyle(css string) error {
	_, err := p.page.AddStyleTag(playwright.PageAddStyleTagOptions{Content: playwright.String(css)})
	return err
}

func (p *PlaywrightPage) Capture(opts CaptureOptions) ([]byte, error) {
	so := playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(opts.FullPage),
		Timeout:  playwright.Float(30000),
	}
	switch strings.ToLower(opts.Format) {
	case "jpeg", "jpg":
		so.Type = playwright.ScreenshotTypeJpeg
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 85
		}
		so.Quality = &quality
	default:
		so.Type = playwright.ScreenshotTypePng
	}
	if opts.Clip != nil {
		so.Clip = &playwright.Rect{X: opts.Clip.X, Y: opts.Clip.Y, Width: opts.Clip.Width, Height: opts.Clip.Height}
	}
	return p.page.Screenshot(so)
}

func (p *PlaywrightPage) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	resp, err := p.ctx.Request().Get(url, playwright.APIRequestContextGetOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, err
	}
	if resp.Status() < 200 || resp.Status() >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.Status())
	}
	return resp.Body()
}

func (p *PlaywrightPage) Sleep(d time.Duration) {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

type playwrightElement struct {
	h playwright.ElementHandle
}

var _ Element = (*playwrightElement)(nil)

func (e *playwrightElement) Attribute(name string) (string, error) {
	return e.h.GetAttribute(name)
}

func (e *playwrightElement) TextContent() (string, error) { return e.h.TextContent() }

func (e *playwrightElement) ComputedStyle(prop string) (string, error) {
	v, err := e.h.Evaluate(`(el, prop) => getComputedStyle(el)[prop]`, prop)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (e *playwrightElement) BoundingBox() (*Rect, error) {
	box, err := e.h.BoundingBox()
	if err != nil || box == nil {
		return nil, err
	}
	return &Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

func (e *playwrightElement) ScrollIntoView() error {
	_, err := e.h.Evaluate(`el => el.scrollIntoView({behavior: "instant", block: "center"})`)
	return err
}

func (e *playwrightElement) Click() error { return e.h.Click() }

func (e *playwrightElement) Remove() error {
	_, err := e.h.Evaluate(`el => el.remove()`)
	return err
}

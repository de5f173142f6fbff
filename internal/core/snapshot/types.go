package snapshot

// Request is the snapshot API payload. Optional fields are pointers so the
// service can tell "absent" from zero values and apply defaults.
type Request struct {
	URL string `json:"url"`

	Format   *string `json:"format,omitempty"` // png | jpeg
	Quality  *int    `json:"quality,omitempty"`
	FullPage *bool   `json:"full_page,omitempty"`

	Device      *string  `json:"device,omitempty"` // desktop | mobile | tablet | custom
	Width       *int     `json:"width,omitempty"`
	Height      *int     `json:"height,omitempty"`
	DeviceScale *float64 `json:"device_scale,omitempty"`
	IsMobile    *bool    `json:"is_mobile,omitempty"`
	HasTouch    *bool    `json:"has_touch,omitempty"`
	IsLandscape *bool    `json:"is_landscape,omitempty"`

	WaitUntil *string `json:"wait_until,omitempty"` // load | domcontentloaded | networkidle
	Timeout   *int    `json:"timeout,omitempty"`    // seconds
	Delay     *int    `json:"delay,omitempty"`      // seconds

	UserAgent     *string            `json:"user_agent,omitempty"`
	Headers       *map[string]string `json:"headers,omitempty"`
	IgnoreHTTPS   *bool              `json:"ignore_https,omitempty"`
	DarkMode      *bool              `json:"dark_mode,omitempty"`
	ReducedMotion *bool              `json:"reduced_motion,omitempty"`

	HideSelectors *[]string `json:"hide_selectors,omitempty"`
	BlockAds      *bool     `json:"block_ads,omitempty"`
	BlockCookies  *bool     `json:"block_cookies,omitempty"`
	BlockChats    *bool     `json:"block_chats,omitempty"`
	BlockTrackers *bool     `json:"block_trackers,omitempty"`

	HandleBanners         *bool     `json:"handle_banners,omitempty"` // default true
	BannerTimeoutMs       *int      `json:"banner_timeout_ms,omitempty"`
	CustomBannerSelectors *[]string `json:"custom_banner_selectors,omitempty"`
	InjectBannerCSS       *bool     `json:"inject_banner_css,omitempty"`
	DetectVideoThumbnails *bool     `json:"detect_video_thumbnails,omitempty"` // default true

	Stream *bool `json:"stream,omitempty"`
}

type DecisionKind string

const (
	DecisionImage DecisionKind = "image"
	DecisionURL   DecisionKind = "url"
)

// Decision is the orchestrator output: exactly one of captured bytes or a
// direct thumbnail URL, plus the diagnostic log of the detection run.
type Decision struct {
	Kind             DecisionKind
	Bytes            []byte
	URL              string
	IsVideoThumbnail bool
	Log              []string
}

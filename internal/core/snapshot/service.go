package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pageshot/internal/browser"
	"pageshot/internal/config"
	"pageshot/internal/core/banner"
	"pageshot/internal/core/job"
	"pageshot/internal/core/thumbnail"
	"pageshot/internal/logger"
	tasks "pageshot/internal/platform/tasks"

	"github.com/antoineross/supabase-go"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	storage_go "github.com/supabase-community/storage-go"
)

const TaskTypeSnapshot = "snapshot:task"

type Service struct {
	log  *logger.Logger
	cfg  config.Config
	jobs *job.JobService

	banners *banner.Runner
	orch    *Orchestrator

	supabaseClient *supabase.Client
}

type Payload struct {
	JobID   string  `json:"job_id"`
	Request Request `json:"request"`
}

func New(cfg config.Config, jobs *job.JobService) (*Service, error) {
	s := &Service{log: logger.New("SnapshotService"), cfg: cfg, jobs: jobs}

	var extra []banner.Pattern
	if cfg.BannerPatternsFile != "" {
		patterns, err := banner.LoadOverlay(cfg.BannerPatternsFile)
		if err != nil {
			return nil, fmt.Errorf("banner pattern overlay: %w", err)
		}
		extra = patterns
		s.log.LogInfof("loaded %d overlay banner pattern(s) from %s", len(patterns), cfg.BannerPatternsFile)
	}
	s.banners = banner.NewRunner(extra...)
	s.orch = NewOrchestrator(thumbnail.NewDetector())

	// Production requires Supabase storage for captured bytes
	if cfg.AppEnv == "production" {
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" || cfg.SupabaseBucket == "" {
			return nil, fmt.Errorf("production environment requires Supabase configuration: SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY, and SUPABASE_STORAGE_BUCKET must be set")
		}
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
		if err != nil {
			if cfg.AppEnv == "production" {
				return nil, fmt.Errorf("failed to initialize Supabase client in production: %w", err)
			}
			s.log.LogWarnf("failed to initialize Supabase client: %v", err)
		} else {
			s.supabaseClient = client
		}
	}
	return s, nil
}

func (s *Service) Enqueue(ctx context.Context, t *tasks.Client, req Request) (string, error) {
	jobID := uuid.NewString()
	payload, _ := json.Marshal(Payload{JobID: jobID, Request: req})
	if err := s.jobs.InitPending(ctx, jobID, req.URL); err != nil {
		return "", err
	}
	task := asynq.NewTask(TaskTypeSnapshot, payload)
	if err := t.Enqueue(task, "default", s.cfg.TaskMaxRetries); err != nil {
		return "", err
	}
	return jobID, nil
}

func (s *Service) HandleTask(ctx context.Context, task *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return err
	}
	if err := s.jobs.SetProcessing(ctx, p.JobID); err != nil {
		return err
	}
	res, err := s.take(ctx, p.Request)
	if err != nil {
		s.log.LogErrorf("snapshot job %s failed: %v", p.JobID, err)
		return s.jobs.Complete(ctx, p.JobID, job.StatusFailed, &job.SnapshotResult{URL: p.Request.URL})
	}
	jr := &job.SnapshotResult{
		URL:              p.Request.URL,
		Path:             res.Path,
		PublicURL:        res.PublicURL,
		ThumbnailURL:     res.ThumbnailURL,
		IsVideoThumbnail: res.IsVideoThumbnail,
		Metadata:         res.Metadata,
		Log:              res.Log,
	}
	return s.jobs.Complete(ctx, p.JobID, job.StatusCompleted, jr)
}

// Result is the outcome of one capture. Bytes is populated for image
// decisions so streaming responses need not re-read storage.
type Result struct {
	Path             string
	PublicURL        string
	ThumbnailURL     string
	IsVideoThumbnail bool
	Bytes            []byte
	Format           string
	Metadata         job.SnapshotMetadata
	Log              []string
}

func (s *Service) take(ctx context.Context, r Request) (Result, error) {
	// Avoid font loading delays during capture
	os.Setenv("PW_TEST_SCREENSHOT_NO_FONTS_READY", "1")
	defer os.Unsetenv("PW_TEST_SCREENSHOT_NO_FONTS_READY")

	session, err := browser.StartSession(browser.LaunchOptions{
		IgnoreHTTPS: s.getBool(r.IgnoreHTTPS, false),
	})
	if err != nil {
		return Result{}, err
	}
	defer session.Close()

	page, err := session.NewPage(s.contextOptions(r))
	if err != nil {
		return Result{}, err
	}
	defer page.Close()

	timeoutMs := 30000
	if t := s.getInt(r.Timeout, 0); t > 0 {
		timeoutMs = t * 1000
	}
	s.log.LogDebugf("navigating to %s", r.URL)
	if err := page.Navigate(r.URL, s.getString(r.WaitUntil, "domcontentloaded"), timeoutMs); err != nil {
		return Result{}, err
	}

	// Hide caller-specified elements before any heuristics run
	for _, selector := range s.getStringSlice(r.HideSelectors, nil) {
		if _, err := page.Evaluate(fmt.Sprintf(
			`document.querySelectorAll('%s').forEach(el => el.style.display = 'none')`, selector)); err != nil {
			s.log.LogWarnf("failed to hide selector %s: %v", selector, err)
		}
	}

	if s.getBool(r.HandleBanners, true) {
		if s.getBool(r.InjectBannerCSS, false) {
			banner.InjectBlocklist(page)
		}
		bannerTimeout := time.Duration(s.getInt(r.BannerTimeoutMs, s.cfg.BannerTimeoutMs)) * time.Millisecond
		dismissed := s.banners.Run(page, bannerTimeout)
		if custom := s.getStringSlice(r.CustomBannerSelectors, nil); len(custom) > 0 {
			dismissed += s.banners.HandleCustom(page, custom)
		}
		if dismissed > 0 {
			s.log.LogDebugf("dismissed %d banner(s) on %s", dismissed, r.URL)
		}
	}

	if delay := s.getInt(r.Delay, 0); delay > 0 {
		page.WaitForQuiet(delay * 1000)
	} else {
		page.WaitForQuiet(5000)
	}

	format := strings.ToLower(s.getString(r.Format, "png"))
	if format == "jpg" {
		format = "jpeg"
	}
	opts := CaptureOptions{
		Format:                format,
		Quality:               s.getInt(r.Quality, 85),
		FullPage:              s.getBool(r.FullPage, false),
		DetectVideoThumbnails: s.getBool(r.DetectVideoThumbnails, true),
	}

	start := time.Now()
	decision, err := s.orch.ProduceImageOrURL(ctx, page, opts)
	if err != nil {
		return Result{}, err
	}
	loadTime := int(time.Since(start).Milliseconds())

	if decision.Kind == DecisionURL {
		s.log.LogInfof("snapshot for %s resolved to thumbnail url %s", r.URL, decision.URL)
		return Result{
			ThumbnailURL:     decision.URL,
			IsVideoThumbnail: true,
			Format:           format,
			Metadata:         job.SnapshotMetadata{Format: format, LoadTime: loadTime},
			Log:              decision.Log,
		}, nil
	}

	fileSize := len(decision.Bytes)
	if fileSize > 10*1024*1024 {
		s.log.LogWarnf("large snapshot: %d bytes for %s", fileSize, r.URL)
	}

	path, public, err := s.save(decision.Bytes, r, format)
	if err != nil {
		s.log.LogErrorf("failed to save snapshot: %v", err)
		return Result{}, fmt.Errorf("snapshot save failed: %w", err)
	}

	meta := job.SnapshotMetadata{
		Width:    s.getInt(r.Width, 1920),
		Height:   s.getInt(r.Height, 1080),
		Format:   format,
		FileSize: fileSize,
		LoadTime: loadTime,
	}
	s.log.LogInfof("snapshot completed for %s: %s", r.URL, public)
	return Result{
		Path:             path,
		PublicURL:        public,
		IsVideoThumbnail: decision.IsVideoThumbnail,
		Bytes:            decision.Bytes,
		Format:           format,
		Metadata:         meta,
		Log:              decision.Log,
	}, nil
}

func (s *Service) contextOptions(r Request) browser.ContextOptions {
	return browser.ContextOptions{
		Device:        s.getString(r.Device, "desktop"),
		Width:         s.getInt(r.Width, 0),
		Height:        s.getInt(r.Height, 0),
		DeviceScale:   s.getFloat(r.DeviceScale, 0),
		IsMobile:      s.getBool(r.IsMobile, false),
		HasTouch:      s.getBool(r.HasTouch, false),
		IsLandscape:   s.getBool(r.IsLandscape, false),
		UserAgent:     s.getString(r.UserAgent, ""),
		Headers:       s.getStringMap(r.Headers, nil),
		IgnoreHTTPS:   s.getBool(r.IgnoreHTTPS, false),
		DarkMode:      s.getBool(r.DarkMode, false),
		ReducedMotion: s.getBool(r.ReducedMotion, false),
		BlockAds:      s.getBool(r.BlockAds, false),
		BlockCookies:  s.getBool(r.BlockCookies, false),
		BlockChats:    s.getBool(r.BlockChats, false),
		BlockTrackers: s.getBool(r.BlockTrackers, false),
	}
}

// Helper methods for safely dereferencing pointers
func (s *Service) getBool(ptr *bool, def bool) bool {
	if ptr == nil {
		return def
	}
	return *ptr
}

func (s *Service) getInt(ptr *int, def int) int {
	if ptr == nil {
		return def
	}
	return *ptr
}

func (s *Service) getFloat(ptr *float64, def float64) float64 {
	if ptr == nil {
		return def
	}
	return *ptr
}

func (s *Service) getString(ptr *string, def string) string {
	if ptr == nil {
		return def
	}
	return *ptr
}

func (s *Service) getStringSlice(ptr *[]string, def []string) []string {
	if ptr == nil {
		return def
	}
	return *ptr
}

func (s *Service) getStringMap(ptr *map[string]string, def map[string]string) map[string]string {
	if ptr == nil {
		return def
	}
	return *ptr
}

func (s *Service) save(data []byte, r Request, format string) (string, string, error) {
	if s.supabaseClient != nil && s.cfg.SupabaseBucket != "" && s.cfg.SupabaseURL != "" && s.cfg.SupabaseServiceKey != "" {
		name := time.Now().Format("20060102_150405") + "_" + sanitize(r.URL) + "." + format
		bucketPath := filepath.ToSlash(filepath.Join("snapshots", name))

		mimeType := mime.TypeByExtension(filepath.Ext(bucketPath))
		if mimeType == "" {
			if format == "jpeg" {
				mimeType = "image/jpeg"
			} else {
				mimeType = "image/png"
			}
		}

		reader := bytes.NewReader(data)
		if _, err := s.supabaseClient.Storage.UploadFile(s.cfg.SupabaseBucket, bucketPath, reader, storage_go.FileOptions{ContentType: &mimeType}); err != nil {
			s.log.LogWarnf("Supabase upload failed: %v", err)
			if s.cfg.AppEnv == "production" {
				return "", "", fmt.Errorf("failed to upload snapshot to Supabase storage in production: %w", err)
			}
			return s.saveLocal(data, r, format)
		}

		signed, err := s.createSignedURL(s.cfg.SupabaseBucket, bucketPath, 15*60)
		if err != nil {
			s.log.LogWarnf("Supabase signed URL creation failed: %v", err)
			if s.cfg.AppEnv == "production" {
				return "", "", fmt.Errorf("failed to create signed URL for snapshot in production: %w", err)
			}
			return s.saveLocal(data, r, format)
		}
		return "", signed, nil
	}

	if s.cfg.AppEnv == "production" {
		return "", "", fmt.Errorf("supabase storage is required in production environment")
	}
	return s.saveLocal(data, r, format)
}

func (s *Service) saveLocal(data []byte, r Request, format string) (string, string, error) {
	_ = os.MkdirAll(filepath.Join(s.cfg.DataDir, "snapshots"), 0o755)
	name := time.Now().Format("20060102_150405") + "_" + sanitize(r.URL) + "." + format
	path := filepath.Join(s.cfg.DataDir, "snapshots", name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", err
	}
	return path, "/files/snapshots/" + name, nil
}

// createSignedURL performs a direct REST call to sign objects with fresh headers
func (s *Service) createSignedURL(bucket string, objectPath string, expiresIn int) (string, error) {
	if s.cfg.SupabaseURL == "" {
		return "", fmt.Errorf("supabase URL not configured")
	}
	serviceKey := s.cfg.SupabaseServiceKey
	if serviceKey == "" {
		return "", fmt.Errorf("supabase service key not configured")
	}

	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", strings.TrimRight(s.cfg.SupabaseURL, "/"), bucket, objectPath)
	body := map[string]int{"expiresIn": expiresIn}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return "", fmt.Errorf("failed to encode sign body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, signURL, buf)
	if err != nil {
		return "", fmt.Errorf("failed to build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+serviceKey)
	req.Header.Set("apikey", serviceKey)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request signed URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to create signed URL: status %d", resp.StatusCode)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("failed to decode signed URL response: %w", err)
	}

	base := strings.TrimRight(s.cfg.SupabaseURL, "/")
	path := signed.SignedURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, "/storage/v1/") {
		path = "/storage/v1" + path
	}
	finalURL := base + path
	if s.cfg.AppEnv == "local" || s.cfg.AppEnv == "development" {
		finalURL = strings.Replace(finalURL, "host.docker.internal", "127.0.0.1", 1)
	}
	return finalURL, nil
}

func sanitize(u string) string {
	replacer := strings.NewReplacer(":", "-", "/", "-", "?", "-", "&", "-", "=", "-", "#", "-", "%", "")
	out := replacer.Replace(u)
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}

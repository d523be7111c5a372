// Package tiktok implements the live video upload provider.
package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/providers"
	"reelsmith/internal/services"
)

const (
	defaultBaseURL     = "https://open.tiktokapis.com/v2"
	defaultHTTPTimeout = 60 * time.Second
)

// Config captures the runtime settings required to upload to TikTok.
type Config struct {
	ClientKey    string
	ClientSecret string
	AccessToken  string
	OpenID       string
	BaseURL      string
	MinInterval  time.Duration
}

// Client uploads rendered videos as TikTok inbox drafts.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	retry      providers.RetryPolicy
	clock      providers.Clock
	limiter    *providers.RateLimiter
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the clock used for retry and rate-limit sleeps.
func WithClock(clock providers.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClient constructs a live TikTok client. Missing credentials fail here
// rather than mid-batch, and construction logs a conspicuous banner so live
// runs stand out in operator logs.
func NewClient(cfg Config, retry providers.RetryPolicy, logger *slog.Logger, opts ...Option) (*Client, error) {
	cfg.ClientKey = strings.TrimSpace(cfg.ClientKey)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.ClientKey == "" || cfg.ClientSecret == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "tiktok client", "client key and secret required in live mode", nil)
	}
	if cfg.AccessToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "tiktok client", "access token required in live mode", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logging.WithComponent(logger, "tiktok"),
		retry:      retry,
		clock:      providers.SystemClock{},
		limiter:    providers.NewRateLimiter(cfg.MinInterval),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger.Warn("TIKTOK LIVE MODE ENABLED",
		logging.String(logging.FieldProvider, "tiktok"),
		logging.String("client_key", cfg.ClientKey),
	)
	return client, nil
}

type initUploadResponse struct {
	UploadID string `json:"upload_id"`
	Data     struct {
		UploadID string `json:"upload_id"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

type uploadResponse struct {
	ShareURL string `json:"share_url"`
	Data     struct {
		ShareURL string `json:"share_url"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) fatal() bool {
	return e != nil && e.Code != "" && e.Code != "ok"
}

// UploadVideo publishes the rendered video as an inbox draft. The flow is
// init then upload, with the run-wide rate limiter spacing both calls.
func (c *Client) UploadVideo(ctx context.Context, req providers.UploadRequest) (providers.UploadResult, error) {
	videoBytes, err := os.ReadFile(req.VideoPath)
	if err != nil {
		return providers.UploadResult{}, services.Wrap(services.ErrConfiguration, "upload", "tiktok upload", "read video file", err)
	}

	uploadID, err := c.initUpload(ctx, req.ItemSlug)
	if err != nil {
		return providers.UploadResult{}, err
	}

	shareURL, err := c.uploadBytes(ctx, req.ItemSlug, uploadID, filepath.Base(req.VideoPath), videoBytes)
	if err != nil {
		return providers.UploadResult{}, err
	}
	return providers.UploadResult{UploadID: uploadID, ShareURL: shareURL}, nil
}

func (c *Client) initUpload(ctx context.Context, slug string) (string, error) {
	payload := map[string]any{"open_id": c.cfg.OpenID, "draft": true}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrProviderFatal, "upload", "tiktok init", "encode body", err)
	}

	var parsed initUploadResponse
	err = providers.Retry(ctx, c.clock, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+"/post/publish/inbox/video/init/", bytes.NewReader(encoded))
		if err != nil {
			return fmt.Errorf("tiktok init: new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, slug, &parsed)
	})
	if err != nil {
		return "", classify(err, "tiktok init")
	}
	if parsed.Error.fatal() {
		return "", services.Wrap(services.ErrProviderFatal, "upload", "tiktok init", parsed.Error.Message, nil)
	}
	uploadID := parsed.UploadID
	if uploadID == "" {
		uploadID = parsed.Data.UploadID
	}
	if uploadID == "" {
		return "", services.Wrap(services.ErrProviderFatal, "upload", "tiktok init", "response missing upload id", nil)
	}
	return uploadID, nil
}

func (c *Client) uploadBytes(ctx context.Context, slug, uploadID, filename string, videoBytes []byte) (string, error) {
	var parsed uploadResponse
	err := providers.Retry(ctx, c.clock, c.retry, func() error {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("video", filename)
		if err != nil {
			return fmt.Errorf("tiktok upload: build form: %w", err)
		}
		if _, err := part.Write(videoBytes); err != nil {
			return fmt.Errorf("tiktok upload: write form: %w", err)
		}
		if err := writer.WriteField("open_id", c.cfg.OpenID); err != nil {
			return fmt.Errorf("tiktok upload: write field: %w", err)
		}
		if err := writer.WriteField("upload_id", uploadID); err != nil {
			return fmt.Errorf("tiktok upload: write field: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("tiktok upload: close form: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+"/post/publish/inbox/video/upload/", &body)
		if err != nil {
			return fmt.Errorf("tiktok upload: new request: %w", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return c.do(req, slug, &parsed)
	})
	if err != nil {
		return "", classify(err, "tiktok upload")
	}
	if parsed.Error.fatal() {
		return "", services.Wrap(services.ErrProviderFatal, "upload", "tiktok upload", parsed.Error.Message, nil)
	}
	shareURL := parsed.ShareURL
	if shareURL == "" {
		shareURL = parsed.Data.ShareURL
	}
	return shareURL, nil
}

func (c *Client) do(req *http.Request, slug string, out any) error {
	if err := c.limiter.Wait(req.Context(), c.clock); err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	c.logger.Info("calling tiktok",
		logging.String(logging.FieldEventType, logging.EventLiveCall),
		logging.String(logging.FieldProvider, "tiktok"),
		logging.String(logging.FieldItemSlug, slug),
		logging.String("url", req.URL.String()),
	)

	resp, err := c.httpClient.Do(req)
	c.limiter.Mark(c.clock)
	if err != nil {
		return fmt.Errorf("tiktok request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tiktok request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.Penalize()
		}
		retryAfter, _ := providers.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return &providers.HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tiktok request: decode response: %w", err)
	}
	return nil
}

func classify(err error, op string) error {
	var statusErr *providers.HTTPStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError {
			return services.Wrap(services.ErrTransient, "upload", op, statusErr.Error(), nil)
		}
		return services.Wrap(services.ErrProviderFatal, "upload", op, statusErr.Error(), nil)
	}
	if services.Retryable(err) {
		return err
	}
	return services.Wrap(services.ErrTransient, "upload", op, "request failed", err)
}

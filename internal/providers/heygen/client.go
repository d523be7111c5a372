// Package heygen implements the live avatar rendering provider.
package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/providers"
	"reelsmith/internal/services"
)

const (
	defaultBaseURL     = "https://api.heygen.com/v2"
	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the runtime settings required to talk to HeyGen.
type Config struct {
	APIKey      string
	BaseURL     string
	AvatarID    string
	VoiceID     string
	MinInterval time.Duration
}

// Client submits render jobs to the HeyGen video API and polls their status.
// The limiter is shared across submit and poll calls so a 429 penalty widens
// for the remainder of the run instead of resetting per call.
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

// WithClock overrides the clock used for retry sleeps.
func WithClock(clock providers.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClient constructs a live HeyGen client. Missing credentials fail here
// rather than mid-batch.
func NewClient(cfg Config, retry providers.RetryPolicy, logger *slog.Logger, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "render", "heygen client", "api key required in live mode", nil)
	}
	if cfg.AvatarID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "render", "heygen client", "avatar id required in live mode", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logging.WithComponent(logger, "heygen"),
		retry:      retry,
		clock:      providers.SystemClock{},
		limiter:    providers.NewRateLimiter(cfg.MinInterval),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type renderRequestPayload struct {
	ScriptText string `json:"script_text"`
	AvatarID   string `json:"avatar_id"`
	VoiceID    string `json:"voice_id,omitempty"`
}

type renderResponse struct {
	VideoID string `json:"video_id"`
	Data    struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type statusResponse struct {
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
	Data    struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
	} `json:"data"`
	VideoURL string `json:"video_url"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// RenderAvatar submits the script for rendering and returns the pending job.
func (c *Client) RenderAvatar(ctx context.Context, req providers.RenderRequest) (providers.RenderJob, error) {
	if strings.TrimSpace(req.ScriptText) == "" {
		return providers.RenderJob{}, services.Wrap(services.ErrConfiguration, "render", "heygen render", "script text required", nil)
	}
	payload := renderRequestPayload{
		ScriptText: req.ScriptText,
		AvatarID:   c.cfg.AvatarID,
		VoiceID:    c.cfg.VoiceID,
	}

	var parsed renderResponse
	err := providers.Retry(ctx, c.clock, c.retry, func() error {
		return c.postJSON(ctx, c.cfg.BaseURL+"/videos/createByText", req.ItemSlug, payload, &parsed)
	})
	if err != nil {
		return providers.RenderJob{}, classify(err, "render", "heygen render")
	}
	if parsed.Error != nil {
		return providers.RenderJob{}, services.Wrap(services.ErrProviderFatal, "render", "heygen render", parsed.Error.Message, nil)
	}
	videoID := parsed.VideoID
	if videoID == "" {
		videoID = parsed.Data.VideoID
	}
	if videoID == "" {
		return providers.RenderJob{}, services.Wrap(services.ErrProviderFatal, "render", "heygen render", "response missing video id", nil)
	}
	return providers.RenderJob{ProviderRequestID: videoID, Status: providers.StatusPending}, nil
}

// PollStatus fetches the current render job state.
func (c *Client) PollStatus(ctx context.Context, providerRequestID string) (providers.RenderJob, error) {
	var parsed statusResponse
	err := providers.Retry(ctx, c.clock, c.retry, func() error {
		return c.getJSON(ctx, c.cfg.BaseURL+"/videos/"+providerRequestID, providerRequestID, &parsed)
	})
	if err != nil {
		return providers.RenderJob{}, classify(err, "render", "heygen poll")
	}
	if parsed.Error != nil {
		return providers.RenderJob{}, services.Wrap(services.ErrProviderFatal, "render", "heygen poll", parsed.Error.Message, nil)
	}
	status := parsed.Status
	if status == "" {
		status = parsed.Data.Status
	}
	resultURI := parsed.VideoURL
	if resultURI == "" {
		resultURI = parsed.Data.VideoURL
	}
	return providers.RenderJob{
		ProviderRequestID: providerRequestID,
		Status:            mapStatus(status),
		ResultURI:         resultURI,
	}, nil
}

func mapStatus(raw string) providers.JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "complete", "done", "success":
		return providers.StatusComplete
	case "failed", "error":
		return providers.StatusFailed
	case "processing", "rendering":
		return providers.StatusProcessing
	default:
		return providers.StatusPending
	}
}

func (c *Client) postJSON(ctx context.Context, url, slug string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("heygen request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("heygen request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, slug, out)
}

func (c *Client) getJSON(ctx context.Context, url, slug string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("heygen request: new request: %w", err)
	}
	return c.do(req, slug, out)
}

func (c *Client) do(req *http.Request, slug string, out any) error {
	if err := c.limiter.Wait(req.Context(), c.clock); err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Info("calling heygen",
		logging.String(logging.FieldEventType, logging.EventLiveCall),
		logging.String(logging.FieldProvider, "heygen"),
		logging.String(logging.FieldItemSlug, slug),
		logging.String("url", req.URL.String()),
	)

	resp, err := c.httpClient.Do(req)
	c.limiter.Mark(c.clock)
	if err != nil {
		return fmt.Errorf("heygen request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("heygen request: read body: %w", err)
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
		return fmt.Errorf("heygen request: decode response: %w", err)
	}
	return nil
}

// classify converts transport-level failures into the shared error taxonomy
// once retries are exhausted.
func classify(err error, stage, op string) error {
	var statusErr *providers.HTTPStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError {
			return services.Wrap(services.ErrTransient, stage, op, statusErr.Error(), nil)
		}
		return services.Wrap(services.ErrProviderFatal, stage, op, statusErr.Error(), nil)
	}
	if services.Retryable(err) {
		return err
	}
	return services.Wrap(services.ErrTransient, stage, op, "request failed", err)
}

package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

const defaultHTTPTimeout = 10 * time.Second

// Client fetches entity status from the live roster API with an on-disk JSON
// cache so a week's batch does not hammer the provider.
type Client struct {
	baseURL    string
	cacheDir   string
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
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

// WithNow overrides the clock used for cache freshness (useful for tests).
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a live roster client.
func NewClient(baseURL, cacheDir string, cacheTTL time.Duration, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		cacheDir:   cacheDir,
		cacheTTL:   cacheTTL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logging.WithComponent(logger, "roster"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type playerRecord struct {
	FullName     string `json:"full_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Status       string `json:"status"`
	InjuryStatus string `json:"injury_status"`
}

type cacheFile struct {
	CachedAt time.Time               `json:"cached_at"`
	Players  map[string]playerRecord `json:"players"`
}

// Availability implements Source by resolving the entity in the cached player
// table. Entities the provider does not know are treated as available with an
// unknown status rather than blocking the item.
func (c *Client) Availability(ctx context.Context, entity string, _ int) (Availability, error) {
	players, err := c.players(ctx)
	if err != nil {
		return Availability{}, err
	}

	target := normalizeName(entity)
	for _, record := range players {
		if normalizeName(record.FullName) == target ||
			normalizeName(record.FirstName+" "+record.LastName) == target {
			status := record.Status
			if record.InjuryStatus != "" {
				status = record.InjuryStatus
			}
			return Classify(status), nil
		}
	}
	return Available("unknown"), nil
}

func (c *Client) players(ctx context.Context) (map[string]playerRecord, error) {
	if cached := c.loadCache(); cached != nil {
		return cached.Players, nil
	}

	url := c.baseURL + "/v1/players/nfl"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrProviderFatal, "roster", "fetch players", "build request", err)
	}

	c.logger.Info("fetching roster data",
		logging.String(logging.FieldEventType, logging.EventLiveCall),
		logging.String(logging.FieldProvider, "roster"),
		logging.String("url", url),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "roster", "fetch players", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "roster", "fetch players", "read body", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, services.Wrap(services.ErrTransient, "roster", "fetch players", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, services.Wrap(services.ErrProviderFatal, "roster", "fetch players", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var players map[string]playerRecord
	if err := json.Unmarshal(body, &players); err != nil {
		return nil, services.Wrap(services.ErrProviderFatal, "roster", "fetch players", "decode response", err)
	}

	c.saveCache(&cacheFile{CachedAt: c.now().UTC(), Players: players})
	return players, nil
}

func (c *Client) cachePath() string {
	return filepath.Join(c.cacheDir, "players.json")
}

func (c *Client) loadCache() *cacheFile {
	if c.cacheDir == "" {
		return nil
	}
	data, err := os.ReadFile(c.cachePath())
	if err != nil {
		return nil
	}
	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	if c.now().Sub(cached.CachedAt) > c.cacheTTL {
		return nil
	}
	return &cached
}

// saveCache is best-effort; a cold cache only costs an extra fetch.
func (c *Client) saveCache(cached *cacheFile) {
	if c.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	tmp := c.cachePath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, c.cachePath())
}

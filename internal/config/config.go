package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir      string `toml:"output_dir"`
	LogDir         string `toml:"log_dir"`
	TemplateDir    string `toml:"template_dir"`
	RosterCacheDir string `toml:"roster_cache_dir"`
}

// Guardrails contains the content policy defaults applied to generated scripts.
type Guardrails struct {
	MaxWords int    `toml:"max_words"`
	Mode     string `toml:"mode"` // "fail" or "trim"; overridable per invocation
}

// HeyGen contains configuration for the avatar rendering provider.
type HeyGen struct {
	Live            bool   `toml:"live"`
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	AvatarID        string `toml:"avatar_id"`
	VoiceID         string `toml:"voice_id"`
	PollInterval    int    `toml:"poll_interval"`     // seconds between status polls
	PollMaxAttempts int    `toml:"poll_max_attempts"` // polls before the job times out
	MinIntervalM    int    `toml:"min_interval_ms"`   // outbound call spacing
}

// TikTok contains configuration for the social upload provider.
type TikTok struct {
	Live         bool   `toml:"live"`
	ClientKey    string `toml:"client_key"`
	ClientSecret string `toml:"client_secret"`
	AccessToken  string `toml:"access_token"`
	OpenID       string `toml:"open_id"`
	BaseURL      string `toml:"base_url"`
	MinIntervalM int    `toml:"min_interval_ms"` // outbound call spacing
}

// Providers groups provider selection. SimulateAll is the kill switch that
// forces every provider into simulated mode regardless of per-provider flags.
type Providers struct {
	SimulateAll bool   `toml:"simulate_all"`
	HeyGen      HeyGen `toml:"heygen"`
	TikTok      TikTok `toml:"tiktok"`
}

// Roster contains configuration for the entity availability source.
type Roster struct {
	Live          bool              `toml:"live"`
	BaseURL       string            `toml:"base_url"`
	CacheTTLHours int               `toml:"cache_ttl_hours"`
	Unavailable   map[string]string `toml:"unavailable"` // entity -> status, consumed by the simulated source
}

// Workflow contains batch execution tuning.
type Workflow struct {
	Workers           int `toml:"workers"`
	RetryMaxAttempts  int `toml:"retry_max_attempts"`
	RetryBaseDelayMs  int `toml:"retry_base_delay_ms"`
	RetryMaxDelayMs   int `toml:"retry_max_delay_ms"`
	RunTimeoutMinutes int `toml:"run_timeout_minutes"` // 0 disables the run-level timeout
}

// Export contains scheduler export cadence settings.
type Export struct {
	Timezone   string   `toml:"timezone"`
	DailyQuota int      `toml:"daily_quota"`
	PostTimes  []string `toml:"post_times"` // "HH:MM"; empty means evenly spaced 09:00-20:00
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Batch          bool   `toml:"batch"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: output, log, template, and roster cache directories
//   - Guardrails: script length policy defaults
//   - Providers: simulated/live selection plus per-provider settings
//   - Roster: entity availability source
//   - Workflow: worker pool size, retry ceilings, run timeout
//   - Export: scheduler export timezone and cadence
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Guardrails    Guardrails    `toml:"guardrails"`
	Providers     Providers     `toml:"providers"`
	Roster        Roster        `toml:"roster"`
	Workflow      Workflow      `toml:"workflow"`
	Export        Export        `toml:"export"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories batch runs write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.RosterCacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WeekDir returns the output directory for one week's artifacts.
func (c *Config) WeekDir(week int) string {
	return filepath.Join(c.Paths.OutputDir, fmt.Sprintf("week-%d", week))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath resolves ~ and relative segments for user-supplied paths.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// CreateSample writes the embedded sample configuration to the target path.
func CreateSample(target string) error {
	if err := os.WriteFile(target, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGuardrails()
	c.normalizeProviders()
	c.normalizeRoster()
	c.normalizeWorkflow()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RosterCacheDir) == "" {
		c.Paths.RosterCacheDir = defaultRosterCacheDir
	}
	if c.Paths.RosterCacheDir, err = expandPath(c.Paths.RosterCacheDir); err != nil {
		return fmt.Errorf("paths.roster_cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TemplateDir) != "" {
		if c.Paths.TemplateDir, err = expandPath(c.Paths.TemplateDir); err != nil {
			return fmt.Errorf("paths.template_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeGuardrails() {
	c.Guardrails.Mode = strings.ToLower(strings.TrimSpace(c.Guardrails.Mode))
	if c.Guardrails.Mode == "" {
		c.Guardrails.Mode = defaultGuardrailMode
	}
	if c.Guardrails.MaxWords <= 0 {
		c.Guardrails.MaxWords = defaultGuardrailWords
	}
}

func (c *Config) normalizeProviders() {
	hg := &c.Providers.HeyGen
	if hg.APIKey == "" {
		if value, ok := os.LookupEnv("HEYGEN_API_KEY"); ok {
			hg.APIKey = value
		}
	}
	if strings.TrimSpace(hg.BaseURL) == "" {
		hg.BaseURL = defaultHeyGenBaseURL
	}
	if strings.TrimSpace(hg.AvatarID) == "" {
		hg.AvatarID = defaultHeyGenAvatarID
	}
	if hg.PollInterval <= 0 {
		hg.PollInterval = defaultPollInterval
	}
	if hg.PollMaxAttempts <= 0 {
		hg.PollMaxAttempts = defaultPollMaxAttempts
	}
	if hg.MinIntervalM <= 0 {
		hg.MinIntervalM = defaultHeyGenIntervalMs
	}

	tt := &c.Providers.TikTok
	if tt.ClientKey == "" {
		if value, ok := os.LookupEnv("TIKTOK_CLIENT_KEY"); ok {
			tt.ClientKey = value
		}
	}
	if tt.ClientSecret == "" {
		if value, ok := os.LookupEnv("TIKTOK_CLIENT_SECRET"); ok {
			tt.ClientSecret = value
		}
	}
	if strings.TrimSpace(tt.BaseURL) == "" {
		tt.BaseURL = defaultTikTokBaseURL
	}
	if tt.MinIntervalM <= 0 {
		tt.MinIntervalM = defaultTikTokIntervalMs
	}
}

func (c *Config) normalizeRoster() {
	if strings.TrimSpace(c.Roster.BaseURL) == "" {
		c.Roster.BaseURL = defaultRosterBaseURL
	}
	if c.Roster.CacheTTLHours <= 0 {
		c.Roster.CacheTTLHours = defaultRosterCacheTTL
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.RetryMaxAttempts <= 0 {
		c.Workflow.RetryMaxAttempts = defaultRetryAttempts
	}
	if c.Workflow.RetryBaseDelayMs <= 0 {
		c.Workflow.RetryBaseDelayMs = defaultRetryBaseDelayMs
	}
	if c.Workflow.RetryMaxDelayMs <= 0 {
		c.Workflow.RetryMaxDelayMs = defaultRetryMaxDelayMs
	}
}

func (c *Config) normalizeExport() {
	if strings.TrimSpace(c.Export.Timezone) == "" {
		c.Export.Timezone = defaultExportTimezone
	}
	if c.Export.DailyQuota <= 0 {
		c.Export.DailyQuota = defaultDailyQuota
	}
	times := make([]string, 0, len(c.Export.PostTimes))
	for _, value := range c.Export.PostTimes {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			times = append(times, trimmed)
		}
	}
	c.Export.PostTimes = times
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

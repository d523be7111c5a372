package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGuardrails(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateGuardrails() error {
	switch c.Guardrails.Mode {
	case "fail", "trim":
	default:
		return fmt.Errorf("guardrails.mode must be %q or %q, got %q", "fail", "trim", c.Guardrails.Mode)
	}
	if c.Guardrails.MaxWords <= 0 {
		return errors.New("guardrails.max_words must be positive")
	}
	return nil
}

// validateProviders checks that live providers carry complete credentials.
// Partial credentials must be rejected at load time so a live call is never
// attempted with them (discovering the gap mid-call is not acceptable).
func (c *Config) validateProviders() error {
	if c.Providers.SimulateAll {
		return nil
	}
	if c.Providers.HeyGen.Live {
		if strings.TrimSpace(c.Providers.HeyGen.APIKey) == "" {
			return errors.New("providers.heygen.api_key must be set when providers.heygen.live is true (or set providers.simulate_all)")
		}
	}
	if c.Providers.TikTok.Live {
		tt := c.Providers.TikTok
		for name, value := range map[string]string{
			"providers.tiktok.client_key":    tt.ClientKey,
			"providers.tiktok.client_secret": tt.ClientSecret,
			"providers.tiktok.access_token":  tt.AccessToken,
			"providers.tiktok.open_id":       tt.OpenID,
		} {
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("%s must be set when providers.tiktok.live is true", name)
			}
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.workers":             c.Workflow.Workers,
		"workflow.retry_max_attempts":  c.Workflow.RetryMaxAttempts,
		"workflow.retry_base_delay_ms": c.Workflow.RetryBaseDelayMs,
		"workflow.retry_max_delay_ms":  c.Workflow.RetryMaxDelayMs,
		"providers.heygen.poll_interval":     c.Providers.HeyGen.PollInterval,
		"providers.heygen.poll_max_attempts": c.Providers.HeyGen.PollMaxAttempts,
	}); err != nil {
		return err
	}
	if c.Workflow.RunTimeoutMinutes < 0 {
		return errors.New("workflow.run_timeout_minutes must not be negative")
	}
	return nil
}

func (c *Config) validateExport() error {
	if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
		return fmt.Errorf("export.timezone: unknown timezone %q", c.Export.Timezone)
	}
	if c.Export.DailyQuota <= 0 {
		return errors.New("export.daily_quota must be positive")
	}
	for _, value := range c.Export.PostTimes {
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("export.post_times: %q is not a valid HH:MM time", value)
		}
	}
	if len(c.Export.PostTimes) > 0 && len(c.Export.PostTimes) < c.Export.DailyQuota {
		return errors.New("export.post_times must list at least export.daily_quota entries")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

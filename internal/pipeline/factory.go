package pipeline

import (
	"log/slog"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/providers"
	"reelsmith/internal/providers/heygen"
	"reelsmith/internal/providers/tiktok"
	"reelsmith/internal/roster"
)

// RetryPolicyFromConfig maps workflow tuning onto the provider retry policy.
func RetryPolicyFromConfig(cfg config.Workflow) providers.RetryPolicy {
	policy := providers.DefaultRetryPolicy()
	if cfg.RetryMaxAttempts > 0 {
		policy.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryBaseDelayMs > 0 {
		policy.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
	}
	if cfg.RetryMaxDelayMs > 0 {
		policy.MaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
	}
	return policy
}

// NewAvatarRenderer selects the render provider. SimulateAll is the kill
// switch: when set, per-provider live flags are ignored.
func NewAvatarRenderer(cfg *config.Config, logger *slog.Logger) (providers.AvatarRenderer, error) {
	if cfg.Providers.SimulateAll || !cfg.Providers.HeyGen.Live {
		return providers.NewSimulatedRenderer(), nil
	}
	return heygen.NewClient(heygen.Config{
		APIKey:      cfg.Providers.HeyGen.APIKey,
		BaseURL:     cfg.Providers.HeyGen.BaseURL,
		AvatarID:    cfg.Providers.HeyGen.AvatarID,
		VoiceID:     cfg.Providers.HeyGen.VoiceID,
		MinInterval: time.Duration(cfg.Providers.HeyGen.MinIntervalM) * time.Millisecond,
	}, RetryPolicyFromConfig(cfg.Workflow), logger)
}

// NewUploader selects the upload provider under the same kill switch.
func NewUploader(cfg *config.Config, logger *slog.Logger) (providers.Uploader, error) {
	if cfg.Providers.SimulateAll || !cfg.Providers.TikTok.Live {
		return providers.NewSimulatedUploader(), nil
	}
	return tiktok.NewClient(tiktok.Config{
		ClientKey:    cfg.Providers.TikTok.ClientKey,
		ClientSecret: cfg.Providers.TikTok.ClientSecret,
		AccessToken:  cfg.Providers.TikTok.AccessToken,
		OpenID:       cfg.Providers.TikTok.OpenID,
		BaseURL:      cfg.Providers.TikTok.BaseURL,
		MinInterval:  time.Duration(cfg.Providers.TikTok.MinIntervalM) * time.Millisecond,
	}, RetryPolicyFromConfig(cfg.Workflow), logger)
}

// NewRosterSource selects the availability source. Live roster data is
// independent of the provider kill switch since it only reads public data,
// but SimulateAll still forces the simulated source for fully offline runs.
func NewRosterSource(cfg *config.Config, logger *slog.Logger) roster.Source {
	if cfg.Providers.SimulateAll || !cfg.Roster.Live {
		return roster.NewSimulatedSource(cfg.Roster.Unavailable)
	}
	return roster.NewClient(
		cfg.Roster.BaseURL,
		cfg.Paths.RosterCacheDir,
		time.Duration(cfg.Roster.CacheTTLHours)*time.Hour,
		logger,
	)
}

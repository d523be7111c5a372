package config

const (
	defaultOutputDir        = "~/.local/share/reelsmith/out"
	defaultLogDir           = "~/.local/share/reelsmith/logs"
	defaultRosterCacheDir   = "~/.cache/reelsmith/roster"
	defaultGuardrailWords   = 70
	defaultGuardrailMode    = "fail"
	defaultHeyGenBaseURL    = "https://api.heygen.com/v2"
	defaultHeyGenAvatarID   = "default-avatar-id"
	defaultPollInterval     = 5
	defaultPollMaxAttempts  = 60
	defaultHeyGenIntervalMs = 500
	defaultTikTokBaseURL    = "https://open.tiktokapis.com/v2"
	defaultTikTokIntervalMs = 1000
	defaultRosterBaseURL    = "https://api.sleeper.app"
	defaultRosterCacheTTL   = 24
	defaultWorkers          = 2
	defaultRetryAttempts    = 5
	defaultRetryBaseDelayMs = 1000
	defaultRetryMaxDelayMs  = 10000
	defaultExportTimezone   = "America/Los_Angeles"
	defaultDailyQuota       = 2
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:      defaultOutputDir,
			LogDir:         defaultLogDir,
			RosterCacheDir: defaultRosterCacheDir,
		},
		Guardrails: Guardrails{
			MaxWords: defaultGuardrailWords,
			Mode:     defaultGuardrailMode,
		},
		Providers: Providers{
			SimulateAll: true,
			HeyGen: HeyGen{
				BaseURL:         defaultHeyGenBaseURL,
				AvatarID:        defaultHeyGenAvatarID,
				PollInterval:    defaultPollInterval,
				PollMaxAttempts: defaultPollMaxAttempts,
				MinIntervalM:    defaultHeyGenIntervalMs,
			},
			TikTok: TikTok{
				BaseURL:      defaultTikTokBaseURL,
				MinIntervalM: defaultTikTokIntervalMs,
			},
		},
		Roster: Roster{
			BaseURL:       defaultRosterBaseURL,
			CacheTTLHours: defaultRosterCacheTTL,
		},
		Workflow: Workflow{
			Workers:          defaultWorkers,
			RetryMaxAttempts: defaultRetryAttempts,
			RetryBaseDelayMs: defaultRetryBaseDelayMs,
			RetryMaxDelayMs:  defaultRetryMaxDelayMs,
		},
		Export: Export{
			Timezone:   defaultExportTimezone,
			DailyQuota: defaultDailyQuota,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Batch:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

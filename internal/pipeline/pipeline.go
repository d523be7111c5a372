package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/guardrail"
	"reelsmith/internal/logging"
	"reelsmith/internal/manifest"
	"reelsmith/internal/packaging"
	"reelsmith/internal/plan"
	"reelsmith/internal/providers"
	"reelsmith/internal/roster"
	"reelsmith/internal/services"
	"reelsmith/internal/templates"
)

// Options toggles the optional stages for a run and overrides the guardrail
// policy per invocation. Zero values fall back to configuration.
type Options struct {
	Render        bool
	Upload        bool
	MaxWords      int
	GuardrailMode guardrail.Mode
}

// Pipeline runs one planned item through its stages to a terminal manifest
// entry. Safe for concurrent use; the orchestrator shares one instance across
// workers.
type Pipeline struct {
	cfg       *config.Config
	roster    roster.Source
	templates *templates.Resolver
	renderer  providers.AvatarRenderer
	uploader  providers.Uploader
	clock     providers.Clock
	logger    *slog.Logger
	opts      Options
	simulated bool
}

// New assembles a pipeline. Renderer and uploader may be nil when the
// corresponding stage is disabled.
func New(cfg *config.Config, source roster.Source, resolver *templates.Resolver,
	renderer providers.AvatarRenderer, uploader providers.Uploader,
	clock providers.Clock, logger *slog.Logger, opts Options) *Pipeline {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &Pipeline{
		cfg:       cfg,
		roster:    source,
		templates: resolver,
		renderer:  renderer,
		uploader:  uploader,
		clock:     clock,
		logger:    logging.WithComponent(logger, "pipeline"),
		opts:      opts,
		simulated: cfg.Providers.SimulateAll,
	}
}

// Process runs the item to completion. It always returns a terminal entry;
// stage failures and panics become failed entries so one bad item never takes
// down the batch.
func (p *Pipeline) Process(ctx context.Context, item plan.PlannedItem) (entry manifest.Entry) {
	entry = manifest.Entry{
		ItemSlug:    item.Slug,
		ContentKind: item.ContentKind,
		EntityName:  item.EntityName,
		Tags:        []string{},
	}
	ctx = services.WithItemSlug(ctx, item.Slug)
	logger := logging.WithContext(ctx, p.logger)

	defer func() {
		if r := recover(); r != nil {
			entry.Status = manifest.StatusFailed
			entry.ErrorDetail = fmt.Sprintf("panic: %v", r)
			logger.Error("item pipeline panicked", logging.Any("panic", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		entry.Status = manifest.StatusFailed
		entry.ErrorDetail = "run canceled before item started"
		return entry
	}

	availability, err := p.roster.Availability(services.WithStage(ctx, "availability"), item.EntityName, item.WeekNumber)
	if err != nil {
		return p.terminal(logger, entry, "availability check failed", err)
	}
	if !availability.Available {
		blocked := services.Wrap(services.ErrEntityUnavailable, "availability", "entity check", availability.Reason, nil)
		return p.terminal(logger, entry, "item blocked by availability", blocked)
	}

	script, err := p.templates.Render(item.ContentRequest)
	if err != nil {
		return p.terminal(logger, entry, "script rendering failed", err)
	}

	verdict := guardrail.Evaluate(script.Text, p.guardrailPolicy())
	if !verdict.Passed {
		violation := services.Wrap(services.ErrPolicyViolation, "guardrail", "length check", verdict.Reason, nil)
		return p.terminal(logger, entry, "guardrail rejected script", violation)
	}
	scriptText := verdict.Script
	if verdict.Action == guardrail.ActionTrimmed {
		logger.Info("script trimmed to length limit",
			logging.String(logging.FieldStage, "guardrail"),
			logging.String("reason", verdict.Reason),
		)
	}

	weekDir := p.cfg.WeekDir(item.WeekNumber)
	scriptPath, err := writeScript(weekDir, item.Slug, scriptText)
	if err != nil {
		return p.terminal(logger, entry, "script write failed", err)
	}
	entry.ScriptPath = scriptPath

	caption := packaging.Caption(item.ContentKind, item.WeekNumber, scriptText, p.simulated)
	tags := packaging.Hashtags(item.ContentKind, item.WeekNumber)
	entry.Caption = caption
	entry.Tags = tags

	var videoID string
	if p.opts.Render {
		renderCtx := services.WithStage(ctx, "render")
		job, err := p.renderItem(renderCtx, item, scriptText, caption, weekDir)
		if err != nil {
			return p.terminal(logging.WithContext(renderCtx, p.logger), entry, "avatar render failed", err)
		}
		entry.VideoPath = job.ResultURI
		videoID = job.ProviderRequestID
	}

	meta := packaging.BuildMetadata(videoID, item.ContentKind, item.WeekNumber, item.EntityName, caption, tags)
	if _, err := packaging.WriteSidecar(weekDir, item.Slug, meta); err != nil {
		return p.terminal(logger, entry, "metadata write failed", err)
	}

	if p.opts.Upload {
		uploadCtx := services.WithStage(ctx, "upload")
		uploadLogger := logging.WithContext(uploadCtx, p.logger)
		result, err := p.uploader.UploadVideo(uploadCtx, providers.UploadRequest{
			ItemSlug:  item.Slug,
			VideoPath: entry.VideoPath,
			Caption:   caption,
			Tags:      tags,
		})
		if err != nil {
			return p.terminal(uploadLogger, entry, "upload failed", err)
		}
		uploadLogger.Info("item uploaded", logging.String("upload_id", result.UploadID))
	}

	entry.Status = manifest.StatusOK
	logger.Info("item completed", logging.String("script_path", entry.ScriptPath))
	return entry
}

func (p *Pipeline) guardrailPolicy() guardrail.Policy {
	policy := guardrail.Policy{
		MaxWords: p.cfg.Guardrails.MaxWords,
		Mode:     guardrail.Mode(p.cfg.Guardrails.Mode),
	}
	if p.opts.MaxWords > 0 {
		policy.MaxWords = p.opts.MaxWords
	}
	if p.opts.GuardrailMode != "" {
		policy.Mode = p.opts.GuardrailMode
	}
	return policy
}

func (p *Pipeline) renderItem(ctx context.Context, item plan.PlannedItem, scriptText, caption, weekDir string) (providers.RenderJob, error) {
	job, err := p.renderer.RenderAvatar(ctx, providers.RenderRequest{
		ItemSlug:   item.Slug,
		ScriptText: scriptText,
		Caption:    caption,
		OutputDir:  weekDir,
	})
	if err != nil {
		return providers.RenderJob{}, err
	}
	poll := providers.PollConfig{
		Interval:    time.Duration(p.cfg.Providers.HeyGen.PollInterval) * time.Second,
		MaxAttempts: p.cfg.Providers.HeyGen.PollMaxAttempts,
	}
	job, err = providers.AwaitRender(ctx, p.renderer, job, poll, p.clock)
	if err != nil {
		return job, err
	}
	if job.Status == providers.StatusFailed {
		return job, services.Wrap(services.ErrProviderFatal, "render", "await render", job.Detail, nil)
	}
	return job, nil
}

// terminal classifies an error into the item's terminal status. An entity
// unavailable marker is an expected business outcome and maps to blocked;
// everything else is a failure.
func (p *Pipeline) terminal(logger *slog.Logger, entry manifest.Entry, message string, err error) manifest.Entry {
	details := services.Details(err)
	if details.Blocked {
		entry.Status = manifest.StatusBlocked
		entry.ErrorDetail = details.Message
		logger.Info(message, logging.String("reason", details.Message))
		return entry
	}
	entry.Status = manifest.StatusFailed
	entry.ErrorDetail = fmt.Sprintf("%s: %s", message, details.Message)
	logger.Error(message, logging.Error(err), logging.Bool("timed_out", details.Timeout))
	return entry
}

// writeScript persists the script markdown atomically under the week
// directory.
func writeScript(weekDir, slug, text string) (string, error) {
	if err := os.MkdirAll(weekDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "script", "write script", "create week directory", err)
	}
	path := filepath.Join(weekDir, slug+".md")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text+"\n"), 0o644); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "script", "write script", "write temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "script", "write script", "rename into place", err)
	}
	return path, nil
}

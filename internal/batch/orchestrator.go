package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/manifest"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/plan"
	"reelsmith/internal/services"
	"reelsmith/internal/store"
)

// Orchestrator fans a week's planned items out to a bounded worker pool and
// assembles the week manifest in planning order.
type Orchestrator struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	store    *store.Store
	notifier notifications.Service
	logger   *slog.Logger
}

// Result summarizes one batch run.
type Result struct {
	RunID        string
	Week         *manifest.Week
	ManifestPath string
	Duration     time.Duration
}

// New assembles an orchestrator. The store may be nil when persistence is
// disabled (tests); the notifier must not be nil.
func New(cfg *config.Config, pipe *pipeline.Pipeline, itemStore *store.Store,
	notifier notifications.Service, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		pipeline: pipe,
		store:    itemStore,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "batch"),
	}
}

// Run processes every planned item and writes the week manifest. Entry order
// always matches plan order regardless of worker scheduling. A run timeout or
// cancellation still flushes a manifest, marked partial, with every
// unprocessed item recorded as failed.
func (o *Orchestrator) Run(ctx context.Context, items []plan.PlannedItem) (*Result, error) {
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "run", "no planned items", nil)
	}
	week := items[0].WeekNumber
	weekDir := o.cfg.WeekDir(week)
	if err := os.MkdirAll(weekDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "run", "create week directory", err)
	}

	lock := flock.New(filepath.Join(weekDir, ".reelsmith.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "run", "acquire week lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "run",
			fmt.Sprintf("another batch is already running for week %d", week), nil)
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := o.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.Int("week", week),
	)

	cancel := func() {}
	if o.cfg.Workflow.RunTimeoutMinutes > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.Workflow.RunTimeoutMinutes)*time.Minute)
	}
	defer cancel()

	started := time.Now()
	logger.Info("batch started", logging.Int("items", len(items)))
	if err := o.notifier.NotifyBatchStarted(ctx, week, len(items)); err != nil {
		logger.Warn("batch start notification failed", logging.Error(err))
	}

	// Pre-sized slots keep manifest order equal to plan order no matter how
	// workers interleave.
	entries := make([]manifest.Entry, len(items))

	workers := o.cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, item := range items {
		group.Go(func() error {
			entry := o.pipeline.Process(groupCtx, item)
			entries[i] = entry
			o.persist(ctx, item, entry, runID)
			return nil
		})
	}
	// Workers never return errors; failures are isolated into their entries.
	_ = group.Wait()

	weekManifest := &manifest.Week{
		WeekNumber:  week,
		GeneratedAt: time.Now().UTC(),
		Partial:     ctx.Err() != nil,
		Entries:     entries,
	}
	if err := manifest.Write(weekDir, weekManifest); err != nil {
		return nil, err
	}

	duration := time.Since(started)
	counts := weekManifest.Summary()
	logger.Info("batch completed",
		logging.Int("ok", counts.OK),
		logging.Int("blocked", counts.Blocked),
		logging.Int("failed", counts.Failed),
		logging.Bool("partial", weekManifest.Partial),
		logging.Duration("duration", duration),
	)
	if err := o.notifier.NotifyBatchCompleted(context.WithoutCancel(ctx), week, counts, duration); err != nil {
		logger.Warn("batch completion notification failed", logging.Error(err))
	}

	return &Result{
		RunID:        runID,
		Week:         weekManifest,
		ManifestPath: manifest.Path(weekDir),
		Duration:     duration,
	}, nil
}

// persist records the item outcome even when the run context is already
// canceled, so a timed-out run still leaves an inspectable trail.
func (o *Orchestrator) persist(ctx context.Context, item plan.PlannedItem, entry manifest.Entry, runID string) {
	if o.store == nil {
		return
	}
	record := &store.Item{
		ItemSlug:      entry.ItemSlug,
		WeekNumber:    item.WeekNumber,
		EntityName:    entry.EntityName,
		ContentKind:   entry.ContentKind,
		Status:        entry.Status,
		ScriptPath:    entry.ScriptPath,
		Caption:       entry.Caption,
		VideoPath:     entry.VideoPath,
		ThumbnailPath: entry.ThumbnailPath,
		Tags:          entry.Tags,
		ErrorDetail:   entry.ErrorDetail,
		RunID:         runID,
	}
	if err := o.store.Upsert(context.WithoutCancel(ctx), record); err != nil {
		o.logger.Warn("item outcome persistence failed",
			logging.String(logging.FieldItemSlug, entry.ItemSlug),
			logging.Error(err),
		)
	}
}

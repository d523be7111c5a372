package batch_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"reelsmith/internal/batch"
	"reelsmith/internal/logging"
	"reelsmith/internal/manifest"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/plan"
	"reelsmith/internal/providers"
	"reelsmith/internal/roster"
	"reelsmith/internal/templates"
	"reelsmith/internal/testsupport"
)

func runBatch(t *testing.T, cfgOpts []testsupport.ConfigOption, renderer providers.AvatarRenderer, items []plan.PlannedItem) (*batch.Result, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, cfgOpts...)
	if renderer == nil {
		renderer = providers.NewSimulatedRenderer()
	}
	pipe := pipeline.New(cfg, roster.NewSimulatedSource(cfg.Roster.Unavailable), templates.NewResolver(""),
		renderer, providers.NewSimulatedUploader(), instantClock{}, logging.NewNop(),
		pipeline.Options{Render: true})
	s := testsupport.MustOpenStore(t, cfg)
	orch := batch.New(cfg, pipe, s, notifications.NewService(cfg), logging.NewNop())

	result, err := orch.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	week := items[0].WeekNumber
	return result, cfg.WeekDir(week)
}

func mustPlan(t *testing.T, week int, kinds, entities []string) []plan.PlannedItem {
	t.Helper()
	items, err := plan.Plan(week, kinds, entities)
	if err != nil {
		t.Fatalf("plan.Plan: %v", err)
	}
	return items
}

func TestRunPreservesPlanOrder(t *testing.T) {
	items := mustPlan(t, 5, []string{"recap", "start-sit"}, []string{"Ava Smith", "Ben Ortiz", "Cal Reyes"})

	result, weekDir := runBatch(t, nil, nil, items)

	if len(result.Week.Entries) != len(items) {
		t.Fatalf("entry count = %d, want %d", len(result.Week.Entries), len(items))
	}
	for i, entry := range result.Week.Entries {
		if entry.ItemSlug != items[i].Slug {
			t.Fatalf("entry %d slug = %s, want %s", i, entry.ItemSlug, items[i].Slug)
		}
	}

	loaded, err := manifest.Load(weekDir)
	if err != nil {
		t.Fatalf("manifest.Load: %v", err)
	}
	for i, entry := range loaded.Entries {
		if entry.ItemSlug != items[i].Slug {
			t.Fatalf("persisted entry %d out of plan order: %s", i, entry.ItemSlug)
		}
	}
}

func TestRunIsolatesItemFailures(t *testing.T) {
	items := mustPlan(t, 5, []string{"recap"}, []string{"Ava Smith", "Ben Ortiz", "Cal Reyes"})

	renderer := providers.NewSimulatedRenderer()
	renderer.ForceFault(items[1].Slug, providers.FaultFail)

	result, _ := runBatch(t, nil, renderer, items)

	counts := result.Week.Summary()
	if counts.OK != 2 || counts.Failed != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if result.Week.Entries[1].Status != manifest.StatusFailed {
		t.Fatalf("faulted item status = %s", result.Week.Entries[1].Status)
	}
	if result.Week.Entries[0].Status != manifest.StatusOK || result.Week.Entries[2].Status != manifest.StatusOK {
		t.Fatal("healthy items must complete despite a failed sibling")
	}
}

func TestRunRenderTimeoutDoesNotSinkBatch(t *testing.T) {
	items := mustPlan(t, 5, []string{"recap"}, []string{"Ava Smith", "Ben Ortiz", "Cal Reyes"})

	renderer := providers.NewSimulatedRenderer()
	renderer.ForceFault(items[2].Slug, providers.FaultTimeout)

	cfg := testsupport.NewConfig(t)
	cfg.Providers.HeyGen.PollInterval = 1
	cfg.Providers.HeyGen.PollMaxAttempts = 2
	pipe := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		renderer, nil, instantClock{}, logging.NewNop(), pipeline.Options{Render: true})
	orch := batch.New(cfg, pipe, nil, notifications.NewService(cfg), logging.NewNop())

	result, err := orch.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	counts := result.Week.Summary()
	if counts.OK != 2 || counts.Failed != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if result.Week.Partial {
		t.Fatal("a single item timeout must not mark the manifest partial")
	}
}

// stallingSource signals once an availability lookup is in flight, then holds
// it until the run context cancels.
type stallingSource struct {
	started chan struct{}
	once    sync.Once
}

func (s *stallingSource) Availability(ctx context.Context, _ string, _ int) (roster.Availability, error) {
	s.once.Do(func() { close(s.started) })
	<-ctx.Done()
	return roster.Availability{}, ctx.Err()
}

func TestRunCancellationFlushesPartialManifest(t *testing.T) {
	items := mustPlan(t, 5, []string{"recap"}, []string{"Ava Smith", "Ben Ortiz", "Cal Reyes"})
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1))

	source := &stallingSource{started: make(chan struct{})}
	pipe := pipeline.New(cfg, source, templates.NewResolver(""),
		nil, nil, instantClock{}, logging.NewNop(), pipeline.Options{})
	orch := batch.New(cfg, pipe, nil, notifications.NewService(cfg), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-source.started
		cancel()
	}()

	result, err := orch.Run(ctx, items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Week.Partial {
		t.Fatal("canceled run must flush a partial manifest")
	}
	if len(result.Week.Entries) != len(items) {
		t.Fatalf("entry count = %d, want %d", len(result.Week.Entries), len(items))
	}
	for i, entry := range result.Week.Entries {
		if entry.ItemSlug != items[i].Slug {
			t.Fatalf("entry %d slug = %s, want %s", i, entry.ItemSlug, items[i].Slug)
		}
		if entry.Status != manifest.StatusFailed {
			t.Fatalf("entry %d status = %s, want failed", i, entry.Status)
		}
	}

	loaded, err := manifest.Load(cfg.WeekDir(5))
	if err != nil {
		t.Fatalf("manifest.Load: %v", err)
	}
	if !loaded.Partial {
		t.Fatal("flushed manifest must persist the partial flag")
	}
	for i, entry := range loaded.Entries {
		if entry.ItemSlug != items[i].Slug {
			t.Fatalf("persisted entry %d out of plan order: %s", i, entry.ItemSlug)
		}
	}
}

func TestRunPersistsOutcomes(t *testing.T) {
	items := mustPlan(t, 6, []string{"recap"}, []string{"Ava Smith"})
	cfg := testsupport.NewConfig(t, testsupport.WithUnavailable("Ava Smith", "out"))

	pipe := pipeline.New(cfg, roster.NewSimulatedSource(cfg.Roster.Unavailable), templates.NewResolver(""),
		nil, nil, instantClock{}, logging.NewNop(), pipeline.Options{})
	s := testsupport.MustOpenStore(t, cfg)
	orch := batch.New(cfg, pipe, s, notifications.NewService(cfg), logging.NewNop())

	result, err := orch.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	stored, err := s.GetBySlug(context.Background(), items[0].Slug)
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if stored.Status != manifest.StatusBlocked {
		t.Fatalf("stored status = %s, want blocked", stored.Status)
	}
	if stored.RunID != result.RunID {
		t.Fatalf("stored run id = %s, want %s", stored.RunID, result.RunID)
	}
}

func TestRunRejectsEmptyPlan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	pipe := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		nil, nil, nil, logging.NewNop(), pipeline.Options{})
	orch := batch.New(cfg, pipe, nil, notifications.NewService(cfg), logging.NewNop())

	if _, err := orch.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty plan")
	}
}

func TestRunWritesManifestCSV(t *testing.T) {
	items := mustPlan(t, 5, []string{"recap"}, []string{"Ava Smith"})
	_, weekDir := runBatch(t, nil, nil, items)

	if _, err := os.Stat(manifest.CSVPath(weekDir)); err != nil {
		t.Fatalf("manifest csv missing: %v", err)
	}
}

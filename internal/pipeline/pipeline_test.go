package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/guardrail"
	"reelsmith/internal/logging"
	"reelsmith/internal/manifest"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/plan"
	"reelsmith/internal/providers"
	"reelsmith/internal/roster"
	"reelsmith/internal/services"
	"reelsmith/internal/templates"
	"reelsmith/internal/testsupport"
)

func plannedItem(t *testing.T, entity, kind string, week int) plan.PlannedItem {
	t.Helper()
	items, err := plan.Plan(week, []string{kind}, []string{entity})
	if err != nil {
		t.Fatalf("plan.Plan: %v", err)
	}
	return items[0]
}

func TestProcessHappyPathWithRenderAndUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	renderer := providers.NewSimulatedRenderer()
	uploader := providers.NewSimulatedUploader()

	p := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		renderer, uploader, nil, logging.NewNop(), pipeline.Options{Render: true, Upload: true})

	item := plannedItem(t, "Ava Smith", "recap", 4)
	entry := p.Process(context.Background(), item)

	if entry.Status != manifest.StatusOK {
		t.Fatalf("status = %s (%s)", entry.Status, entry.ErrorDetail)
	}
	if entry.ItemSlug != "ava_smith__recap__week4" {
		t.Fatalf("slug = %s", entry.ItemSlug)
	}
	if entry.ScriptPath == "" || entry.VideoPath == "" {
		t.Fatalf("expected script and video paths: %+v", entry)
	}
	if _, err := os.Stat(entry.ScriptPath); err != nil {
		t.Fatalf("script file missing: %v", err)
	}
	if _, err := os.Stat(entry.VideoPath); err != nil {
		t.Fatalf("video placeholder missing: %v", err)
	}
	sidecar := filepath.Join(cfg.WeekDir(4), entry.ItemSlug+".meta.json")
	if _, err := os.Stat(sidecar); err != nil {
		t.Fatalf("metadata sidecar missing: %v", err)
	}
	if !strings.HasPrefix(entry.Caption, "[sim-") {
		t.Fatalf("simulated caption missing marker: %q", entry.Caption)
	}
	if len(entry.Tags) == 0 {
		t.Fatal("expected hashtags")
	}
}

func TestProcessBlockedEntity(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithUnavailable("Ben Ortiz", "out"))

	p := pipeline.New(cfg, roster.NewSimulatedSource(cfg.Roster.Unavailable), templates.NewResolver(""),
		nil, nil, nil, logging.NewNop(), pipeline.Options{})

	entry := p.Process(context.Background(), plannedItem(t, "Ben Ortiz", "recap", 4))
	if entry.Status != manifest.StatusBlocked {
		t.Fatalf("status = %s, want blocked", entry.Status)
	}
	if entry.ErrorDetail == "" {
		t.Fatal("blocked entry must carry a reason")
	}
	if entry.ScriptPath != "" {
		t.Fatal("blocked item must not write a script")
	}
}

// taggedUnavailableSource reports unavailability as a tagged error instead of
// a tagged result, the way a live source surfaces it at the call boundary.
type taggedUnavailableSource struct{}

func (taggedUnavailableSource) Availability(context.Context, string, int) (roster.Availability, error) {
	return roster.Availability{}, services.Wrap(services.ErrEntityUnavailable, "availability", "entity check", "status out", nil)
}

func TestProcessUnavailableErrorMapsToBlocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	p := pipeline.New(cfg, taggedUnavailableSource{}, templates.NewResolver(""),
		nil, nil, nil, logging.NewNop(), pipeline.Options{})

	entry := p.Process(context.Background(), plannedItem(t, "Ben Ortiz", "recap", 4))
	if entry.Status != manifest.StatusBlocked {
		t.Fatalf("status = %s, want blocked", entry.Status)
	}
	if !strings.Contains(entry.ErrorDetail, "status out") {
		t.Fatalf("blocked detail must carry the reason, got %q", entry.ErrorDetail)
	}
	if entry.ScriptPath != "" {
		t.Fatal("blocked item must not write a script")
	}
}

func TestProcessGuardrailFailMode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGuardrail(3, "fail"))

	p := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		nil, nil, nil, logging.NewNop(), pipeline.Options{})

	entry := p.Process(context.Background(), plannedItem(t, "Ava Smith", "recap", 4))
	if entry.Status != manifest.StatusFailed {
		t.Fatalf("status = %s, want failed", entry.Status)
	}
	if !strings.Contains(entry.ErrorDetail, "too_long:") {
		t.Fatalf("unexpected detail: %q", entry.ErrorDetail)
	}
	if entry.ScriptPath != "" {
		t.Fatal("rejected item must not write a script")
	}
}

func TestProcessGuardrailModeOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGuardrail(5, "fail"))

	p := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		nil, nil, nil, logging.NewNop(), pipeline.Options{GuardrailMode: guardrail.ModeTrim})

	entry := p.Process(context.Background(), plannedItem(t, "Ava Smith", "recap", 4))
	if entry.Status != manifest.StatusOK {
		t.Fatalf("status = %s (%s)", entry.Status, entry.ErrorDetail)
	}
	data, err := os.ReadFile(entry.ScriptPath)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if words := strings.Fields(string(data)); len(words) != 5 {
		t.Fatalf("trimmed script has %d words, want 5", len(words))
	}
}

func TestProcessGuardrailTrimMode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGuardrail(5, "trim"))

	p := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		nil, nil, nil, logging.NewNop(), pipeline.Options{})

	entry := p.Process(context.Background(), plannedItem(t, "Ava Smith", "recap", 4))
	if entry.Status != manifest.StatusOK {
		t.Fatalf("status = %s (%s)", entry.Status, entry.ErrorDetail)
	}
	data, err := os.ReadFile(entry.ScriptPath)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if words := strings.Fields(string(data)); len(words) != 5 {
		t.Fatalf("trimmed script has %d words, want 5", len(words))
	}
}

func TestProcessRenderFailureIsIsolated(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	renderer := providers.NewSimulatedRenderer()
	renderer.ForceFault("ava_smith__recap__week4", providers.FaultFail)

	p := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		renderer, nil, nil, logging.NewNop(), pipeline.Options{Render: true})

	entry := p.Process(context.Background(), plannedItem(t, "Ava Smith", "recap", 4))
	if entry.Status != manifest.StatusFailed {
		t.Fatalf("status = %s, want failed", entry.Status)
	}
	if entry.ErrorDetail == "" {
		t.Fatal("failed entry must carry detail")
	}
}

func TestProcessRenderTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Providers.HeyGen.PollInterval = 1
	cfg.Providers.HeyGen.PollMaxAttempts = 2
	renderer := providers.NewSimulatedRenderer()
	renderer.ForceFault("ava_smith__recap__week4", providers.FaultTimeout)

	p := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		renderer, nil, instantClock{}, logging.NewNop(), pipeline.Options{Render: true})

	entry := p.Process(context.Background(), plannedItem(t, "Ava Smith", "recap", 4))
	if entry.Status != manifest.StatusFailed {
		t.Fatalf("status = %s, want failed", entry.Status)
	}
	if !strings.Contains(entry.ErrorDetail, "poll budget") {
		t.Fatalf("timeout detail missing: %q", entry.ErrorDetail)
	}
}

func TestProcessCanceledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := pipeline.New(cfg, roster.NewSimulatedSource(nil), templates.NewResolver(""),
		nil, nil, nil, logging.NewNop(), pipeline.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entry := p.Process(ctx, plannedItem(t, "Ava Smith", "recap", 4))
	if entry.Status != manifest.StatusFailed {
		t.Fatalf("status = %s, want failed", entry.Status)
	}
}

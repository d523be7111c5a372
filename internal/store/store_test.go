package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"reelsmith/internal/manifest"
	"reelsmith/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenPath(filepath.Join(t.TempDir(), "reelsmith.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	item := &store.Item{
		ItemSlug:    "ava_smith__recap__week4",
		WeekNumber:  4,
		EntityName:  "Ava Smith",
		ContentKind: "recap",
		Status:      manifest.StatusOK,
		ScriptPath:  "/out/week-4/ava_smith__recap__week4.md",
		Caption:     "Recap — Week 4",
		Tags:        []string{"#NFL", "#Week4"},
		RunID:       "run-1",
	}
	if err := s.Upsert(ctx, item); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.GetBySlug(ctx, "ava_smith__recap__week4")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.Status != manifest.StatusOK || got.EntityName != "Ava Smith" {
		t.Fatalf("unexpected item: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "#NFL" {
		t.Fatalf("tags round trip failed: %v", got.Tags)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps must be populated")
	}
}

func TestUpsertReplacesBySlug(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := &store.Item{
		ItemSlug:    "ava_smith__recap__week4",
		WeekNumber:  4,
		EntityName:  "Ava Smith",
		ContentKind: "recap",
		Status:      manifest.StatusFailed,
		ErrorDetail: "render timed out",
		RunID:       "run-1",
	}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := &store.Item{
		ItemSlug:    "ava_smith__recap__week4",
		WeekNumber:  4,
		EntityName:  "Ava Smith",
		ContentKind: "recap",
		Status:      manifest.StatusOK,
		RunID:       "run-2",
	}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	items, err := s.ListForWeek(ctx, 4)
	if err != nil {
		t.Fatalf("ListForWeek: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("rerun must not duplicate rows, got %d", len(items))
	}
	if items[0].Status != manifest.StatusOK || items[0].RunID != "run-2" {
		t.Fatalf("rerun must replace the outcome: %+v", items[0])
	}
}

func TestGetBySlugMissing(t *testing.T) {
	s := openStore(t)
	_, err := s.GetBySlug(context.Background(), "nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestWeekSummary(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	seed := []struct {
		slug   string
		status manifest.Status
	}{
		{"a__recap__week7", manifest.StatusOK},
		{"b__recap__week7", manifest.StatusOK},
		{"c__recap__week7", manifest.StatusBlocked},
		{"d__recap__week7", manifest.StatusFailed},
		{"e__recap__week8", manifest.StatusOK},
	}
	for _, row := range seed {
		item := &store.Item{
			ItemSlug:    row.slug,
			WeekNumber:  7,
			EntityName:  "x",
			ContentKind: "recap",
			Status:      row.status,
		}
		if row.slug == "e__recap__week8" {
			item.WeekNumber = 8
		}
		if err := s.Upsert(ctx, item); err != nil {
			t.Fatalf("Upsert %s: %v", row.slug, err)
		}
	}

	summary, err := s.WeekSummary(ctx, 7)
	if err != nil {
		t.Fatalf("WeekSummary: %v", err)
	}
	if summary.Total != 4 || summary.OK != 2 || summary.Blocked != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestUpsertRequiresSlug(t *testing.T) {
	s := openStore(t)
	if err := s.Upsert(context.Background(), &store.Item{WeekNumber: 1}); err == nil {
		t.Fatal("expected error for missing slug")
	}
}

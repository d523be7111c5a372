package manifest_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/manifest"
)

func sampleWeek() *manifest.Week {
	return &manifest.Week{
		WeekNumber:  5,
		GeneratedAt: time.Date(2025, 9, 28, 12, 0, 0, 0, time.UTC),
		Entries: []manifest.Entry{
			{
				ItemSlug:    "ava_smith__recap__week5",
				ContentKind: "recap",
				EntityName:  "Ava Smith",
				ScriptPath:  "ava_smith__recap__week5.md",
				Caption:     "Recap — Week 5",
				Tags:        []string{"ava smith", "recap"},
				Status:      manifest.StatusOK,
			},
			{
				ItemSlug:    "ben_ortiz__recap__week5",
				ContentKind: "recap",
				EntityName:  "Ben Ortiz",
				Status:      manifest.StatusBlocked,
				ErrorDetail: "entity status = out",
			},
			{
				ItemSlug:    "cam_diaz__recap__week5",
				ContentKind: "recap",
				EntityName:  "Cam Diaz",
				Status:      manifest.StatusFailed,
				ErrorDetail: "render: poll: timed out",
			},
		},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	week := sampleWeek()
	if err := manifest.Write(dir, week); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := manifest.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.WeekNumber != 5 {
		t.Fatalf("unexpected week: %d", loaded.WeekNumber)
	}
	if len(loaded.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(loaded.Entries))
	}
	for i := range week.Entries {
		if loaded.Entries[i].ItemSlug != week.Entries[i].ItemSlug {
			t.Fatalf("entry %d slug mismatch", i)
		}
		if loaded.Entries[i].Status != week.Entries[i].Status {
			t.Fatalf("entry %d status mismatch", i)
		}
	}
}

func TestWriteReplacesPriorManifest(t *testing.T) {
	dir := t.TempDir()
	week := sampleWeek()
	if err := manifest.Write(dir, week); err != nil {
		t.Fatalf("first Write: %v", err)
	}

	week.Entries = week.Entries[:1]
	if err := manifest.Write(dir, week); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	loaded, err := manifest.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Entries) != 1 {
		t.Fatalf("expected overwrite, got %d entries", len(loaded.Entries))
	}
}

func TestWriteEmitsCSVCompanion(t *testing.T) {
	dir := t.TempDir()
	if err := manifest.Write(dir, sampleWeek()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(manifest.CSVPath(dir))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "item_slug,") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

func TestSummaryCounts(t *testing.T) {
	counts := sampleWeek().Summary()
	if counts.OK != 1 || counts.Blocked != 1 || counts.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := manifest.ParseStatus(" OK "); !ok || status != manifest.StatusOK {
		t.Fatalf("unexpected parse: %v %v", status, ok)
	}
	if _, ok := manifest.ParseStatus("done"); ok {
		t.Fatal("expected parse failure")
	}
}

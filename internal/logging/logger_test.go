package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("batch started", logging.Int("items", 3))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("parse log record: %v", err)
	}
	if record["msg"] != "batch started" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if record["items"] != float64(3) {
		t.Fatalf("unexpected items attr: %v", record["items"])
	}
}

func TestWithContextAddsItemFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithItemSlug(context.Background(), "ava_smith__recap__week3")
	ctx = services.WithStage(ctx, "upload")
	logging.WithContext(ctx, logger).Info("stage started")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "ava_smith__recap__week3") {
		t.Fatalf("expected item slug in output: %s", out)
	}
	if !strings.Contains(out, `"stage":"upload"`) {
		t.Fatalf("expected stage in output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lvl.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "warn", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("ignored")
	logger.Warn("kept")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "ignored") {
		t.Fatal("info record should have been filtered")
	}
	if !strings.Contains(string(data), "kept") {
		t.Fatal("warn record missing")
	}
}

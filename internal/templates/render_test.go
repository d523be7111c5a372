package templates_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/plan"
	"reelsmith/internal/services"
	"reelsmith/internal/templates"
)

func TestResolveEmbeddedKind(t *testing.T) {
	resolver := templates.NewResolver("")
	text, name, err := resolver.Resolve("start-sit")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if name != "start_sit.md" {
		t.Fatalf("expected override filename, got %q", name)
	}
	if !strings.Contains(text, "{{.Entity}}") {
		t.Fatalf("template missing entity placeholder: %s", text)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	resolver := templates.NewResolver("")
	_, name, err := resolver.Resolve("no-such-kind")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if name != "default.md" {
		t.Fatalf("expected default fallback, got %q", name)
	}
}

func TestResolvePrefersOverrideDir(t *testing.T) {
	dir := t.TempDir()
	custom := "Custom {{.Kind}} script for {{.Entity}}, week {{.Week}}."
	if err := os.WriteFile(filepath.Join(dir, "recap.md"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	resolver := templates.NewResolver(dir)
	text, name, err := resolver.Resolve("recap")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if name != "recap.md" || !strings.HasPrefix(text, "Custom") {
		t.Fatalf("expected override template, got %q: %s", name, text)
	}
}

func TestRenderSubstitutesFields(t *testing.T) {
	resolver := templates.NewResolver("")
	script, err := resolver.Render(plan.ContentRequest{
		EntityName:  "Ava Smith",
		WeekNumber:  5,
		ContentKind: "waiver-wire",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(script.Text, "Ava Smith") {
		t.Fatalf("entity not substituted: %s", script.Text)
	}
	if !strings.Contains(script.Text, "week 5") {
		t.Fatalf("week not substituted: %s", script.Text)
	}
	if script.WordCount == 0 {
		t.Fatal("expected non-zero word count")
	}
	if script.Template != "waiver_wire.md" {
		t.Fatalf("unexpected template name: %s", script.Template)
	}
}

func TestRenderBrokenTemplateIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "recap.md"), []byte("{{.Entity"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	resolver := templates.NewResolver(dir)
	_, err := resolver.Render(plan.ContentRequest{EntityName: "E", WeekNumber: 1, ContentKind: "recap"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

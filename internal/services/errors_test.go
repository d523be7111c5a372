package services_test

import (
	"errors"
	"strings"
	"testing"

	"reelsmith/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrTransient, "upload", "init", "http 503", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "upload: init: http 503") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := services.Wrap(services.ErrProviderFatal, "render", "submit", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !errors.Is(err, services.ErrProviderFatal) {
		t.Fatalf("expected fatal marker, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "something", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected default transient marker, got %v", err)
	}
}

func TestDetailsClassification(t *testing.T) {
	blocked := services.Wrap(services.ErrEntityUnavailable, "availability", "", "status out", nil)
	if details := services.Details(blocked); !details.Blocked || details.Timeout {
		t.Fatalf("unexpected details for blocked error: %+v", details)
	}

	timedOut := services.Wrap(services.ErrTimeout, "render", "poll", "60 attempts", nil)
	if details := services.Details(timedOut); !details.Timeout {
		t.Fatalf("expected timeout detail, got %+v", details)
	}

	if details := services.Details(nil); details.Message != "" {
		t.Fatalf("expected empty details for nil error, got %+v", details)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", services.Wrap(services.ErrTransient, "s", "o", "m", nil), true},
		{"fatal", services.Wrap(services.ErrProviderFatal, "s", "o", "m", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "s", "o", "m", nil), false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := services.Retryable(tc.err); got != tc.want {
			t.Errorf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

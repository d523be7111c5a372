package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks fatal misconfiguration: bad plan requests,
	// unresolvable templates, missing credentials. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrEntityUnavailable marks the expected business condition of an entity
	// flagged unavailable upstream. Items short-circuit to blocked.
	ErrEntityUnavailable = errors.New("entity unavailable")
	// ErrPolicyViolation marks a guardrail rejection under fail mode.
	ErrPolicyViolation = errors.New("content policy violation")
	// ErrTransient marks provider failures worth retrying (network, 5xx, 429).
	ErrTransient = errors.New("transient provider failure")
	// ErrProviderFatal marks provider failures that must not be retried
	// (bad credentials, malformed requests).
	ErrProviderFatal = errors.New("provider failure")
	// ErrTimeout marks polling that exhausted its attempt budget.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails carries the operator-facing view of a stage error.
type ErrorDetails struct {
	Message string
	Blocked bool
	Timeout bool
}

// Details extracts presentation fields from a stage error.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	return ErrorDetails{
		Message: strings.TrimSpace(err.Error()),
		Blocked: errors.Is(err, ErrEntityUnavailable),
		Timeout: errors.Is(err, ErrTimeout),
	}
}

// Retryable reports whether an error may be retried under the backoff policy.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProviderFatal) || errors.Is(err, ErrConfiguration) {
		return false
	}
	return errors.Is(err, ErrTransient)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

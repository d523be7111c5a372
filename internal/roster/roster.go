package roster

import (
	"context"
	"fmt"
	"strings"
)

// Availability is the tagged result of an entity lookup. The pipeline consumes
// it explicitly instead of sniffing sentinel fields on raw entity data.
type Availability struct {
	Available bool
	Status    string
	Reason    string
}

// Available builds the result for an entity cleared for content generation.
func Available(status string) Availability {
	return Availability{Available: true, Status: status}
}

// Unavailable builds the result for an entity that must not appear in content.
func Unavailable(status, reason string) Availability {
	return Availability{Available: false, Status: status, Reason: reason}
}

// Source answers availability questions for entities. Implementations must be
// safe for concurrent use; item pipelines query it in parallel.
type Source interface {
	Availability(ctx context.Context, entity string, week int) (Availability, error)
}

// blockingStatuses are the upstream status values that block generation.
var blockingStatuses = map[string]struct{}{
	"out":             {},
	"ir":              {},
	"injured reserve": {},
}

// Classify maps an upstream status string onto an Availability. Unknown or
// empty statuses are treated as available; only explicit blocking statuses
// stop an item.
func Classify(status string) Availability {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "" {
		return Available("unknown")
	}
	if _, blocked := blockingStatuses[normalized]; blocked {
		return Unavailable(normalized, fmt.Sprintf("entity status = %s", normalized))
	}
	return Available(normalized)
}

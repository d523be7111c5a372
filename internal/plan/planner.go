package plan

import (
	"fmt"
	"strings"

	"reelsmith/internal/services"
)

// ContentRequest is one unit of requested content. Immutable once planned;
// identity is (WeekNumber, EntityName, ContentKind).
type ContentRequest struct {
	EntityName   string            `json:"entity_name"`
	WeekNumber   int               `json:"week_number"`
	ContentKind  string            `json:"content_kind"`
	ExtraContext map[string]string `json:"extra_context,omitempty"`
}

// PlannedItem is a ContentRequest plus the deterministic slug derived from its
// identity. The slug is stable across runs so re-planning a week is idempotent.
type PlannedItem struct {
	ContentRequest
	Slug string `json:"slug"`
}

// Slug derives the stable identifier for a request identity. It is a pure
// function of (week, entity, kind) and safe to use as a filename stem.
func Slug(week int, entity, kind string) string {
	return fmt.Sprintf("%s__%s__week%d", slugify(entity), slugify(kind), week)
}

func slugify(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// Plan expands a week, content kinds, and entities into the ordered item list
// the orchestrator executes. Order is the cross product of kinds and entities
// in caller-supplied order; entity order within a kind is preserved so an
// operator can control rendering priority.
func Plan(week int, kinds, entities []string) ([]PlannedItem, error) {
	if week <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "plan", "", fmt.Sprintf("week number must be positive, got %d", week), nil)
	}

	cleanKinds := cleanList(kinds)
	if len(cleanKinds) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "plan", "", "at least one content kind is required", nil)
	}
	cleanEntities := cleanList(entities)
	if len(cleanEntities) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "plan", "", "at least one entity is required", nil)
	}

	items := make([]PlannedItem, 0, len(cleanKinds)*len(cleanEntities))
	for _, kind := range cleanKinds {
		for _, entity := range cleanEntities {
			request := ContentRequest{
				EntityName:  entity,
				WeekNumber:  week,
				ContentKind: kind,
			}
			items = append(items, PlannedItem{
				ContentRequest: request,
				Slug:           Slug(week, entity, kind),
			})
		}
	}
	return items, nil
}

// cleanList trims entries, drops empties, and splits comma-joined values so
// callers can pass either repeated flags or a single delimited string.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

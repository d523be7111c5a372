// Package plan expands a week's content request into the deterministic,
// ordered item list the batch orchestrator executes.
//
// Slugs are pure functions of item identity so re-planning the same inputs
// always yields the same identifiers, which is what makes re-runs after a
// partial failure safe. The plan artifact persists that ordering to disk and
// can be re-loaded to resume a week.
package plan

// Package logging wires slog handlers, shared attribute helpers, and
// context-derived fields for the CLI and batch pipeline.
//
// Run, item, and stage identity travel on context.Context; WithContext turns
// them into structured attributes so every record emitted inside an item
// pipeline is correlatable. Live provider calls are flagged with the
// EventLiveCall event type, which is the audit signal that a run touched real
// services.
package logging

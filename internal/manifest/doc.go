// Package manifest defines the persisted record of a week's batch outcomes.
//
// The manifest is the hand-off artifact between the batch orchestrator and the
// scheduler exporter. Entry order always matches planning order regardless of
// how item pipelines interleaved, and writes are atomic so downstream tooling
// never observes a torn file.
package manifest

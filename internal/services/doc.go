// Package services defines the shared error taxonomy and context annotations
// used across the batch pipeline.
//
// Stage code wraps failures with one of the sentinel markers (configuration,
// entity-unavailable, policy-violation, transient, provider-fatal, timeout) so
// the pipeline boundary can classify an error into a manifest entry status
// without string matching. Context helpers thread run, item, and stage
// identity down to provider calls for structured logging.
package services

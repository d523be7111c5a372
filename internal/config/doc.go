// Package config loads, normalizes, and validates Reelsmith configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HEYGEN_API_KEY. The Config type centralizes every knob the CLI and batch
// orchestrator need, so provider selection (simulated vs live), guardrail
// policy, and export cadence are all discovered in one pass.
//
// The simulate/live decision is made here and threaded into provider
// constructors explicitly; nothing deeper in the call tree reads ambient
// process state to decide whether a call is real.
package config

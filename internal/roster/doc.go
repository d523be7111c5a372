// Package roster answers entity availability questions for the pipeline's
// blocking guardrail.
//
// The result is a tagged Availability (available vs unavailable with a
// reason), consumed explicitly by the pipeline before any script is rendered.
// The simulated source reads a fixed table from config; the live source
// fetches the provider's player list with an on-disk TTL cache.
package roster

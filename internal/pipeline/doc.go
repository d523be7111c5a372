// Package pipeline runs one planned item through availability, script
// rendering, guardrails, packaging, and the optional render and upload
// stages, always producing exactly one terminal manifest entry.
package pipeline

// Package templates resolves and renders script templates for content kinds.
//
// Resolution order: configured override directory, then the embedded defaults,
// then the generic default.md fallback. Kind names map to files by convention
// (<kind>.md, with hyphen/underscore variants), with a small override table
// for legacy filenames.
package templates

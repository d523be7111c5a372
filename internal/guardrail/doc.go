// Package guardrail enforces the script length policy applied before any
// content leaves the pipeline.
//
// Evaluate is a pure function so it can run anywhere in the pipeline without
// coordination. Entity availability (the other guardrail) is checked upstream
// by the pipeline against the roster source, before a script is ever rendered;
// this package only supplies the shared Action vocabulary for it.
package guardrail

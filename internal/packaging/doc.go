// Package packaging derives the public-facing caption, hashtag set, and
// per-item metadata sidecar for a generated script.
package packaging

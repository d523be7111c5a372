// Package providers defines the avatar rendering and upload provider
// contracts, the shared retry and rate-limit machinery, and the deterministic
// simulated implementations used when no live provider is enabled.
package providers

// Package engine tracks the loading lifecycle of independent dashboard
// sections and runs their fetches concurrently.
//
// Each section is registered once with a fetch function and then moves
// through a small state machine: Idle until triggered, Loading while its
// fetch runs, and Loaded or Failed when the fetch completes. Key features:
//   - Per-section state with single in-flight fetch per section
//   - Concurrent fan-out across sections with failure isolation
//   - Live status aggregation (AnyLoading, AllLoaded, AnyFailed)
//   - Generation counters so resets discard stale completions
//   - Region gating to defer fetches until a region is activated
//
// The engine never retries on its own and never caches aggregate answers.
// Aggregates are derived from current section state on every call, so a
// consumer polling between events always sees a consistent view.
package engine

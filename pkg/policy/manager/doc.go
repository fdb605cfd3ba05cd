// Package manager holds the active policy set and keeps it fresh.
//
// A Manager loads policies from a source.Source into an in-memory
// registry indexed by name. Lookups are lock-cheap reads; Reload swaps
// the whole registry atomically so callers never observe a half-loaded
// set. A failed reload leaves the previous set in place.
//
// # Hot Reload
//
// FileWatcher pairs a Manager with fsnotify. File events are debounced
// so that editors writing temp files or bulk copies into the policy
// directory trigger a single reload instead of a storm.
package manager

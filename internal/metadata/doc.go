// Package metadata normalizes the engine's JSON dump into a tagged union of a
// single Item or a Collection, with formatted durations, thumbnail selection
// and the author and count fallbacks.
package metadata

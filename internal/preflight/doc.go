// Package preflight provides readiness checks for the filesystem paths,
// services and binaries wavepipe depends on.
//
// The HTTP /health endpoint and the CLI "wavepipe status" command both call
// Evaluate. Each check is gated by its config toggle; disabled features are
// skipped.
package preflight

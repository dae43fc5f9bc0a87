// Package download orchestrates the engine for the two request paths.
//
// Fetch runs a title probe and then the fetch/transcode into a per-request
// workspace, verifies the output exists and hands back a stream that deletes
// the file when finished. Describe dumps page metadata and normalizes it.
// Every failure after workspace creation deletes the workspace before the
// error is returned.
package download

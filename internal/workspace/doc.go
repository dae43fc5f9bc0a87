// Package workspace owns the temporary files a download passes through.
//
// Each request gets a Workspace with a random identity, the output template
// handed to the engine and the path where the finished file must appear.
// Delete is idempotent and runs at most once. Sweep removes artifacts orphaned
// by crashed processes, serialized across processes with a lock file.
package workspace

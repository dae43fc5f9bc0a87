// Package media holds the request model shared by the HTTP and CLI surfaces:
// output formats with their container extension and MIME type, and the host
// policy that validates page URLs before any engine process is spawned.
package media

// Command wavepipe runs the media-fetch proxy (wavepipe serve) and offers the
// same metadata and download operations locally (info, fetch), plus status,
// history, sweep and config utilities.
package main

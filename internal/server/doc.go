// Package server exposes the proxy over HTTP: GET /info, GET /download,
// /health, /metrics and /api/history.
//
// Downloads take a slot from a bounded semaphore before the engine starts and
// keep it until the stream has been written, so max_concurrent_downloads
// bounds both engine processes and temp files on disk.
package server

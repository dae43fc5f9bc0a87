// Package services defines shared utilities consumed by the engine, download
// and server packages.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, workspace IDs, and stage names
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the categories and HTTP statuses reported to clients.
//
// Use these helpers when wiring new request paths so error reporting and
// observability stay uniform across the proxy.
package services

// Package history keeps a SQLite ledger of finished requests: which page was
// asked for, how it ended and how many bytes went out. It never stores media.
package history

// Package deps reports whether the external binaries wavepipe drives are
// installed.
package deps

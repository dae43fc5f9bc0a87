// Package engine runs the external extraction engine (yt-dlp).
//
// Environment and Resolver locate the executable, Credentials decides whether
// the cookies file is attached, and Runner executes one invocation returning a
// single structured Result. ExecRunner drains both output streams with bounded
// buffers and runs the child in its own process group so cancellation also
// stops any ffmpeg processes it started.
package engine

// Package stream hands finished downloads to HTTP clients and owns the
// deletion of the temporary file from the moment the file is opened.
package stream

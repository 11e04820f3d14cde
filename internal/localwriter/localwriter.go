// Package localwriter provides the default LocalWriter collaborator: a
// truncated-created file on disk, written through as chunks arrive, per
// spec §6 ("a file is truncated-created at that path and written through;
// its final size is reported in local.size").
package localwriter

import (
	"os"
)

// File is a local-save destination backed by *os.File.
type File struct {
	f    *os.File
	path string
	size int64
}

// Create truncates or creates the file at path for writing.
func Create(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{f: f, path: path}, nil
}

// Write appends chunk to the file and tracks the running size.
func (w *File) Write(chunk []byte) error {
	n, err := w.f.Write(chunk)
	w.size += int64(n)
	return err
}

// Close closes the underlying file handle.
func (w *File) Close() error {
	return w.f.Close()
}

// Path returns the destination path.
func (w *File) Path() string {
	return w.path
}

// Size returns the number of bytes written so far.
func (w *File) Size() int64 {
	return w.size
}

// Package storage is the file-system abstraction under the upload directory.
package storage

import "time"

// FileInfo describes one stored file.
type FileInfo struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified_at"`
}

// Provider is the interface for upload file operations. Paths are relative
// to the provider root and use forward slashes.
type Provider interface {
	// List returns every file whose relative path matches the doublestar pattern, sorted by path.
	List(pattern string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path. Missing files yield an error matching fs.ErrNotExist.
	Delete(path string) error
	// Abs returns the absolute location of path after the traversal check.
	Abs(path string) (string, error)
	// Root returns the absolute root directory.
	Root() string
}

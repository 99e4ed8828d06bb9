package vault

import (
	"io"
	"os"
)

// Backend performs raw I/O on paths that have already been resolved against
// the storage root. Confinement and operation semantics live in Service;
// implementations must treat every path as opaque and final.
type Backend interface {
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	MkdirAll(path string) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
	RemoveAll(path string) error
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Close() error
}

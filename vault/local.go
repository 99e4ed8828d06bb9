package vault

import (
	"io"
	"os"
)

// LocalBackend implements Backend directly on the host filesystem.
type LocalBackend struct{}

func NewLocalBackend() *LocalBackend {
	return &LocalBackend{}
}

func (*LocalBackend) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (*LocalBackend) ReadDir(path string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry removed between readdir and stat; skip it.
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (*LocalBackend) MkdirAll(path string) error {
	return os.MkdirAll(path, 0750)
}

func (*LocalBackend) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (*LocalBackend) Remove(path string) error {
	return os.Remove(path)
}

func (*LocalBackend) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (*LocalBackend) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (*LocalBackend) Create(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
}

func (*LocalBackend) Close() error {
	return nil
}

package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// Operation failures are wrapped around one of these sentinels so callers can
// classify them with errors.Is. Messages carry paths relative to the storage
// root only; the absolute root never appears in an error.
var (
	ErrTraversal     = errors.New("path escapes storage root")
	ErrNotFound      = errors.New("no such file or directory")
	ErrNotADirectory = errors.New("not a directory")
	ErrNotAFile      = errors.New("not a file")
	ErrInvalidName   = errors.New("invalid name")
	ErrExists        = errors.New("already exists")
	ErrConflict      = errors.New("destination already exists")
	ErrCrossDevice   = errors.New("cannot move across devices")
	ErrTooLarge      = errors.New("payload too large")
)

// wrapOS maps an error reported by the backend onto the taxonomy above.
// Unrecognized errors pass through with their *PathError/*LinkError wrapper
// stripped, since those embed absolute paths.
func wrapOS(op, rel string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, rel, ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s %s: %w", op, rel, ErrExists)
	case errors.Is(err, syscall.EXDEV):
		return fmt.Errorf("%s %s: %w", op, rel, ErrCrossDevice)
	case errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%s %s: %w", op, rel, ErrNotADirectory)
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s %s: %v", op, rel, pathErr.Err)
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return fmt.Errorf("%s %s: %v", op, rel, linkErr.Err)
	}
	return fmt.Errorf("%s %s: %v", op, rel, err)
}

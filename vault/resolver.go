package vault

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Resolver turns untrusted relative paths into absolute paths guaranteed to
// lie inside a fixed storage root. It performs string computation only, never
// I/O, so a rejected path is guaranteed side-effect-free.
//
// Every filesystem-touching operation must route every externally supplied
// path through Resolve before any stat/read/write/rename/delete call.
type Resolver struct {
	root string
}

// NewResolver fixes the storage root for the lifetime of the process. The
// root is made absolute and cleaned once; it never changes afterwards.
func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage root: %v", err)
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute storage root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve joins the given untrusted segments under the storage root,
// normalizes the result, and returns the absolute path. It fails with
// ErrTraversal unless the result is the root itself or a proper descendant
// of it on a path-segment boundary, so a sibling like /data2 can never pass
// for /data.
func (r *Resolver) Resolve(segments ...string) (string, error) {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, r.root)
	for _, s := range segments {
		parts = append(parts, filepath.FromSlash(s))
	}
	resolved := filepath.Join(parts...)

	if resolved != r.root && !strings.HasPrefix(resolved, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("resolve %s: %w", path.Join(segments...), ErrTraversal)
	}
	return resolved, nil
}

// Rel expresses an already-resolved absolute path as a slash-separated path
// relative to the root. The root itself maps to "".
func (r *Resolver) Rel(abs string) string {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

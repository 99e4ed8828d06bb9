package vault

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver(t *testing.T) {
	root := filepath.Join(t.TempDir(), "storage")
	r, err := NewResolver(root)
	require.NoError(t, err)

	t.Run("empty path resolves to the root", func(t *testing.T) {
		abs, err := r.Resolve("")
		assert.NoError(t, err)
		assert.Equal(t, r.Root(), abs)
	})

	t.Run("plain relative paths resolve inside the root", func(t *testing.T) {
		abs, err := r.Resolve("docs/report.txt")
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(r.Root(), "docs", "report.txt"), abs)
	})

	t.Run("dot-dot inside the root collapses", func(t *testing.T) {
		abs, err := r.Resolve("docs/../music/a.mp3")
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(r.Root(), "music", "a.mp3"), abs)
	})

	t.Run("multiple segments join", func(t *testing.T) {
		abs, err := r.Resolve("docs", "nested", "file.txt")
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(r.Root(), "docs", "nested", "file.txt"), abs)
	})

	t.Run("escape attempts fail with ErrTraversal", func(t *testing.T) {
		for _, p := range []string{
			"..",
			"../",
			"../../etc/passwd",
			"docs/../../outside",
			"a/b/../../../outside",
		} {
			_, err := r.Resolve(p)
			assert.ErrorIs(t, err, ErrTraversal, "path %q", p)
		}
	})

	t.Run("sibling prefix does not pass", func(t *testing.T) {
		// /storage2 must not count as inside /storage.
		_, err := r.Resolve("../storage2")
		assert.ErrorIs(t, err, ErrTraversal)
		_, err = r.Resolve("..", "storage2", "file")
		assert.ErrorIs(t, err, ErrTraversal)
	})

	t.Run("error message carries the relative path only", func(t *testing.T) {
		_, err := r.Resolve("../../etc")
		require.Error(t, err)
		assert.NotContains(t, err.Error(), r.Root())
	})

	t.Run("Rel round-trips", func(t *testing.T) {
		abs, err := r.Resolve("docs/report.txt")
		require.NoError(t, err)
		assert.Equal(t, "docs/report.txt", r.Rel(abs))
		assert.Equal(t, "", r.Rel(r.Root()))
	})
}

func TestNewResolverRejectsEmptyRoot(t *testing.T) {
	_, err := NewResolver("")
	assert.Error(t, err)
}

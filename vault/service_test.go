package vault

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	svc, err := NewService(t.TempDir(), NewLocalBackend(), opts, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func writeFile(t *testing.T, svc *Service, rel, content string) {
	t.Helper()
	abs := filepath.Join(svc.Root(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0750))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0640))
}

func TestServiceList(t *testing.T) {
	svc := newTestService(t, Options{})

	writeFile(t, svc, "b.txt", "bb")
	writeFile(t, svc, "a.txt", "a")
	require.NoError(t, os.Mkdir(filepath.Join(svc.Root(), "zdir"), 0750))

	t.Run("directories first then names ascending", func(t *testing.T) {
		items, err := svc.List("")
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "zdir", items[0].Name)
		assert.Equal(t, KindDirectory, items[0].Kind)
		assert.Equal(t, "a.txt", items[1].Name)
		assert.Equal(t, "b.txt", items[2].Name)
	})

	t.Run("file entries carry size, directory entries do not", func(t *testing.T) {
		items, err := svc.List("")
		require.NoError(t, err)
		assert.Nil(t, items[0].Size)
		require.NotNil(t, items[1].Size)
		assert.Equal(t, int64(1), *items[1].Size)
		assert.Equal(t, "1.0 B", items[1].HumanSize)
	})

	t.Run("entry paths are relative", func(t *testing.T) {
		items, err := svc.List("")
		require.NoError(t, err)
		assert.Equal(t, "a.txt", items[1].Path)
	})

	t.Run("listing twice is stable", func(t *testing.T) {
		first, err := svc.List("")
		require.NoError(t, err)
		second, err := svc.List("")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := svc.List("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("file is not a directory", func(t *testing.T) {
		_, err := svc.List("a.txt")
		assert.ErrorIs(t, err, ErrNotADirectory)
	})

	t.Run("traversal never reaches the filesystem", func(t *testing.T) {
		_, err := svc.List("../..")
		assert.ErrorIs(t, err, ErrTraversal)
	})
}

func TestServiceStat(t *testing.T) {
	svc := newTestService(t, Options{})
	writeFile(t, svc, "docs/report.txt", "hello")

	item, err := svc.Stat("docs/report.txt")
	require.NoError(t, err)
	assert.Equal(t, "report.txt", item.Name)
	assert.Equal(t, "docs/report.txt", item.Path)
	assert.Equal(t, KindFile, item.Kind)
	require.NotNil(t, item.Size)
	assert.Equal(t, int64(5), *item.Size)

	_, err = svc.Stat("docs/missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceCreateDirectory(t *testing.T) {
	svc := newTestService(t, Options{})

	t.Run("create and list round-trip", func(t *testing.T) {
		require.NoError(t, svc.CreateDirectory("", "X"))

		items, err := svc.List("")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "X", items[0].Name)
		assert.Equal(t, KindDirectory, items[0].Kind)

		require.NoError(t, svc.Delete("X"))
		items, err = svc.List("")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("existing path conflicts", func(t *testing.T) {
		require.NoError(t, svc.CreateDirectory("", "docs"))
		assert.ErrorIs(t, svc.CreateDirectory("", "docs"), ErrExists)
	})

	t.Run("traversal names are invalid", func(t *testing.T) {
		assert.ErrorIs(t, svc.CreateDirectory("", "../../etc"), ErrInvalidName)
	})

	t.Run("unsafe characters are stripped from the name", func(t *testing.T) {
		require.NoError(t, svc.CreateDirectory("", "pro:ject?"))
		_, err := svc.Stat("project")
		assert.NoError(t, err)
	})
}

func TestServiceDelete(t *testing.T) {
	svc := newTestService(t, Options{})

	t.Run("file", func(t *testing.T) {
		writeFile(t, svc, "gone.txt", "x")
		require.NoError(t, svc.Delete("gone.txt"))
		_, err := svc.Stat("gone.txt")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("directory with descendants", func(t *testing.T) {
		writeFile(t, svc, "tree/deep/file.txt", "x")
		require.NoError(t, svc.Delete("tree"))
		_, err := svc.Stat("tree")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing target", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete("missing"), ErrNotFound)
	})

	t.Run("storage root is not deletable", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(""), ErrInvalidName)
	})

	t.Run("concurrent deletes of the same file", func(t *testing.T) {
		writeFile(t, svc, "raced.txt", "x")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = svc.Delete("raced.txt")
			}(i)
		}
		wg.Wait()

		var ok, notFound int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			default:
				assert.ErrorIs(t, err, ErrNotFound)
				notFound++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, notFound)
	})
}

func TestServiceRename(t *testing.T) {
	svc := newTestService(t, Options{})

	t.Run("renames to a sibling", func(t *testing.T) {
		writeFile(t, svc, "docs/report.txt", "content")

		require.NoError(t, svc.Rename("docs/report.txt", "final.txt"))

		_, err := svc.Stat("docs/report.txt")
		assert.ErrorIs(t, err, ErrNotFound)
		item, err := svc.Stat("docs/final.txt")
		require.NoError(t, err)
		assert.Equal(t, "final.txt", item.Name)
	})

	t.Run("destination must not exist", func(t *testing.T) {
		writeFile(t, svc, "docs/a.txt", "a")
		writeFile(t, svc, "docs/b.txt", "b")

		assert.ErrorIs(t, svc.Rename("docs/a.txt", "b.txt"), ErrConflict)

		// Both sides untouched.
		data, err := os.ReadFile(filepath.Join(svc.Root(), "docs", "b.txt"))
		require.NoError(t, err)
		assert.Equal(t, "b", string(data))
	})

	t.Run("missing source", func(t *testing.T) {
		assert.ErrorIs(t, svc.Rename("missing.txt", "x.txt"), ErrNotFound)
	})

	t.Run("separator names are invalid", func(t *testing.T) {
		writeFile(t, svc, "docs/c.txt", "c")
		assert.ErrorIs(t, svc.Rename("docs/c.txt", "../c.txt"), ErrInvalidName)
	})
}

func TestServiceMove(t *testing.T) {
	svc := newTestService(t, Options{})

	t.Run("moves into an existing directory", func(t *testing.T) {
		writeFile(t, svc, "inbox/todo.txt", "t")
		require.NoError(t, svc.CreateDirectory("", "archive"))

		require.NoError(t, svc.Move("inbox/todo.txt", "archive"))

		_, err := svc.Stat("inbox/todo.txt")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = svc.Stat("archive/todo.txt")
		assert.NoError(t, err)
	})

	t.Run("conflict leaves both sides unchanged", func(t *testing.T) {
		writeFile(t, svc, "a/f.txt", "from-a")
		writeFile(t, svc, "b/f.txt", "from-b")

		assert.ErrorIs(t, svc.Move("a/f.txt", "b"), ErrConflict)

		dataA, err := os.ReadFile(filepath.Join(svc.Root(), "a", "f.txt"))
		require.NoError(t, err)
		assert.Equal(t, "from-a", string(dataA))
		dataB, err := os.ReadFile(filepath.Join(svc.Root(), "b", "f.txt"))
		require.NoError(t, err)
		assert.Equal(t, "from-b", string(dataB))
	})

	t.Run("target must be an existing directory", func(t *testing.T) {
		writeFile(t, svc, "loose.txt", "x")
		writeFile(t, svc, "plain.txt", "x")

		assert.ErrorIs(t, svc.Move("loose.txt", "nowhere"), ErrNotFound)
		assert.ErrorIs(t, svc.Move("loose.txt", "plain.txt"), ErrNotADirectory)
	})

	t.Run("missing source", func(t *testing.T) {
		require.NoError(t, svc.CreateDirectory("", "dst"))
		assert.ErrorIs(t, svc.Move("missing.txt", "dst"), ErrNotFound)
	})
}

func TestServiceUpload(t *testing.T) {
	t.Run("writes the stream", func(t *testing.T) {
		svc := newTestService(t, Options{})

		item, err := svc.Upload("", "notes.txt", strings.NewReader("hello world"))
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", item.Path)
		require.NotNil(t, item.Size)
		assert.Equal(t, int64(11), *item.Size)

		data, err := os.ReadFile(filepath.Join(svc.Root(), "notes.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(data))
	})

	t.Run("overwrites an existing file", func(t *testing.T) {
		svc := newTestService(t, Options{})
		writeFile(t, svc, "notes.txt", "old")

		_, err := svc.Upload("", "notes.txt", strings.NewReader("new"))
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(svc.Root(), "notes.txt"))
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("creates intermediate directories for nested names", func(t *testing.T) {
		svc := newTestService(t, Options{})

		item, err := svc.Upload("", "photos/2024/img.bin", strings.NewReader("px"))
		require.NoError(t, err)
		assert.Equal(t, "photos/2024/img.bin", item.Path)
	})

	t.Run("traversal in the name is invalid", func(t *testing.T) {
		svc := newTestService(t, Options{})
		_, err := svc.Upload("", "../escape.txt", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("limit violation leaves nothing behind", func(t *testing.T) {
		svc := newTestService(t, Options{MaxUploadBytes: 8})

		_, err := svc.Upload("", "big.bin", strings.NewReader("way more than eight bytes"))
		assert.ErrorIs(t, err, ErrTooLarge)

		entries, err := os.ReadDir(svc.Root())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestServiceOpen(t *testing.T) {
	svc := newTestService(t, Options{})
	writeFile(t, svc, "docs/readme.txt", "plain text here")

	t.Run("streams the file with a content type", func(t *testing.T) {
		f, err := svc.Open("docs/readme.txt")
		require.NoError(t, err)
		defer f.Close()

		assert.Contains(t, f.ContentType, "text/plain")
		assert.Equal(t, "readme.txt", f.Item.Name)

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "plain text here", string(data))
	})

	t.Run("unknown extensions sniff or fall back to binary", func(t *testing.T) {
		writeFile(t, svc, "blob.xyz123", "\x00\x01\x02\x03")
		f, err := svc.Open("blob.xyz123")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "application/octet-stream", f.ContentType)
	})

	t.Run("directories are not files", func(t *testing.T) {
		_, err := svc.Open("docs")
		assert.ErrorIs(t, err, ErrNotAFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := svc.Open("docs/nope.txt")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestServicePreview(t *testing.T) {
	svc := newTestService(t, Options{PreviewLimitBytes: 16})

	t.Run("small text is inlined", func(t *testing.T) {
		writeFile(t, svc, "small.txt", "short")

		p, err := svc.Preview("small.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("short"), p.Inline)
		assert.Nil(t, p.Stream)
	})

	t.Run("large text is streamed", func(t *testing.T) {
		writeFile(t, svc, "large.txt", strings.Repeat("a", 64))

		p, err := svc.Preview("large.txt")
		require.NoError(t, err)
		assert.Nil(t, p.Inline)
		require.NotNil(t, p.Stream)
		defer p.Stream.Close()

		data, err := io.ReadAll(p.Stream)
		require.NoError(t, err)
		assert.Len(t, data, 64)
	})

	t.Run("non-inlineable types are streamed regardless of size", func(t *testing.T) {
		writeFile(t, svc, "tiny.pdf", "%PDF-1.4")

		p, err := svc.Preview("tiny.pdf")
		require.NoError(t, err)
		assert.Nil(t, p.Inline)
		require.NotNil(t, p.Stream)
		p.Stream.Close()
	})
}

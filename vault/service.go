// Package vault implements the storage core of lanvault: resolution of
// untrusted relative paths against a single storage root, and the filesystem
// operations every endpoint goes through.
//
// The Service keeps no state between calls. The filesystem itself is the only
// source of truth; concurrent operations on the same path are unordered and
// surface whatever the filesystem reports.
package vault

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// DefaultMaxUploadBytes bounds the total payload of one upload call.
	DefaultMaxUploadBytes = 50 << 20
	// DefaultPreviewLimitBytes is the largest payload Preview will buffer
	// whole instead of streaming.
	DefaultPreviewLimitBytes = 5 << 20
)

// Options tune the size policies of a Service. Zero values select defaults.
type Options struct {
	MaxUploadBytes    int64
	PreviewLimitBytes int64
}

// Service exposes the file operations over a confined storage root. All path
// arguments are untrusted relative paths; each is routed through the Resolver
// before any backend call, and any resolution failure short-circuits the
// operation.
type Service struct {
	resolver *Resolver
	backend  Backend
	opts     Options
	log      *zap.Logger
}

// NewService builds a Service rooted at root on the given backend.
func NewService(root string, backend Backend, opts Options, log *zap.Logger) (*Service, error) {
	resolver, err := NewResolver(root)
	if err != nil {
		return nil, err
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.PreviewLimitBytes <= 0 {
		opts.PreviewLimitBytes = DefaultPreviewLimitBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		resolver: resolver,
		backend:  backend,
		opts:     opts,
		log:      log,
	}, nil
}

// Root returns the absolute storage root.
func (s *Service) Root() string {
	return s.resolver.Root()
}

// MaxUploadBytes returns the configured upload limit.
func (s *Service) MaxUploadBytes() int64 {
	return s.opts.MaxUploadBytes
}

// List returns the immediate children of a directory, directories first and
// each group ordered ascending by name under locale-aware collation.
func (s *Service) List(dirPath string) ([]ItemInfo, error) {
	abs, err := s.resolver.Resolve(dirPath)
	if err != nil {
		return nil, err
	}
	rel := s.resolver.Rel(abs)

	info, err := s.backend.Stat(abs)
	if err != nil {
		return nil, wrapOS("list", rel, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %s: %w", rel, ErrNotADirectory)
	}

	infos, err := s.backend.ReadDir(abs)
	if err != nil {
		return nil, wrapOS("list", rel, err)
	}

	items := make([]ItemInfo, 0, len(infos))
	for _, fi := range infos {
		items = append(items, makeItem(path.Join(rel, fi.Name()), fi))
	}

	// Collators are not safe for concurrent use, so each call gets its own.
	c := collate.New(language.Und)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind == KindDirectory
		}
		return c.CompareString(items[i].Name, items[j].Name) < 0
	})

	s.log.Debug("list", zap.String("path", rel), zap.Int("entries", len(items)))
	return items, nil
}

// Stat describes a single entry.
func (s *Service) Stat(p string) (ItemInfo, error) {
	abs, err := s.resolver.Resolve(p)
	if err != nil {
		return ItemInfo{}, err
	}
	rel := s.resolver.Rel(abs)

	info, err := s.backend.Stat(abs)
	if err != nil {
		return ItemInfo{}, wrapOS("stat", rel, err)
	}
	return makeItem(rel, info), nil
}

// CreateDirectory creates a directory called name under parentPath. The name
// is sanitized first; anything already occupying the target path is a
// conflict. Missing intermediate directories under the (already validated)
// parent are created.
func (s *Service) CreateDirectory(parentPath, name string) error {
	clean, err := SanitizeName(name)
	if err != nil {
		return err
	}
	abs, err := s.resolver.Resolve(parentPath, clean)
	if err != nil {
		return err
	}
	rel := s.resolver.Rel(abs)

	if _, err := s.backend.Stat(abs); err == nil {
		return fmt.Errorf("mkdir %s: %w", rel, ErrExists)
	}
	if err := s.backend.MkdirAll(abs); err != nil {
		return wrapOS("mkdir", rel, err)
	}

	s.log.Info("mkdir", zap.String("path", rel))
	return nil
}

// Delete removes a file, or a directory with all of its descendants.
// Deletion is immediate and irreversible; there is no trash.
func (s *Service) Delete(p string) error {
	abs, err := s.resolver.Resolve(p)
	if err != nil {
		return err
	}
	rel := s.resolver.Rel(abs)
	if abs == s.resolver.Root() {
		return fmt.Errorf("delete %s: storage root: %w", rel, ErrInvalidName)
	}

	info, err := s.backend.Stat(abs)
	if err != nil {
		return wrapOS("delete", rel, err)
	}

	if info.IsDir() {
		err = s.backend.RemoveAll(abs)
	} else {
		err = s.backend.Remove(abs)
	}
	if err != nil {
		return wrapOS("delete", rel, err)
	}

	s.log.Info("delete", zap.String("path", rel), zap.Bool("dir", info.IsDir()))
	return nil
}

// Rename gives the entry at oldPath a new name inside the same parent
// directory. The destination must not exist: like Move, Rename refuses to
// clobber, so the two operations stay consistent.
func (s *Service) Rename(oldPath, newName string) error {
	clean, err := SanitizeName(newName)
	if err != nil {
		return err
	}
	oldAbs, err := s.resolver.Resolve(oldPath)
	if err != nil {
		return err
	}
	oldRel := s.resolver.Rel(oldAbs)
	if oldAbs == s.resolver.Root() {
		return fmt.Errorf("rename %s: storage root: %w", oldRel, ErrInvalidName)
	}

	newAbs, err := s.resolver.Resolve(path.Dir(oldRel), clean)
	if err != nil {
		return err
	}
	newRel := s.resolver.Rel(newAbs)

	if _, err := s.backend.Stat(oldAbs); err != nil {
		return wrapOS("rename", oldRel, err)
	}
	if _, err := s.backend.Stat(newAbs); err == nil {
		return fmt.Errorf("rename %s to %s: %w", oldRel, newRel, ErrConflict)
	}
	if err := s.backend.Rename(oldAbs, newAbs); err != nil {
		return wrapOS("rename", oldRel, err)
	}

	s.log.Info("rename", zap.String("from", oldRel), zap.String("to", newRel))
	return nil
}

// Move relocates the entry at sourcePath into the existing directory at
// targetDirPath, keeping its base name. A destination that already exists is
// a conflict; Move never silently overwrites. A rename the filesystem cannot
// perform across devices surfaces as ErrCrossDevice, with no implicit
// copy-and-delete fallback.
func (s *Service) Move(sourcePath, targetDirPath string) error {
	srcAbs, err := s.resolver.Resolve(sourcePath)
	if err != nil {
		return err
	}
	srcRel := s.resolver.Rel(srcAbs)
	if srcAbs == s.resolver.Root() {
		return fmt.Errorf("move %s: storage root: %w", srcRel, ErrInvalidName)
	}

	dirAbs, err := s.resolver.Resolve(targetDirPath)
	if err != nil {
		return err
	}
	dirRel := s.resolver.Rel(dirAbs)

	if _, err := s.backend.Stat(srcAbs); err != nil {
		return wrapOS("move", srcRel, err)
	}
	dirInfo, err := s.backend.Stat(dirAbs)
	if err != nil {
		return wrapOS("move", dirRel, err)
	}
	if !dirInfo.IsDir() {
		return fmt.Errorf("move to %s: %w", dirRel, ErrNotADirectory)
	}

	dstAbs, err := s.resolver.Resolve(dirRel, path.Base(srcRel))
	if err != nil {
		return err
	}
	dstRel := s.resolver.Rel(dstAbs)

	if _, err := s.backend.Stat(dstAbs); err == nil {
		return fmt.Errorf("move %s to %s: %w", srcRel, dstRel, ErrConflict)
	}
	if err := s.backend.Rename(srcAbs, dstAbs); err != nil {
		return wrapOS("move", srcRel, err)
	}

	s.log.Info("move", zap.String("from", srcRel), zap.String("to", dstRel))
	return nil
}

// Upload writes a stream to name under dirPath, overwriting any existing
// file. The name may encode a nested relative path (folder upload); each
// segment is sanitized independently and missing intermediate directories
// are created. The write goes through a temporary file, so a stream that
// exceeds the upload limit fails with ErrTooLarge and leaves nothing behind.
func (s *Service) Upload(dirPath, name string, r io.Reader) (ItemInfo, error) {
	relName, err := SanitizeRelPath(name)
	if err != nil {
		return ItemInfo{}, err
	}
	abs, err := s.resolver.Resolve(dirPath, relName)
	if err != nil {
		return ItemInfo{}, err
	}
	rel := s.resolver.Rel(abs)

	if err := s.backend.MkdirAll(filepath.Dir(abs)); err != nil {
		return ItemInfo{}, wrapOS("upload", rel, err)
	}

	tmp := abs + ".uploading"
	w, err := s.backend.Create(tmp)
	if err != nil {
		return ItemInfo{}, wrapOS("upload", rel, err)
	}

	n, err := io.Copy(w, io.LimitReader(r, s.opts.MaxUploadBytes+1))
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.backend.Remove(tmp)
		return ItemInfo{}, wrapOS("upload", rel, err)
	}
	if n > s.opts.MaxUploadBytes {
		s.backend.Remove(tmp)
		return ItemInfo{}, fmt.Errorf("upload %s: %w", rel, ErrTooLarge)
	}

	// SFTP rename does not overwrite, so clear an existing destination file
	// explicitly. New uploads racing on the same name resolve to whichever
	// rename lands last.
	if info, err := s.backend.Stat(abs); err == nil && !info.IsDir() {
		s.backend.Remove(abs)
	}
	if err := s.backend.Rename(tmp, abs); err != nil {
		s.backend.Remove(tmp)
		return ItemInfo{}, wrapOS("upload", rel, err)
	}

	info, err := s.backend.Stat(abs)
	if err != nil {
		return ItemInfo{}, wrapOS("upload", rel, err)
	}

	s.log.Info("upload", zap.String("path", rel), zap.Int64("bytes", n))
	return makeItem(rel, info), nil
}

// File is an open download: a stream plus the metadata a caller needs to
// serve it (content type and original base name for a disposition hint).
type File struct {
	io.ReadCloser
	Item        ItemInfo
	ContentType string
}

// Open returns a readable stream for the file at p. Directories fail with
// ErrNotAFile. The content type comes from the file name, with content
// sniffing for unknown extensions; unknown content maps to a generic binary
// type.
func (s *Service) Open(p string) (*File, error) {
	abs, err := s.resolver.Resolve(p)
	if err != nil {
		return nil, err
	}
	rel := s.resolver.Rel(abs)

	info, err := s.backend.Stat(abs)
	if err != nil {
		return nil, wrapOS("open", rel, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", rel, ErrNotAFile)
	}

	rc, err := s.backend.Open(abs)
	if err != nil {
		return nil, wrapOS("open", rel, err)
	}

	ct, reader := ContentType(info.Name(), rc)
	return &File{
		ReadCloser:  readCloser{Reader: reader, Closer: rc},
		Item:        makeItem(rel, info),
		ContentType: ct,
	}, nil
}

// Preview is either a fully buffered payload (Inline set) or a lazy stream
// (Stream set; the caller must close it).
type Preview struct {
	Inline      []byte
	Stream      io.ReadCloser
	ContentType string
	Item        ItemInfo
}

// Preview opens p like Open, but buffers textual and image content whole
// when it is under the preview threshold. Everything else, including large
// text and images, is returned as a stream so the caller never has to hold
// it in memory.
func (s *Service) Preview(p string) (*Preview, error) {
	f, err := s.Open(p)
	if err != nil {
		return nil, err
	}

	size := int64(0)
	if f.Item.Size != nil {
		size = *f.Item.Size
	}

	if inlineable(f.ContentType) && size <= s.opts.PreviewLimitBytes {
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, wrapOS("preview", f.Item.Path, err)
		}
		return &Preview{Inline: data, ContentType: f.ContentType, Item: f.Item}, nil
	}

	return &Preview{Stream: f, ContentType: f.ContentType, Item: f.Item}, nil
}

func makeItem(rel string, fi os.FileInfo) ItemInfo {
	item := ItemInfo{
		Name:     fi.Name(),
		Path:     rel,
		Kind:     KindFile,
		Modified: FormatModTime(fi.ModTime()),
	}
	if fi.IsDir() {
		item.Kind = KindDirectory
		return item
	}
	size := fi.Size()
	item.Size = &size
	item.HumanSize = FormatSize(size)
	return item
}

// readCloser pairs a replacement reader with the original closer.
type readCloser struct {
	io.Reader
	io.Closer
}

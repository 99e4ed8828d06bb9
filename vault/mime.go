package vault

import (
	"bytes"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const sniffLen = 3072

// ContentType classifies a file by its extension, falling back to content
// sniffing when the extension is unknown. Sniffing consumes the head of r,
// so the returned reader must be used in place of the original.
func ContentType(name string, r io.Reader) (string, io.Reader) {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct, r
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "application/octet-stream", io.MultiReader(bytes.NewReader(header[:n]), r)
	}
	header = header[:n]

	ct := mimetype.Detect(header).String()
	return ct, io.MultiReader(bytes.NewReader(header), r)
}

// inlineable reports whether a content type is small-preview material:
// textual or image payloads are buffered whole when under the preview
// threshold, everything else is streamed.
func inlineable(contentType string) bool {
	base := contentType
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	switch {
	case strings.HasPrefix(base, "text/"),
		strings.HasPrefix(base, "image/"),
		base == "application/json",
		base == "application/xml",
		base == "application/javascript":
		return true
	}
	return false
}

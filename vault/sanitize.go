package vault

import (
	"fmt"
	"path"
	"strings"
)

// Characters that are unsafe in entry names on at least one supported host
// filesystem. Separators are handled separately and rejected outright.
const unsafeNameChars = `:*?"<>|`

// SanitizeName validates a single file or folder name. Separator characters
// are rejected rather than stripped, so "../../etc" can never collapse into
// something that resolves. Unsafe characters and control bytes are stripped;
// a name that is empty (or a dot entry) after sanitization fails with
// ErrInvalidName.
func SanitizeName(name string) (string, error) {
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}

	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(unsafeNameChars, r) {
			continue
		}
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == ".." {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return out, nil
}

// SanitizeRelPath validates a name that may encode a nested relative path,
// as browsers send for folder uploads. Each segment is sanitized
// independently and the survivors are rejoined with forward slashes. Empty
// and "." segments are dropped; any other invalid segment fails the whole
// path.
func SanitizeRelPath(p string) (string, error) {
	p = strings.ReplaceAll(p, `\`, "/")

	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		clean, err := SanitizeName(seg)
		if err != nil {
			return "", fmt.Errorf("%q: %w", p, ErrInvalidName)
		}
		parts = append(parts, clean)
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%q: %w", p, ErrInvalidName)
	}
	return path.Join(parts...), nil
}

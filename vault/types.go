package vault

// Kind distinguishes the two entry types a listing can contain.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// ItemInfo describes a single filesystem entry. Path is always relative to
// the storage root with forward slashes, so it can be fed straight back into
// another operation. Size is nil for directories.
type ItemInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Kind      Kind   `json:"kind"`
	Size      *int64 `json:"size,omitempty"`
	HumanSize string `json:"humanSize,omitempty"`
	Modified  string `json:"modified"`
}

package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1 << 20, "1.0 MB"},
		{(1 << 30) + (1 << 29), "1.5 GB"},
		{1 << 40, "1.0 TB"},
		// Scaling stops at TB.
		{1 << 50, "1024.0 TB"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, FormatSize(c.n), "n=%d", c.n)
	}
}

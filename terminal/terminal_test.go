package terminal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHandlerShellFallback(t *testing.T) {
	t.Run("explicit shell wins", func(t *testing.T) {
		h := NewHandler("/bin/bash", "/tmp", time.Minute, nil)
		assert.Equal(t, "/bin/bash", h.shell)
	})

	t.Run("falls back to the environment", func(t *testing.T) {
		t.Setenv("SHELL", "/usr/bin/fish")
		h := NewHandler("", "/tmp", time.Minute, nil)
		assert.Equal(t, "/usr/bin/fish", h.shell)
	})

	t.Run("last resort is /bin/sh", func(t *testing.T) {
		t.Setenv("SHELL", "")
		h := NewHandler("", "/tmp", time.Minute, nil)
		assert.Equal(t, "/bin/sh", h.shell)
	})
}

func TestSessionIdleTracking(t *testing.T) {
	s := &session{lastActive: time.Now().Add(-time.Hour)}
	assert.Greater(t, s.idle(), 59*time.Minute)

	s.touch()
	assert.Less(t, s.idle(), time.Second)
}

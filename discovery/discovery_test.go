package discovery

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New(Config{Instance: "box", Port: 8686}, nil)
	require.NotNil(t, a)
	assert.Equal(t, "box", a.cfg.Instance)
	assert.NotNil(t, a.log)
}

func TestLocalIP(t *testing.T) {
	ip := localIP()
	assert.NotNil(t, net.ParseIP(ip))
}

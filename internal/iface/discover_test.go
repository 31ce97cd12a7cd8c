package iface_test

import (
	"testing"

	"github.com/bugVanisher/drcstream/internal/iface"
	"github.com/stretchr/testify/require"
)

func TestDiscover_InvalidAddress(t *testing.T) {
	_, err := iface.Discover("not-an-ip")
	require.Error(t, err)
}

func TestDiscover_NoMatchingInterface(t *testing.T) {
	// TEST-NET-3 (RFC 5737), never legitimately bound to a local interface.
	_, err := iface.Discover("203.0.113.1")
	require.Error(t, err)
}

package x264_test

import (
	"testing"

	"github.com/bugVanisher/drcstream/internal/x264"
	"github.com/stretchr/testify/require"
)

func TestMbPerFrameAndChunk(t *testing.T) {
	require.Equal(t, 1620, x264.MbPerFrame())
	require.Equal(t, 324, x264.MbPerChunk())
}

func TestChunkIndex(t *testing.T) {
	cases := []struct {
		firstMb int
		want    int
	}{
		{0, 0},
		{323, 0},
		{324, 1},
		{648, 2},
		{972, 3},
		{1296, 4},
		{1619, 4},
	}
	for _, c := range cases {
		require.Equal(t, c.want, x264.ChunkIndex(c.firstMb), "firstMb=%d", c.firstMb)
	}
}

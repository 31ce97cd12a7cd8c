package vstrm_test

import (
	"bytes"
	"testing"

	"github.com/bugVanisher/drcstream/internal/vstrm"
	"github.com/bugVanisher/drcstream/internal/wire"
	"github.com/stretchr/testify/require"
)

func chunksOf(sizes ...int) [][]byte {
	out := make([][]byte, len(sizes))
	for i, n := range sizes {
		out[i] = bytes.Repeat([]byte{byte(i + 1)}, n)
	}
	return out
}

func TestFragment_FrameBeginAndEndAreUnique(t *testing.T) {
	packets, _, err := vstrm.Fragment(chunksOf(100, 2000, 50, 50, 50), 0, 123, true, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)

	begins, ends := 0, 0
	for _, p := range packets {
		if p.Header.FrameBegin {
			begins++
			require.Equal(t, packets[0], p)
		}
		if p.Header.FrameEnd {
			ends++
			require.Equal(t, packets[len(packets)-1], p)
		}
	}
	require.Equal(t, 1, begins)
	require.Equal(t, 1, ends)
}

func TestFragment_OneChunkEndPerChunk(t *testing.T) {
	chunks := chunksOf(100, 2000, 1400, 1, 50)
	packets, _, err := vstrm.Fragment(chunks, 0, 0, false, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)

	chunkEnds := 0
	for _, p := range packets {
		if p.Header.ChunkEnd {
			chunkEnds++
		}
	}
	require.Equal(t, len(chunks), chunkEnds)
}

func TestFragment_PayloadSizeMatchesBody(t *testing.T) {
	packets, _, err := vstrm.Fragment(chunksOf(1500, 300), 0, 0, false, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)
	for _, p := range packets {
		require.Equal(t, int(p.Header.PayloadSize), len(p.Payload))
	}
}

func TestFragment_ConcatenationReproducesChunks(t *testing.T) {
	chunks := chunksOf(1500, 300, 1400, 1401, 5)
	packets, _, err := vstrm.Fragment(chunks, 0, 0, false, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)

	var reassembled []byte
	for _, p := range packets {
		reassembled = append(reassembled, p.Payload...)
	}
	var want []byte
	for _, c := range chunks {
		want = append(want, c...)
	}
	require.Equal(t, want, reassembled)
}

func TestFragment_SeqIDIncreasesByOne(t *testing.T) {
	packets, next, err := vstrm.Fragment(chunksOf(1500, 300, 50), 1020, 0, false, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)

	prev := packets[0].Header.SeqID
	for _, p := range packets[1:] {
		require.Equal(t, (prev+1)%vstrm.SeqIDModulus, p.Header.SeqID)
		prev = p.Header.SeqID
	}
	require.Equal(t, (prev+1)%vstrm.SeqIDModulus, next)
}

func TestFragment_SeqIDWrapsAt1024(t *testing.T) {
	packets, next, err := vstrm.Fragment(chunksOf(1), 1023, 0, false, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.Equal(t, uint16(1023), packets[0].Header.SeqID)
	require.Equal(t, uint16(0), next)
}

func TestFragment_IdrAddsExtensionToAllPackets(t *testing.T) {
	packets, _, err := vstrm.Fragment(chunksOf(1500, 50), 0, 0, false, true, wire.FrameRateTwentyFive)
	require.NoError(t, err)
	for _, p := range packets {
		require.Contains(t, p.Header.ExtHeaders, wire.OptIdr())
	}
}

func TestFragment_ExactlyOneChunkOfMaxPayload(t *testing.T) {
	packets, _, err := vstrm.Fragment(chunksOf(vstrm.MaxPayloadSize), 0, 0, false, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.True(t, packets[0].Header.ChunkEnd)
}

func TestFragment_OneByteOverMaxPayloadSplitsInTwo(t *testing.T) {
	packets, _, err := vstrm.Fragment(chunksOf(vstrm.MaxPayloadSize+1), 0, 0, false, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)
	require.Len(t, packets, 2)
	require.Equal(t, vstrm.MaxPayloadSize, int(packets[0].Header.PayloadSize))
	require.Equal(t, 1, int(packets[1].Header.PayloadSize))
	require.False(t, packets[0].Header.ChunkEnd)
	require.True(t, packets[1].Header.ChunkEnd)
}

func TestFragment_EmptyChunkIsRejected(t *testing.T) {
	_, _, err := vstrm.Fragment(chunksOf(100, 0, 50), 0, 0, false, false, wire.FrameRateTwentyFive)
	require.Error(t, err)
}

func TestFragment_DefaultExtensionOrdering(t *testing.T) {
	packets, _, err := vstrm.Fragment(chunksOf(10), 0, 0, false, true, wire.FrameRateTwentyFive)
	require.NoError(t, err)
	require.Len(t, packets, 1)

	b, err := packets[0].Header.Bytes()
	require.NoError(t, err)
	require.Equal(t, [8]byte{0x80, 0x83, 0x85, 0x06, 0x82, 0x03, 0x00, 0x00}, [8]byte(b[8:16]))
}

func TestFragment_ResyncFrameFlagsOnFirstPacket(t *testing.T) {
	// First chunk spans more than one fragment, so its first packet
	// is frame_begin but not also chunk_end.
	packets, _, err := vstrm.Fragment(chunksOf(1500, 10, 10, 10, 10), 0, 0, true, true, wire.FrameRateTwentyFive)
	require.NoError(t, err)
	require.NotEmpty(t, packets)

	h := packets[0].Header
	require.True(t, h.Init)
	require.True(t, h.FrameBegin)
	require.False(t, h.ChunkEnd)
	require.False(t, h.FrameEnd)
	require.True(t, h.HasTimestamp)
	require.Contains(t, h.ExtHeaders, wire.OptIdr())
}

func TestFragment_TinyChunkIsAloneAndChunkEndSet(t *testing.T) {
	// A chunk small enough to fit in a single fragment is, by
	// construction, both the first and last fragment of that chunk.
	packets, _, err := vstrm.Fragment(chunksOf(200), 0, 0, true, false, wire.FrameRateTwentyFive)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.True(t, packets[0].Header.ChunkEnd)
	require.True(t, packets[0].Header.FrameEnd)

	b, err := packets[0].Header.Bytes()
	require.NoError(t, err)
	require.Equal(t, byte(200), b[3])
	require.Equal(t, byte(0), b[2]&0b111) // payload_size high bits zero for sizes < 256
}

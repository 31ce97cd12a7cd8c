package wire_test

import (
	"errors"
	"testing"

	"github.com/bugVanisher/drcstream/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestEncodeExtOptions_S2(t *testing.T) {
	got, err := wire.EncodeExtOptions([]wire.ExtOption{
		wire.OptForceDecoding(),
		wire.OptNumMbRowsInChunk(6),
		wire.OptFrameRate(wire.FrameRateTwentyFive),
	})
	require.NoError(t, err)
	require.Equal(t, [8]byte{0x83, 0x85, 0x06, 0x82, 0x03, 0x00, 0x00, 0x00}, got)
}

func TestEncodeExtOptions_S3(t *testing.T) {
	got, err := wire.EncodeExtOptions([]wire.ExtOption{
		wire.OptIdr(),
		wire.OptForceDecoding(),
		wire.OptNumMbRowsInChunk(6),
		wire.OptFrameRate(wire.FrameRateTwentyFive),
	})
	require.NoError(t, err)
	require.Equal(t, [8]byte{0x80, 0x83, 0x85, 0x06, 0x82, 0x03, 0x00, 0x00}, got)
}

func TestExtOptions_RoundTrip(t *testing.T) {
	cases := [][]wire.ExtOption{
		{},
		{wire.OptIdr()},
		{wire.OptForceDecoding(), wire.OptNumMbRowsInChunk(6)},
		{wire.OptIdr(), wire.OptForceDecoding(), wire.OptNumMbRowsInChunk(6), wire.OptFrameRate(wire.FrameRateFifty)},
		{wire.OptUnimplemented(0x42)},
		{wire.OptUnsetForceFlag(), wire.OptFrameRate(wire.FrameRateSixty)},
	}
	for _, opts := range cases {
		encoded, err := wire.EncodeExtOptions(opts)
		require.NoError(t, err)
		decoded, err := wire.DecodeExtOptions(encoded)
		require.NoError(t, err)
		if len(opts) == 0 {
			require.Empty(t, decoded)
			continue
		}
		require.Equal(t, opts, decoded)
	}
}

func TestExtOptions_TooLong(t *testing.T) {
	opts := []wire.ExtOption{
		wire.OptUnimplemented(1),
		wire.OptUnimplemented(2),
		wire.OptUnimplemented(3),
		wire.OptUnimplemented(4),
		wire.OptUnimplemented(5),
	}
	_, err := wire.EncodeExtOptions(opts)
	require.Error(t, err)
	require.True(t, errors.Is(err, wire.ErrData))
}

func TestDecodeExtOptions_UnknownTag(t *testing.T) {
	_, err := wire.DecodeExtOptions([8]byte{0x7F, 0, 0, 0, 0, 0, 0, 0})
	require.Error(t, err)
	require.True(t, errors.Is(err, wire.ErrData))
}

func TestVstrmHeader_S1FirstPacket(t *testing.T) {
	h := wire.DefaultVstrmHeader()
	h.SeqID = 0
	h.Init = true
	h.FrameBegin = true
	h.PayloadSize = 200 // < 256, so payload_size's high 3 bits are zero
	h.Timestamp = 0
	h.ExtHeaders = []wire.ExtOption{
		wire.OptForceDecoding(),
		wire.OptNumMbRowsInChunk(6),
		wire.OptFrameRate(wire.FrameRateTwentyFive),
	}

	b, err := h.Bytes()
	require.NoError(t, err)
	require.Equal(t, byte(0xF0), b[0]) // magic=F, pt=0, seq high bits=0
	require.Equal(t, byte(0x00), b[1]) // seq low byte
	require.Equal(t, byte(0xC8), b[2]) // init=1 frame_begin=1 chunk_end=0 frame_end=0 has_ts=1 size_hi=000
	require.Equal(t, byte(200), b[3])  // payload_size low byte
}

func TestVstrmHeader_PayloadSizeWrapsAcrossByteBoundary(t *testing.T) {
	h := wire.DefaultVstrmHeader()
	h.PayloadSize = 1400 // 0b101_0111_1000 -> hi 3 bits 0b101, lo byte 0x78
	b, err := h.Bytes()
	require.NoError(t, err)
	require.Equal(t, byte(0b101), b[2]&0b111)
	require.Equal(t, byte(0x78), b[3])
}

func TestVstrmHeader_SeqIDTopBitsInByte0(t *testing.T) {
	h := wire.DefaultVstrmHeader()
	h.SeqID = 1023 // max 10-bit value before wrap
	b, err := h.Bytes()
	require.NoError(t, err)
	require.Equal(t, byte(0xF0|0b11), b[0])
	require.Equal(t, byte(0xFF), b[1])
}

func TestVstrmHeader_TimestampBigEndian(t *testing.T) {
	h := wire.DefaultVstrmHeader()
	h.Timestamp = 0x01020304
	b, err := h.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b[4:8])
}

func TestVstrmHeader_ExtHeaderTooLongPropagates(t *testing.T) {
	h := wire.DefaultVstrmHeader()
	h.ExtHeaders = []wire.ExtOption{
		wire.OptUnimplemented(1), wire.OptUnimplemented(2),
		wire.OptUnimplemented(3), wire.OptUnimplemented(4),
		wire.OptUnimplemented(5),
	}
	_, err := h.Bytes()
	require.Error(t, err)
	require.True(t, errors.Is(err, wire.ErrData))
}

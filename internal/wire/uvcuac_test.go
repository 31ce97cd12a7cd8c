package wire_test

import (
	"testing"

	"github.com/bugVanisher/drcstream/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestUvcUacPayload_DefaultHasMicFreq(t *testing.T) {
	p := wire.DefaultUvcUacPayload()
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, wire.UvcUacPayloadSize)
	require.Equal(t, []byte{0x3E, 0x80}, b[12:14]) // mic_freq big-endian 16000
}

func TestUvcUacPayload_RoundTrip(t *testing.T) {
	p := wire.UvcUacPayload{
		MicEnable:       1,
		MicVolume:       -10,
		MicJackVolume:   20,
		MicFreq:         16000,
		CamEnable:       1,
		CamPowerFreq:    50,
		CamAutoExpo:     1,
		CamExpoAbsolute: 156,
		CamBrightness:   128,
		CamWhiteBalance: 4600,
	}
	b, err := p.MarshalBinary()
	require.NoError(t, err)

	var decoded wire.UvcUacPayload
	require.NoError(t, decoded.UnmarshalBinary(b))
	require.Equal(t, p, decoded)
}

func TestUvcUacPayload_ReservedTailIsZero(t *testing.T) {
	p := wire.DefaultUvcUacPayload()
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, make([]byte, wire.UvcUacPayloadSize-48), b[48:])
}

func TestUvcUacResponse_UnmarshalBinary(t *testing.T) {
	buf := make([]byte, wire.UvcUacResponseSize)
	buf[0], buf[1] = 0xF6, 0xFF // -10 little-endian
	buf[2], buf[3] = 0x14, 0x00 // 20 little-endian
	buf[12] = 1                 // mic_enabled
	buf[13] = 50                // cam_power_freq
	buf[14] = 1                 // cam_auto_expo

	var r wire.UvcUacResponse
	require.NoError(t, r.UnmarshalBinary(buf))
	require.Equal(t, int16(-10), r.MicVolume)
	require.Equal(t, int16(20), r.MicJackVolume)
	require.Equal(t, uint8(1), r.MicEnabled)
	require.Equal(t, uint8(50), r.CamPowerFreq)
	require.Equal(t, uint8(1), r.CamAutoExpo)
}

func TestUvcUacResponse_ShortBuffer(t *testing.T) {
	var r wire.UvcUacResponse
	err := r.UnmarshalBinary(make([]byte, 5))
	require.ErrorIs(t, err, wire.ErrShortPacket)
}

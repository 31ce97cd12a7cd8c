package wire

import (
	"encoding/binary"
	"fmt"
)

// UvcUacPayloadSize is the wire size of a UVC/UAC control payload:
// the fields below occupy the first 48 bytes, the remaining 6 are
// reserved and sent zeroed.
const UvcUacPayloadSize = 54

// UvcUacQueryType identifies this payload to the Command Handler.
const UvcUacQueryType uint8 = 1

// UvcUacPayload is the camera/microphone control surface sent to the
// GamePad. All multi-byte fields are big-endian except
// where the GamePad's firmware disagrees with itself; this layout is
// reverse-engineered and intentionally not "cleaned up".
type UvcUacPayload struct {
	F1                  uint8
	Unknown0            uint8
	Unknown1            uint8
	F3                  uint8
	MicEnable           uint8
	MicMute             uint8
	MicVolume           int16
	MicJackVolume       int16
	Unknown2            uint8
	Unknown3            uint8
	MicFreq             uint16
	CamEnable           uint8
	CamPower            uint8
	CamPowerFreq        uint8
	CamAutoExpo         uint8
	CamExpoAbsolute     uint32
	CamBrightness       uint16
	CamContrast         uint16
	CamGain             uint16
	CamHue              uint16
	CamSaturation       uint16
	CamSharpness        uint16
	CamGamma            uint16
	CamKeyFrame         uint8
	CamWhiteBalanceAuto uint8
	CamWhiteBalance     uint32
	CamMultiplier       uint16
	CamMultiplierLimit  uint16
	Unknown4            uint8
	Unknown5            uint8
}

// DefaultUvcUacPayload returns the zero-valued payload with the
// firmware's one non-zero default: a 16kHz microphone sample rate.
func DefaultUvcUacPayload() UvcUacPayload {
	return UvcUacPayload{MicFreq: 16000}
}

// QueryType identifies this payload to the Command Handler's dispatch.
func (UvcUacPayload) QueryType() uint16 { return uint16(UvcUacQueryType) }

// MarshalBinary encodes the payload to its 54-byte wire form.
func (p UvcUacPayload) MarshalBinary() ([]byte, error) {
	buf := make([]byte, UvcUacPayloadSize)
	buf[0] = p.F1
	buf[1] = p.Unknown0
	buf[2] = p.Unknown1
	buf[3] = p.F3
	buf[4] = p.MicEnable
	buf[5] = p.MicMute
	binary.BigEndian.PutUint16(buf[6:8], uint16(p.MicVolume))
	binary.BigEndian.PutUint16(buf[8:10], uint16(p.MicJackVolume))
	buf[10] = p.Unknown2
	buf[11] = p.Unknown3
	binary.BigEndian.PutUint16(buf[12:14], p.MicFreq)
	buf[14] = p.CamEnable
	buf[15] = p.CamPower
	buf[16] = p.CamPowerFreq
	buf[17] = p.CamAutoExpo
	binary.BigEndian.PutUint32(buf[18:22], p.CamExpoAbsolute)
	binary.BigEndian.PutUint16(buf[22:24], p.CamBrightness)
	binary.BigEndian.PutUint16(buf[24:26], p.CamContrast)
	binary.BigEndian.PutUint16(buf[26:28], p.CamGain)
	binary.BigEndian.PutUint16(buf[28:30], p.CamHue)
	binary.BigEndian.PutUint16(buf[30:32], p.CamSaturation)
	binary.BigEndian.PutUint16(buf[32:34], p.CamSharpness)
	binary.BigEndian.PutUint16(buf[34:36], p.CamGamma)
	buf[36] = p.CamKeyFrame
	buf[37] = p.CamWhiteBalanceAuto
	binary.BigEndian.PutUint32(buf[38:42], p.CamWhiteBalance)
	binary.BigEndian.PutUint16(buf[42:44], p.CamMultiplier)
	binary.BigEndian.PutUint16(buf[44:46], p.CamMultiplierLimit)
	buf[46] = p.Unknown4
	buf[47] = p.Unknown5
	// buf[48:54] reserved, left zeroed.
	return buf, nil
}

// UnmarshalBinary decodes a 54-byte UVC/UAC payload, for tests and
// for re-parsing a payload this process previously sent.
func (p *UvcUacPayload) UnmarshalBinary(buf []byte) error {
	if len(buf) < UvcUacPayloadSize {
		return fmt.Errorf("%w: uvc/uac payload needs %d bytes, got %d", ErrShortPacket, UvcUacPayloadSize, len(buf))
	}
	p.F1 = buf[0]
	p.Unknown0 = buf[1]
	p.Unknown1 = buf[2]
	p.F3 = buf[3]
	p.MicEnable = buf[4]
	p.MicMute = buf[5]
	p.MicVolume = int16(binary.BigEndian.Uint16(buf[6:8]))
	p.MicJackVolume = int16(binary.BigEndian.Uint16(buf[8:10]))
	p.Unknown2 = buf[10]
	p.Unknown3 = buf[11]
	p.MicFreq = binary.BigEndian.Uint16(buf[12:14])
	p.CamEnable = buf[14]
	p.CamPower = buf[15]
	p.CamPowerFreq = buf[16]
	p.CamAutoExpo = buf[17]
	p.CamExpoAbsolute = binary.BigEndian.Uint32(buf[18:22])
	p.CamBrightness = binary.BigEndian.Uint16(buf[22:24])
	p.CamContrast = binary.BigEndian.Uint16(buf[24:26])
	p.CamGain = binary.BigEndian.Uint16(buf[26:28])
	p.CamHue = binary.BigEndian.Uint16(buf[28:30])
	p.CamSaturation = binary.BigEndian.Uint16(buf[30:32])
	p.CamSharpness = binary.BigEndian.Uint16(buf[32:34])
	p.CamGamma = binary.BigEndian.Uint16(buf[34:36])
	p.CamKeyFrame = buf[36]
	p.CamWhiteBalanceAuto = buf[37]
	p.CamWhiteBalance = binary.BigEndian.Uint32(buf[38:42])
	p.CamMultiplier = binary.BigEndian.Uint16(buf[42:44])
	p.CamMultiplierLimit = binary.BigEndian.Uint16(buf[44:46])
	p.Unknown4 = buf[46]
	p.Unknown5 = buf[47]
	return nil
}

// UvcUacResponseSize is the wire size of the GamePad's response to a
// UVC/UAC payload.
const UvcUacResponseSize = 20

// UvcUacResponse is the GamePad's little-endian reply, read by the
// keepalive loop to learn the camera/microphone state it applied.
type UvcUacResponse struct {
	MicVolume     int16
	MicJackVolume int16
	MicEnabled    uint8
	CamPowerFreq  uint8
	CamAutoExpo   uint8
}

// UnmarshalBinary decodes a 20-byte UVC/UAC response.
func (r *UvcUacResponse) UnmarshalBinary(buf []byte) error {
	if len(buf) < UvcUacResponseSize {
		return fmt.Errorf("%w: uvc/uac response needs %d bytes, got %d", ErrShortPacket, UvcUacResponseSize, len(buf))
	}
	r.MicVolume = int16(binary.LittleEndian.Uint16(buf[0:2]))
	r.MicJackVolume = int16(binary.LittleEndian.Uint16(buf[2:4]))
	// buf[4:12] is an 8-byte unknown block, ignored.
	r.MicEnabled = buf[12]
	r.CamPowerFreq = buf[13]
	r.CamAutoExpo = buf[14]
	// buf[15] is an unknown trailing byte; buf[16:20] reserved.
	return nil
}

// Package wire implements the bit-exact on-the-wire structures the
// GamePad expects: the VSTRM video header, the command header and
// generic sub-protocol, the audio packet and video-format sidecar,
// and the UVC/UAC control payload. Nothing in this package does I/O;
// it only marshals and unmarshals byte slices.
package wire

import (
	"encoding/binary"
	"fmt"
)

// VstrmHeaderSize is the fixed 16-byte size of a VSTRM packet header.
const VstrmHeaderSize = 16

// MaxExtHeaderSize is the wire budget for encoded extension options
// (bytes 8..16 of the header).
const MaxExtHeaderSize = 8

// VstrmHeader is the 16-byte big-endian bitfield header prefixing
// every VSTRM video fragment.
type VstrmHeader struct {
	PacketType   uint8 // 2 bits; 0 for data
	SeqID        uint16
	Init         bool
	FrameBegin   bool
	ChunkEnd     bool
	FrameEnd     bool
	HasTimestamp bool
	PayloadSize  uint16
	Timestamp    uint32 // low 32 bits of the TSF sample for this frame
	ExtHeaders   []ExtOption
}

// DefaultVstrmHeader returns a header with the magic nibble set, a
// data packet type, has_timestamp asserted, and the GamePad's default
// extension pair (ForceDecoding, NumMbRowsInChunk=6). Callers prepend
// Idr and append FrameRate before encoding a real fragment.
func DefaultVstrmHeader() VstrmHeader {
	return VstrmHeader{
		PacketType:   0,
		HasTimestamp: true,
		ExtHeaders: []ExtOption{
			OptForceDecoding(),
			OptNumMbRowsInChunk(6),
		},
	}
}

const vstrmMagic uint8 = 0xF

// Bytes encodes the header into its 16-byte wire form.
func (h VstrmHeader) Bytes() ([VstrmHeaderSize]byte, error) {
	var buf [VstrmHeaderSize]byte

	buf[0] = vstrmMagic << 4
	buf[0] |= (h.PacketType << 2) & 0b1100
	buf[0] |= uint8(h.SeqID>>8) & 0b11
	buf[1] = uint8(h.SeqID)

	if h.Init {
		buf[2] |= 1 << 7
	}
	if h.FrameBegin {
		buf[2] |= 1 << 6
	}
	if h.ChunkEnd {
		buf[2] |= 1 << 5
	}
	if h.FrameEnd {
		buf[2] |= 1 << 4
	}
	if h.HasTimestamp {
		buf[2] |= 1 << 3
	}
	payloadSizeBytes := [2]byte{}
	binary.BigEndian.PutUint16(payloadSizeBytes[:], h.PayloadSize)
	buf[2] |= payloadSizeBytes[0] & 0b111
	buf[3] = payloadSizeBytes[1]

	binary.BigEndian.PutUint32(buf[4:8], h.Timestamp)

	ext, err := EncodeExtOptions(h.ExtHeaders)
	if err != nil {
		return buf, err
	}
	copy(buf[8:16], ext[:])

	return buf, nil
}

// ExtOptionKind identifies a VSTRM extension header option.
type ExtOptionKind uint8

const (
	ExtIdr ExtOptionKind = iota
	ExtUnimplemented
	ExtFrameRate
	ExtForceDecoding
	ExtUnsetForceFlag
	ExtNumMbRowsInChunk
)

// ExtOption is one tag(+param) entry of the extension header.
type ExtOption struct {
	Kind  ExtOptionKind
	Param byte // meaningful for Unimplemented, FrameRate, NumMbRowsInChunk
}

func OptIdr() ExtOption                   { return ExtOption{Kind: ExtIdr} }
func OptUnimplemented(v byte) ExtOption   { return ExtOption{Kind: ExtUnimplemented, Param: v} }
func OptFrameRate(f FrameRate) ExtOption  { return ExtOption{Kind: ExtFrameRate, Param: byte(f)} }
func OptForceDecoding() ExtOption         { return ExtOption{Kind: ExtForceDecoding} }
func OptUnsetForceFlag() ExtOption        { return ExtOption{Kind: ExtUnsetForceFlag} }
func OptNumMbRowsInChunk(n byte) ExtOption {
	return ExtOption{Kind: ExtNumMbRowsInChunk, Param: n}
}

const (
	extTagIdr              byte = 0x80
	extTagUnimplemented    byte = 0x81
	extTagFrameRate        byte = 0x82
	extTagForceDecoding    byte = 0x83
	extTagUnsetForceFlag   byte = 0x84
	extTagNumMbRowsInChunk byte = 0x85
)

// EncodeExtOptions serializes options in order into an 8-byte,
// zero-padded extension block. It fails with an error wrapping ErrData
// if the tags+params don't fit in 8 bytes.
func EncodeExtOptions(options []ExtOption) ([MaxExtHeaderSize]byte, error) {
	var out [MaxExtHeaderSize]byte
	var result []byte
	for _, opt := range options {
		switch opt.Kind {
		case ExtIdr:
			result = append(result, extTagIdr)
		case ExtUnimplemented:
			result = append(result, extTagUnimplemented, opt.Param)
		case ExtFrameRate:
			result = append(result, extTagFrameRate, opt.Param)
		case ExtForceDecoding:
			result = append(result, extTagForceDecoding)
		case ExtUnsetForceFlag:
			result = append(result, extTagUnsetForceFlag)
		case ExtNumMbRowsInChunk:
			result = append(result, extTagNumMbRowsInChunk, opt.Param)
		default:
			return out, fmt.Errorf("%w: unknown option kind %d", ErrData, opt.Kind)
		}
	}
	if len(result) > MaxExtHeaderSize {
		return out, fmt.Errorf("%w: extended header is too long (%d > %d)", ErrData, len(result), MaxExtHeaderSize)
	}
	copy(out[:], result)
	return out, nil
}

// DecodeExtOptions parses an 8-byte extension block back into its
// option list. Decoding stops at the first 0x00 sentinel byte.
func DecodeExtOptions(value [MaxExtHeaderSize]byte) ([]ExtOption, error) {
	var options []ExtOption
	for i := 0; i < len(value); {
		tag := value[i]
		if tag == 0 {
			break
		}
		switch tag {
		case extTagIdr:
			options = append(options, OptIdr())
			i++
		case extTagUnimplemented:
			if i+1 >= len(value) {
				return nil, fmt.Errorf("%w: expected parameter to extended header option Unimplemented", ErrData)
			}
			options = append(options, OptUnimplemented(value[i+1]))
			i += 2
		case extTagFrameRate:
			if i+1 >= len(value) {
				return nil, fmt.Errorf("%w: expected parameter to extended header option FrameRate", ErrData)
			}
			fr, err := FrameRateFromByte(value[i+1])
			if err != nil {
				return nil, err
			}
			options = append(options, OptFrameRate(fr))
			i += 2
		case extTagForceDecoding:
			options = append(options, OptForceDecoding())
			i++
		case extTagUnsetForceFlag:
			options = append(options, OptUnsetForceFlag())
			i++
		case extTagNumMbRowsInChunk:
			if i+1 >= len(value) {
				return nil, fmt.Errorf("%w: expected parameter to extended header option NumMbRowsInChunk", ErrData)
			}
			options = append(options, OptNumMbRowsInChunk(value[i+1]))
			i += 2
		default:
			return nil, fmt.Errorf("%w: invalid value %#x for extended header option", ErrData, tag)
		}
	}
	return options, nil
}

// FrameRate is the GamePad's four-value framerate enumeration.
type FrameRate uint8

const (
	FrameRateSixty      FrameRate = 0 // 59.94
	FrameRateFifty      FrameRate = 1 // 50.0
	FrameRateThirty     FrameRate = 2 // 29.97
	FrameRateTwentyFive FrameRate = 3 // 25.0
)

// Hz returns the nominal frame frequency for pacing math.
func (f FrameRate) Hz() float64 {
	switch f {
	case FrameRateSixty:
		return 59.94
	case FrameRateFifty:
		return 50.0
	case FrameRateThirty:
		return 29.97
	case FrameRateTwentyFive:
		return 25.0
	default:
		return 0
	}
}

func FrameRateFromByte(v byte) (FrameRate, error) {
	switch v {
	case 0, 1, 2, 3:
		return FrameRate(v), nil
	default:
		return 0, fmt.Errorf("%w: invalid framerate value %d", ErrData, v)
	}
}

// ParseFrameRate maps a config-file framerate string to the wire
// enumeration, accepting either the nominal value ("60", "50", "30",
// "25") or the exact NTSC-adjusted one ("59.94", "29.97").
func ParseFrameRate(s string) (FrameRate, error) {
	switch s {
	case "60", "59.94":
		return FrameRateSixty, nil
	case "50":
		return FrameRateFifty, nil
	case "30", "29.97":
		return FrameRateThirty, nil
	case "25":
		return FrameRateTwentyFive, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized frame_rate %q", ErrData, s)
	}
}

package wire

import (
	"encoding"
	"encoding/binary"
	"fmt"
)

// CommandHeaderSize is the fixed size of a command packet header.
const CommandHeaderSize = 8

// Command packet_type values.
const (
	PacketTypeRequest       uint16 = 0
	PacketTypeAck           uint16 = 1
	PacketTypeResponse      uint16 = 2
	PacketTypeAckOfResponse uint16 = 3
)

// CommandHeader precedes every command/ack/response datagram. All
// fields are little-endian, unlike most of this protocol's other
// headers.
type CommandHeader struct {
	PacketType  uint16
	QueryType   uint16
	PayloadSize uint16
	SeqID       uint16
}

// Bytes encodes the header to its 8-byte little-endian wire form.
func (h CommandHeader) Bytes() [CommandHeaderSize]byte {
	var buf [CommandHeaderSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], h.PacketType)
	binary.LittleEndian.PutUint16(buf[2:4], h.QueryType)
	binary.LittleEndian.PutUint16(buf[4:6], h.PayloadSize)
	binary.LittleEndian.PutUint16(buf[6:8], h.SeqID)
	return buf
}

// DecodeCommandHeader parses an 8-byte command header.
func DecodeCommandHeader(buf []byte) (CommandHeader, error) {
	if len(buf) < CommandHeaderSize {
		return CommandHeader{}, fmt.Errorf("%w: command header needs %d bytes, got %d", ErrShortPacket, CommandHeaderSize, len(buf))
	}
	return CommandHeader{
		PacketType:  binary.LittleEndian.Uint16(buf[0:2]),
		QueryType:   binary.LittleEndian.Uint16(buf[2:4]),
		PayloadSize: binary.LittleEndian.Uint16(buf[4:6]),
		SeqID:       binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}

// CommandPacket is a full command datagram: header plus opaque payload
// bytes. Payload interpretation (Generic sub-protocol, UVC/UAC, ...) is
// left to the caller.
type CommandPacket struct {
	Header  CommandHeader
	Payload []byte
}

// Bytes encodes the full packet, filling in Header.PayloadSize from
// len(Payload).
func (p CommandPacket) Bytes() []byte {
	h := p.Header
	h.PayloadSize = uint16(len(p.Payload))
	hdr := h.Bytes()
	out := make([]byte, 0, CommandHeaderSize+len(p.Payload))
	out = append(out, hdr[:]...)
	out = append(out, p.Payload...)
	return out
}

// DecodeCommandPacket parses a full command datagram, validating that
// the declared payload size matches what's left of buf.
func DecodeCommandPacket(buf []byte) (CommandPacket, error) {
	hdr, err := DecodeCommandHeader(buf)
	if err != nil {
		return CommandPacket{}, err
	}
	rest := buf[CommandHeaderSize:]
	if len(rest) < int(hdr.PayloadSize) {
		return CommandPacket{}, fmt.Errorf("%w: command payload needs %d bytes, got %d", ErrShortPacket, hdr.PayloadSize, len(rest))
	}
	payload := make([]byte, hdr.PayloadSize)
	copy(payload, rest[:hdr.PayloadSize])
	return CommandPacket{Header: hdr, Payload: payload}, nil
}

// Payload is implemented by every typed command payload in this
// package (UvcUacPayload, GetUicFirmware), so typed
// payloads compose with CommandPacket via the standard marshaling
// interface instead of a bespoke one per caller.
type Payload interface {
	encoding.BinaryMarshaler
	QueryType() uint16
}

const (
	genericMagic     uint8  = 0x7E
	genericVersion   uint8  = 0x01
	genericFlags     uint8  = 0x40
	genericQueryType uint16 = 0
)

var genericID = [3]byte{0x00, 0x08, 0x00}

// GenericHeaderSize is the size of the nested Generic sub-protocol
// header carried inside a command payload.
const GenericHeaderSize = 12

// GenericHeader wraps a Generic-protocol payload: magic, version, a
// fixed 3-byte id, flags, a service/method pair, an error code, and
// the nested payload's length. All multi-byte fields big-endian.
type GenericHeader struct {
	ServiceID   uint8
	MethodID    uint8
	ErrorCode   uint16
	PayloadSize uint16
}

// Bytes encodes the Generic header, including its fixed magic/version/id/flags preamble.
func (h GenericHeader) Bytes() [GenericHeaderSize]byte {
	var buf [GenericHeaderSize]byte
	buf[0] = genericMagic
	buf[1] = genericVersion
	copy(buf[2:5], genericID[:])
	buf[5] = genericFlags
	buf[6] = h.ServiceID
	buf[7] = h.MethodID
	binary.BigEndian.PutUint16(buf[8:10], h.ErrorCode)
	binary.BigEndian.PutUint16(buf[10:12], h.PayloadSize)
	return buf
}

// DecodeGenericHeader parses a Generic sub-protocol header, checking
// the magic byte.
func DecodeGenericHeader(buf []byte) (GenericHeader, error) {
	if len(buf) < GenericHeaderSize {
		return GenericHeader{}, fmt.Errorf("%w: generic header needs %d bytes, got %d", ErrShortPacket, GenericHeaderSize, len(buf))
	}
	if buf[0] != genericMagic {
		return GenericHeader{}, fmt.Errorf("%w: generic header magic %#x, want %#x", ErrProtocolMismatch, buf[0], genericMagic)
	}
	return GenericHeader{
		ServiceID:   buf[6],
		MethodID:    buf[7],
		ErrorCode:   binary.BigEndian.Uint16(buf[8:10]),
		PayloadSize: binary.BigEndian.Uint16(buf[10:12]),
	}, nil
}

// Generic service/method identifiers used by this project.
const (
	GenericServiceUic     uint8 = 0x05
	GenericMethodFirmware uint8 = 0x06
)

// GetUicFirmware is the Generic-protocol request asking the GamePad's
// UIC for its firmware version. It carries no nested payload beyond
// the Generic header itself; the response is a 772-byte opaque blob.
type GetUicFirmware struct{}

// QueryType identifies this payload to the Command Handler's dispatch.
func (GetUicFirmware) QueryType() uint16 { return genericQueryType }

// MarshalBinary encodes the GetUicFirmware request as a Generic packet.
func (GetUicFirmware) MarshalBinary() ([]byte, error) {
	h := GenericHeader{ServiceID: GenericServiceUic, MethodID: GenericMethodFirmware, ErrorCode: 0, PayloadSize: 0}
	b := h.Bytes()
	return b[:], nil
}

// GetUicFirmwareResponseSize is the size of the opaque blob the
// GamePad returns for a GetUicFirmware request.
const GetUicFirmwareResponseSize = 772

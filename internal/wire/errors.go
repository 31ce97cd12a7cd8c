package wire

import "errors"

// Sentinel errors for the wire formats in this package. Callers use
// errors.Is against these.
var (
	// ErrData marks a malformed VSTRM extension set: too long to fit
	// in 8 bytes, or an unrecognized tag/missing parameter.
	ErrData = errors.New("wire: invalid vstrm extension data")

	// ErrProtocolMismatch marks a command reply with an unexpected
	// packet_type or payload length.
	ErrProtocolMismatch = errors.New("wire: protocol mismatch")

	// ErrShortPacket marks a datagram too small to contain its
	// declared header.
	ErrShortPacket = errors.New("wire: short packet")
)

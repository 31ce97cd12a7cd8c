package command

import (
	"fmt"

	"github.com/bugVanisher/drcstream/internal/wire"
)

// GetUicFirmware runs the GetUicFirmware generic-subprotocol request
// and returns the 772-byte firmware blob from the response, stripped
// of its generic header.
func GetUicFirmware(h *Handler) ([]byte, error) {
	raw, err := h.Command(wire.GetUicFirmware{}, ShortTimeout)
	if err != nil {
		return nil, err
	}
	if len(raw) < wire.GenericHeaderSize {
		return nil, fmt.Errorf("%w: generic response too short (%d bytes)", wire.ErrShortPacket, len(raw))
	}
	if _, err := wire.DecodeGenericHeader(raw); err != nil {
		return nil, err
	}
	blob := raw[wire.GenericHeaderSize:]
	if len(blob) != wire.GetUicFirmwareResponseSize {
		return nil, fmt.Errorf("%w: firmware blob is %d bytes, want %d", wire.ErrProtocolMismatch, len(blob), wire.GetUicFirmwareResponseSize)
	}
	return blob, nil
}

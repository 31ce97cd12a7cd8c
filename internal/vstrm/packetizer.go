// Package vstrm fragments encoded H.264 chunks into VSTRM packets:
// a pure function of a frame's chunks, pacing metadata, and a seq_id
// cursor, with no I/O of its own.
package vstrm

import (
	"fmt"

	"github.com/bugVanisher/drcstream/internal/wire"
)

// MaxPayloadSize is the wire-mandated fragment body budget. It is not
// negotiated; the GamePad's receive path assumes it.
const MaxPayloadSize = 1400

// SeqIDModulus is the wraparound point for the 10-bit video sequence
// counter.
const SeqIDModulus = 1024

// Packet is one fragment ready to send: header plus body bytes.
type Packet struct {
	Header  wire.VstrmHeader
	Payload []byte
}

// Bytes concatenates the packet's 16-byte header and body.
func (p Packet) Bytes() ([]byte, error) {
	hdr, err := p.Header.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(hdr)+len(p.Payload))
	out = append(out, hdr[:]...)
	out = append(out, p.Payload...)
	return out, nil
}

// Fragment splits a frame's chunks into VSTRM packets.
//
// chunks must hold exactly len(chunks) > 0 non-empty NAL payloads, in
// chunk order. startSeqID is the next free 10-bit sequence number;
// Fragment returns the sequence number to use for the frame after
// this one. timestamp is the low 32 bits of the TSF sample taken at
// frame start. init is true only for the very first frame sent on
// this connection. idr marks the frame as carrying an IDR slice.
// frameRate is embedded in every packet's extension header.
func Fragment(chunks [][]byte, startSeqID uint16, timestamp uint32, init, idr bool, frameRate wire.FrameRate) ([]Packet, uint16, error) {
	seqID := startSeqID
	var packets []Packet

	for i, chunk := range chunks {
		if len(chunk) == 0 {
			return nil, 0, fmt.Errorf("vstrm: chunk %d is empty", i)
		}
		firstChunk := i == 0
		lastChunk := i == len(chunks)-1
		firstPacket := true

		for len(chunk) > 0 {
			var body []byte
			if len(chunk) > MaxPayloadSize {
				body, chunk = chunk[:MaxPayloadSize], chunk[MaxPayloadSize:]
			} else {
				body, chunk = chunk, nil
			}
			lastPacket := len(chunk) == 0

			hdr := wire.DefaultVstrmHeader()
			hdr.SeqID = seqID
			hdr.Init = init
			hdr.FrameBegin = firstPacket && firstChunk
			hdr.ChunkEnd = lastPacket
			hdr.FrameEnd = lastPacket && lastChunk
			hdr.PayloadSize = uint16(len(body))
			hdr.Timestamp = timestamp
			if idr {
				hdr.ExtHeaders = append([]wire.ExtOption{wire.OptIdr()}, hdr.ExtHeaders...)
			}
			hdr.ExtHeaders = append(hdr.ExtHeaders, wire.OptFrameRate(frameRate))

			packets = append(packets, Packet{Header: hdr, Payload: body})

			seqID = (seqID + 1) % SeqIDModulus
			firstPacket = false
		}
	}

	return packets, seqID, nil
}

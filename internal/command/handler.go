// Package command implements the duplex request/ACK/response/ACK
// dialog the GamePad expects over the command UDP channel: one
// receive loop fans incoming datagrams out to any number of
// concurrent command() callers, matched by sequence ID.
package command

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/drcstream/common/errs"
	"github.com/bugVanisher/drcstream/internal/wire"
)

// ShortTimeout and LongTimeout are the two per-attempt receive
// deadlines command() callers choose between.
const (
	ShortTimeout = 100 * time.Millisecond
	LongTimeout  = time.Second
)

// maxDeadlineWindows is how many consecutive timeout windows a single
// await() will tolerate before giving up.
const maxDeadlineWindows = 10

// broadcastCapacity bounds each subscriber's backlog; the receive
// loop drops the oldest unread datagram on overflow, which is safe
// because a stalled command() caller just re-reads until its seq_id
// turns up.
const broadcastCapacity = 16

// maxDatagramSize is the largest command-channel datagram the receive
// loop will read in one call.
const maxDatagramSize = 1800

// Handler owns the command UDP socket: one receive loop, and any
// number of concurrent Command() callers racing each other's seq_ids.
type Handler struct {
	conn *net.UDPConn

	mu        sync.Mutex
	subs      map[uint64]chan []byte
	nextSubID uint64

	seqCounter atomic.Uint32
}

// New wraps an already bound-and-connected UDP socket.
func New(conn *net.UDPConn) *Handler {
	return &Handler{
		conn: conn,
		subs: make(map[uint64]chan []byte),
	}
}

// Run reads datagrams until ctx is cancelled or the socket errors,
// fanning each one out to every subscriber registered via Command().
func (h *Handler) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		h.conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, err := h.conn.Read(buf)
		if err != nil {
			h.closeAllSubs()
			if ctx.Err() != nil {
				return nil
			}
			return errs.Wrapf(errs.ErrReceive, "command: receive loop: %v", err)
		}
		raw := make([]byte, n)
		copy(raw, buf[:n])
		h.broadcast(raw)
	}
}

func (h *Handler) subscribe() (uint64, chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSubID
	h.nextSubID++
	ch := make(chan []byte, broadcastCapacity)
	h.subs[id] = ch
	return id, ch
}

func (h *Handler) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Handler) broadcast(raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- raw:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- raw:
			default:
			}
		}
	}
}

func (h *Handler) closeAllSubs() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

// Command runs the full request/ACK/response/ACK dialog for payload
// and returns the raw response payload bytes (the inner, still-encoded
// body; generic.go and uvc.go decode it per payload type). timeout is
// the per-attempt deadline for each of the two awaited datagrams —
// callers pass ShortTimeout or LongTimeout.
func (h *Handler) Command(payload wire.Payload, timeout time.Duration) ([]byte, error) {
	seqID := uint16(h.seqCounter.Add(1) - 1)

	subID, sub := h.subscribe()
	defer h.unsubscribe(subID)

	body, err := payload.MarshalBinary()
	if err != nil {
		return nil, errs.Wrapf(errs.ErrData, "command: marshal payload: %v", err)
	}

	req := wire.CommandPacket{
		Header: wire.CommandHeader{
			PacketType: wire.PacketTypeRequest,
			QueryType:  payload.QueryType(),
			SeqID:      seqID,
		},
		Payload: body,
	}
	if err := h.send(req); err != nil {
		return nil, err
	}

	ackPayload, err := h.await(sub, seqID, wire.PacketTypeAck, timeout)
	if err != nil {
		return nil, err
	}
	if len(ackPayload) != 0 {
		return nil, fmt.Errorf("%w: ack for seq %d carried %d payload bytes, want 0", errs.ErrProtocolMismatch, seqID, len(ackPayload))
	}

	respPayload, err := h.await(sub, seqID, wire.PacketTypeResponse, timeout)
	if err != nil {
		return nil, err
	}

	ack := wire.CommandPacket{
		Header: wire.CommandHeader{
			PacketType: wire.PacketTypeAckOfResponse,
			QueryType:  payload.QueryType(),
			SeqID:      seqID,
		},
	}
	if err := h.send(ack); err != nil {
		return nil, err
	}

	return respPayload, nil
}

func (h *Handler) send(pkt wire.CommandPacket) error {
	buf := pkt.Bytes()
	n, err := h.conn.Write(buf)
	if err != nil {
		return errs.Wrapf(errs.ErrSend, "command: send packet_type %d seq %d: %v", pkt.Header.PacketType, pkt.Header.SeqID, err)
	}
	if n != len(buf) {
		return errs.New(errs.CodeSend, "command: short write sending packet")
	}
	return nil
}

// await blocks until a datagram matching seqID arrives, ignoring
// datagrams for other seq_ids, until maxDeadlineWindows consecutive
// timeouts elapse with nothing matching.
func (h *Handler) await(sub chan []byte, seqID uint16, wantType uint16, timeout time.Duration) ([]byte, error) {
	windows := 0
	for {
		select {
		case raw, ok := <-sub:
			if !ok {
				return nil, errs.Wrapf(errs.ErrReceive, "command: receive loop closed while awaiting seq %d", seqID)
			}
			pkt, err := wire.DecodeCommandPacket(raw)
			if err != nil {
				log.Debug().Err(err).Msg("command: dropping malformed datagram")
				continue
			}
			if pkt.Header.SeqID != seqID {
				continue
			}
			if pkt.Header.PacketType != wantType {
				return nil, fmt.Errorf("%w: expected packet_type %d for seq %d, got %d", errs.ErrProtocolMismatch, wantType, seqID, pkt.Header.PacketType)
			}
			return pkt.Payload, nil
		case <-time.After(timeout):
			windows++
			if windows >= maxDeadlineWindows {
				return nil, errs.Wrapf(errs.ErrTimeout, "command: no reply to seq %d after %d windows", seqID, maxDeadlineWindows)
			}
		}
	}
}

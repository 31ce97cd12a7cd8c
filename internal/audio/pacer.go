package audio

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/drcstream/common/errs"
	"github.com/bugVanisher/drcstream/internal/metrics"
	"github.com/bugVanisher/drcstream/internal/wire"
)

// PacketInterval is the fixed cadence at which the pacer assembles and
// sends one packet: 8ms, matching the 1536-byte PCM payload at 48kHz
// 16-bit stereo.
const PacketInterval = 8 * time.Millisecond

// Clock is the subset of *tsf.Clock the Pacer depends on.
type Clock interface {
	Timestamp() (uint64, error)
}

// Pacer drains a FIFO into fixed-size PCM packets and sends them on
// the audio socket at PacketInterval, timestamped from the TSF clock.
// It is not safe for concurrent use: the caller runs Run on a single
// dedicated goroutine, same as video.Streamer.
type Pacer struct {
	fifo  *FIFO
	conn  *net.UDPConn
	clock Clock
	flow  *metrics.Flow

	seqID    uint16
	nextTime uint64
}

// Config collects the dependencies a Pacer needs to run. Flow is
// optional; when nil, the pacer simply doesn't record pacing stats.
type Config struct {
	FIFO  *FIFO
	Conn  *net.UDPConn
	Clock Clock
	Flow  *metrics.Flow
}

// New builds a Pacer, seeding next_time from the TSF clock.
func New(cfg Config) (*Pacer, error) {
	now, err := cfg.Clock.Timestamp()
	if err != nil {
		return nil, errs.Wrapf(errs.ErrTsfUnavailable, "audio: seeding next_time: %v", err)
	}
	return &Pacer{
		fifo:     cfg.FIFO,
		conn:     cfg.Conn,
		clock:    cfg.Clock,
		flow:     cfg.Flow,
		nextTime: now,
	}, nil
}

// Run blocks, sending one packet every PacketInterval until ctx is
// cancelled or a send fails.
func (p *Pacer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := p.step(); err != nil {
			return err
		}
	}
}

func (p *Pacer) step() error {
	now, err := p.clock.Timestamp()
	if err != nil {
		return errs.Wrapf(errs.ErrTsfUnavailable, "audio: reading tsf: %v", err)
	}

	if p.nextTime > now {
		time.Sleep(time.Duration(p.nextTime-now) * time.Microsecond)
	} else {
		log.Warn().Uint64("next_time", p.nextTime).Uint64("now", now).Msg("audio behind deadline")
	}

	sendTS, err := p.clock.Timestamp()
	if err != nil {
		return errs.Wrapf(errs.ErrTsfUnavailable, "audio: reading tsf at send time: %v", err)
	}

	payload := p.fifo.Drain(wire.AudioPayloadSize)
	pkt := wire.AudioPacket{
		SeqID:     p.seqID,
		Timestamp: uint32(sendTS),
	}
	copy(pkt.Payload[:], payload) // short reads leave the remainder zeroed

	buf := pkt.Bytes()
	n, err := p.conn.Write(buf[:])
	if err != nil {
		return errs.Wrapf(errs.ErrSend, "audio: send packet: %v", err)
	}
	if n != len(buf) {
		return errs.New(errs.CodeSend, "audio: short write sending packet")
	}
	if p.flow != nil {
		p.flow.StatAudio(uint64(n), int64(p.nextTime))
	}

	p.seqID = (p.seqID + 1) % 1024
	p.nextTime += uint64(PacketInterval / time.Microsecond)
	return nil
}

// Package video runs the GamePad video pipeline: pull a frame from
// the mailbox, encode it, fragment it, pace it against the TSF clock,
// and send it.
package video

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/drcstream/common/errs"
	"github.com/bugVanisher/drcstream/internal/frame"
	"github.com/bugVanisher/drcstream/internal/metrics"
	"github.com/bugVanisher/drcstream/internal/vstrm"
	"github.com/bugVanisher/drcstream/internal/wire"
	"github.com/bugVanisher/drcstream/internal/x264"
)

// behindThreshold is the "Behind by more than 50ms" pacing trip wire.
const behindThreshold = 50_000 * time.Microsecond

// catchUpPause is how far past tsf_now() the next frame is rescheduled
// once the streamer falls behind by more than behindThreshold.
const catchUpPause = 100_000 * time.Microsecond

// Encoder is the subset of *x264.Encoder the Streamer depends on, so
// tests can substitute a fake.
type Encoder interface {
	Encode(y, u, v []byte, resync bool) ([x264.ChunksPerFrame][]byte, bool, error)
}

// Clock is the subset of *tsf.Clock the Streamer depends on, so tests
// can substitute a fake TSF source.
type Clock interface {
	Timestamp() (uint64, error)
}

// Streamer owns the encoder, the mailbox, and the video/audio UDP
// sockets, and runs the TSF-paced frame loop. It is not safe for
// concurrent use: the caller runs Run on a single dedicated goroutine.
type Streamer struct {
	mailbox   *frame.Mailbox
	encoder   Encoder
	videoConn *net.UDPConn
	audioConn *net.UDPConn
	clock     Clock
	frameRate wire.FrameRate

	resync *atomic.Bool
	flow   *metrics.Flow

	seqID         uint16
	initial       bool
	nextTimestamp uint64
}

// Config collects the dependencies a Streamer needs to run. Flow is
// optional; when nil, the streamer simply doesn't record pacing stats.
type Config struct {
	Mailbox   *frame.Mailbox
	Encoder   Encoder
	VideoConn *net.UDPConn
	AudioConn *net.UDPConn
	Clock     Clock
	FrameRate wire.FrameRate
	Resync    *atomic.Bool
	Flow      *metrics.Flow
}

// New builds a Streamer, seeding next_timestamp from the TSF clock.
func New(cfg Config) (*Streamer, error) {
	now, err := cfg.Clock.Timestamp()
	if err != nil {
		return nil, errs.Wrapf(errs.ErrTsfUnavailable, "video: seeding next_timestamp: %v", err)
	}
	return &Streamer{
		mailbox:       cfg.Mailbox,
		encoder:       cfg.Encoder,
		videoConn:     cfg.VideoConn,
		audioConn:     cfg.AudioConn,
		clock:         cfg.Clock,
		frameRate:     cfg.FrameRate,
		resync:        cfg.Resync,
		flow:          cfg.Flow,
		initial:       true,
		nextTimestamp: now,
	}, nil
}

// Run blocks, streaming frames until ctx is cancelled or a fatal
// error occurs. The caller runs this on a dedicated goroutine: the
// encoder call is CPU-bound and not cancellation-safe mid-frame.
func (s *Streamer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := s.step(ctx); err != nil {
			return err
		}
	}
}

func (s *Streamer) step(ctx context.Context) error {
	f, ok := s.mailbox.Take(ctx)
	if !ok {
		return ctx.Err()
	}

	resync := s.resync.CompareAndSwap(true, false)
	img := f.AsImage()

	chunks, idr, err := s.encoder.Encode(img.Y, img.U, img.V, resync || s.initial)
	if err != nil {
		return errs.Wrapf(errs.ErrEncoder, "video: encode: %v", err)
	}
	initFlag := s.initial
	s.initial = false
	if idr {
		log.Info().Msg("idr")
	}

	chunkSlices := make([][]byte, len(chunks))
	for i := range chunks {
		chunkSlices[i] = chunks[i]
	}
	packets, nextSeqID, err := vstrm.Fragment(chunkSlices, s.seqID, uint32(s.nextTimestamp), initFlag, idr, s.frameRate)
	if err != nil {
		return errs.Wrapf(errs.ErrData, "video: fragment: %v", err)
	}
	s.seqID = nextSeqID

	sidecar := wire.VideoFormat{Timestamp: uint32(s.nextTimestamp)}.Bytes()
	scheduleUS := int64(s.nextTimestamp)

	if err := s.pace(); err != nil {
		return err
	}

	if _, err := s.audioConn.Write(sidecar[:]); err != nil {
		return errs.Wrapf(errs.ErrSend, "video: send video-format sidecar: %v", err)
	}
	var sent uint64
	for _, p := range packets {
		buf, err := p.Bytes()
		if err != nil {
			return errs.Wrapf(errs.ErrData, "video: encode packet: %v", err)
		}
		n, err := s.videoConn.Write(buf)
		if err != nil {
			return errs.Wrapf(errs.ErrSend, "video: send fragment: %v", err)
		}
		if n != len(buf) {
			return errs.New(errs.CodeSend, "video: short write sending fragment")
		}
		sent += uint64(n)
	}
	if s.flow != nil {
		s.flow.StatVideo(sent, scheduleUS)
	}
	return nil
}

// pace sleeps until next_timestamp, or snaps next_timestamp forward if
// the streamer has fallen more than behindThreshold behind, then
// advances next_timestamp for the following frame.
func (s *Streamer) pace() error {
	now, err := s.clock.Timestamp()
	if err != nil {
		return errs.Wrapf(errs.ErrTsfUnavailable, "video: reading tsf: %v", err)
	}

	if s.nextTimestamp > now {
		time.Sleep(time.Duration(s.nextTimestamp-now) * time.Microsecond)
	} else if now > s.nextTimestamp+uint64(behindThreshold/time.Microsecond) {
		log.Warn().Msg("Behind by more than 50 ms, pausing 100ms")
		s.nextTimestamp = now + uint64(catchUpPause/time.Microsecond)
		return nil
	}
	s.nextTimestamp += uint64(1_000_000 / s.frameRate.Hz())
	return nil
}

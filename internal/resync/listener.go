// Package resync implements the control listener the GamePad uses to
// ask the host to force an IDR: a tiny UDP loop that
// does nothing but watch for one magic datagram and flip a flag the
// Video Streamer polls.
package resync

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/drcstream/common/errs"
)

// sentinel is the 4-byte payload that requests a resync. Any other
// payload of any length is logged and ignored.
var sentinel = [4]byte{1, 0, 0, 0}

// Listener reads control datagrams on its UDP socket and sets Resync
// true whenever it sees the resync sentinel.
type Listener struct {
	conn   *net.UDPConn
	resync *atomic.Bool
}

// New wraps an already-bound UDP socket and the shared flag the Video
// Streamer consumes.
func New(conn *net.UDPConn, resync *atomic.Bool) *Listener {
	return &Listener{conn: conn, resync: resync}
}

// Run reads datagrams until ctx is cancelled or the socket errors. It
// is driven by cmd/serve.go's errgroup; per spec this loop is never
// expected to exit on its own.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, 64)
	for {
		n, err := l.conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errs.Wrapf(errs.ErrReceive, "resync: reading datagram: %v", err)
		}

		if n == len(sentinel) && [4]byte(buf[:4]) == sentinel {
			l.resync.Store(true)
			log.Info().Msg("resync requested")
			continue
		}
		log.Warn().Int("len", n).Bytes("payload", buf[:n]).Msg("resync: ignoring unrecognized payload")
	}
}

package command

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bugVanisher/drcstream/internal/wire"
)

// keepaliveInterval is how often the UVC/UAC keepalive task re-sends
// the current control payload.
const keepaliveInterval = time.Second

// UvcState holds the camera/microphone control payload the keepalive
// loop sends, and the last response the GamePad reported back. Safe
// for concurrent use: callers may update Desired while the keepalive
// loop reads it and writes Last.
type UvcState struct {
	mu      sync.Mutex
	desired wire.UvcUacPayload
	last    wire.UvcUacResponse
}

// NewUvcState seeds Desired with the default control payload (mic
// frequency 16kHz, everything else zeroed/off).
func NewUvcState() *UvcState {
	return &UvcState{desired: wire.DefaultUvcUacPayload()}
}

// SetDesired replaces the payload the next keepalive tick will send.
func (s *UvcState) SetDesired(p wire.UvcUacPayload) {
	s.mu.Lock()
	s.desired = p
	s.mu.Unlock()
}

// Last returns the most recent response the GamePad sent back.
func (s *UvcState) Last() wire.UvcUacResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *UvcState) snapshot() wire.UvcUacPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desired
}

// record saves the GamePad's response and folds its reported fields
// back into desired, so the next keepalive tick re-sends the state the
// GamePad actually applied rather than drifting from it.
func (s *UvcState) record(r wire.UvcUacResponse) {
	s.mu.Lock()
	s.last = r
	s.desired.MicVolume = r.MicVolume
	s.desired.MicJackVolume = r.MicJackVolume
	s.desired.MicEnable = r.MicEnabled
	s.desired.CamPowerFreq = r.CamPowerFreq
	s.desired.CamAutoExpo = r.CamAutoExpo
	s.mu.Unlock()
}

// RunUvcKeepalive sends the current UVC/UAC control payload every
// second and updates state from each response, until ctx is
// cancelled. A single failed round is logged and retried on the next
// tick rather than ending the loop, since the GamePad occasionally
// misses a keepalive without dropping the control connection.
func RunUvcKeepalive(ctx context.Context, h *Handler, state *UvcState) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		raw, err := h.Command(state.snapshot(), ShortTimeout)
		if err != nil {
			log.Warn().Err(err).Msg("uvc/uac keepalive round failed")
		} else {
			var resp wire.UvcUacResponse
			if err := resp.UnmarshalBinary(raw); err != nil {
				log.Warn().Err(err).Msg("uvc/uac keepalive: malformed response")
			} else {
				state.record(resp)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(keepaliveInterval):
		}
	}
}

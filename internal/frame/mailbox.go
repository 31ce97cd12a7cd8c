package frame

import (
	"context"
	"sync"
)

// Mailbox is a single-slot frame handoff: producers overwrite the
// pending frame, the consumer reads and clears it. There is no
// queueing — under encoder slowdown, dropping frames is the intended
// policy, not backpressure.
type Mailbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending Frame
	has     bool
	closed  bool
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Push sets the pending frame, replacing whatever was there, and
// wakes the consumer.
func (m *Mailbox) Push(f Frame) {
	m.mu.Lock()
	m.pending = f
	m.has = true
	m.mu.Unlock()
	m.cond.Signal()
}

// TryTake returns the pending frame and clears the slot, or false if
// the mailbox is empty. Non-blocking.
func (m *Mailbox) TryTake() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return nil, false
	}
	f := m.pending
	m.pending = nil
	m.has = false
	return f, true
}

// Take blocks until a frame is pending or the mailbox is closed, then
// returns it. Returns false if the mailbox was closed with nothing
// pending.
func (m *Mailbox) Take(ctx context.Context) (Frame, bool) {
	done := make(chan struct{})
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				m.cond.Broadcast()
			case <-done:
			}
		}()
		defer close(done)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for !m.has && !m.closed {
		if ctx != nil && ctx.Err() != nil {
			return nil, false
		}
		m.cond.Wait()
	}
	if !m.has {
		return nil, false
	}
	f := m.pending
	m.pending = nil
	m.has = false
	return f, true
}

// Close wakes any blocked consumer permanently; subsequent Take calls
// return immediately with ok=false once the slot drains.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
}

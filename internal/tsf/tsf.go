// Package tsf reads the 802.11 Time Synchronization Function counter
// exposed by the Wi-Fi driver at /sys/class/net/<iface>/tsf. The
// counter is a free-running 64-bit microsecond value; this package
// only reads it, it never tries to steer it.
package tsf

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/bugVanisher/drcstream/internal/iface"
)

// Clock holds an open handle to the TSF pseudo-file so repeated reads
// avoid the cost of re-opening it. It is not safe for concurrent use
// by multiple goroutines calling Timestamp simultaneously (callers in
// this repo only ever own one Clock per goroutine: the video streamer
// and the audio pacer each keep their own).
type Clock struct {
	file *os.File
}

// Open discovers the interface carrying hostAddr's subnet and opens
// its TSF file. The returned Clock owns the file and must be closed.
func Open(hostAddr string) (*Clock, error) {
	name, err := iface.Discover(hostAddr)
	if err != nil {
		return nil, fmt.Errorf("tsf: %w", err)
	}
	f, err := os.Open(fmt.Sprintf("/sys/class/net/%s/tsf", name))
	if err != nil {
		return nil, fmt.Errorf("tsf: opening tsf file for %s: %w", name, err)
	}
	return &Clock{file: f}, nil
}

// Timestamp returns the current microsecond counter value. It reads
// from offset zero on every call rather than seeking, so the handle
// can be reused without tracking cursor position.
func (c *Clock) Timestamp() (uint64, error) {
	var buf [8]byte
	if _, err := c.file.ReadAt(buf[:], 0); err != nil {
		return 0, fmt.Errorf("tsf: reading counter: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (c *Clock) Close() error {
	return c.file.Close()
}

// Timestamp is the one-shot form: discover, open, read, close. No
// command in this repository calls it; the long-running components
// always use a cached Clock.
func Timestamp(hostAddr string) (uint64, error) {
	c, err := Open(hostAddr)
	if err != nil {
		return 0, err
	}
	defer c.Close()
	return c.Timestamp()
}

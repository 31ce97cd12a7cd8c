package video_test

import (
	"context"
	"encoding/binary"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bugVanisher/drcstream/internal/frame"
	"github.com/bugVanisher/drcstream/internal/video"
	"github.com/bugVanisher/drcstream/internal/wire"
	"github.com/bugVanisher/drcstream/internal/x264"
	"github.com/stretchr/testify/require"
)

type fakeImage struct{}

func (fakeImage) AsImage() frame.Image {
	return frame.Image{Width: 1, Height: 1, Y: []byte{1}, U: []byte{2}, V: []byte{3}}
}

// fakeEncoder records the resync flag it was called with on each
// Encode call and always reports the chunk count the packetizer
// expects, so Streamer's own fragmentation logic is exercised.
type fakeEncoder struct {
	idr    bool
	resync []bool
}

func (e *fakeEncoder) Encode(y, u, v []byte, resync bool) ([x264.ChunksPerFrame][]byte, bool, error) {
	e.resync = append(e.resync, resync)
	var chunks [x264.ChunksPerFrame][]byte
	for i := range chunks {
		chunks[i] = []byte{byte(i), 0xAA, 0xBB}
	}
	return chunks, e.idr, nil
}

// fakeClock never advances on its own; tests push it forward between
// steps to control whether a step runs "on time" or "behind".
type fakeClock struct {
	now atomic.Uint64
}

func (c *fakeClock) Timestamp() (uint64, error) {
	return c.now.Load(), nil
}

func udpPair(t *testing.T) (sender, receiver *net.UDPConn) {
	t.Helper()
	recv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	send, err := net.DialUDP("udp", nil, recv.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	t.Cleanup(func() {
		send.Close()
		recv.Close()
	})
	return send, recv
}

type testRig struct {
	streamer  *video.Streamer
	mailbox   *frame.Mailbox
	videoRecv *net.UDPConn
	audioRecv *net.UDPConn
	clock     *fakeClock
	resync    *atomic.Bool
	enc       *fakeEncoder
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	mbox := frame.NewMailbox()
	videoSend, videoRecv := udpPair(t)
	audioSend, audioRecv := udpPair(t)
	enc := &fakeEncoder{}
	clock := &fakeClock{}
	var resync atomic.Bool

	s, err := video.New(video.Config{
		Mailbox:   mbox,
		Encoder:   enc,
		VideoConn: videoSend,
		AudioConn: audioSend,
		Clock:     clock,
		FrameRate: wire.FrameRateTwentyFive,
		Resync:    &resync,
	})
	require.NoError(t, err)

	return &testRig{
		streamer:  s,
		mailbox:   mbox,
		videoRecv: videoRecv,
		audioRecv: audioRecv,
		clock:     clock,
		resync:    &resync,
		enc:       enc,
	}
}

// readSidecar blocks for the next video-format sidecar datagram and
// returns its embedded timestamp field.
func (r *testRig) readSidecar(t *testing.T) uint32 {
	t.Helper()
	buf := make([]byte, wire.VideoFormatSize)
	require.NoError(t, r.audioRecv.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := r.audioRecv.Read(buf)
	require.NoError(t, err)
	require.Equal(t, wire.VideoFormatSize, n)
	return binary.LittleEndian.Uint32(buf[8:12])
}

// drainVideoPackets reads exactly n VSTRM datagrams produced by one
// frame (one fragment per chunk, since every test chunk here is well
// under MaxPayloadSize).
func (r *testRig) drainVideoPackets(t *testing.T, n int) [][]byte {
	t.Helper()
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, 2000)
		require.NoError(t, r.videoRecv.SetReadDeadline(time.Now().Add(2*time.Second)))
		got, err := r.videoRecv.Read(buf)
		require.NoError(t, err)
		out = append(out, buf[:got])
	}
	return out
}

func TestNew_SeedsNextTimestampFromClock(t *testing.T) {
	clock := &fakeClock{}
	clock.now.Store(5000)
	mbox := frame.NewMailbox()
	videoSend, _ := udpPair(t)
	audioSend, _ := udpPair(t)
	var resync atomic.Bool

	s, err := video.New(video.Config{
		Mailbox:   mbox,
		Encoder:   &fakeEncoder{},
		VideoConn: videoSend,
		AudioConn: audioSend,
		Clock:     clock,
		FrameRate: wire.FrameRateTwentyFive,
		Resync:    &resync,
	})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestRun_FirstFrameForcesResyncAndSetsInit(t *testing.T) {
	r := newRig(t)
	r.mailbox.Push(fakeImage{})

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- r.streamer.Run(ctx) }()

	ts0 := r.readSidecar(t)
	require.Equal(t, uint32(0), ts0, "first sidecar carries the seeded timestamp, before pacing advances it")

	pkts := r.drainVideoPackets(t, x264.ChunksPerFrame)
	require.True(t, pkts[0][2]&(1<<7) != 0, "init flag must be set on the first frame's first packet")
	require.True(t, pkts[0][2]&(1<<6) != 0, "frame_begin must be set on the first packet")
	require.True(t, pkts[len(pkts)-1][2]&(1<<4) != 0, "frame_end must be set on the last packet")

	require.Len(t, r.enc.resync, 1)
	require.True(t, r.enc.resync[0], "first frame must force an IDR regardless of the resync flag")

	cancel()
	<-runDone
}

func TestRun_ResyncFlagConsumedOnceAndTimestampAdvances(t *testing.T) {
	r := newRig(t)
	r.resync.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- r.streamer.Run(ctx) }()

	r.mailbox.Push(fakeImage{})
	ts0 := r.readSidecar(t)
	r.drainVideoPackets(t, x264.ChunksPerFrame)

	r.mailbox.Push(fakeImage{})
	ts1 := r.readSidecar(t)
	r.drainVideoPackets(t, x264.ChunksPerFrame)

	require.Equal(t, uint32(0), ts0)
	require.Equal(t, uint32(40000), ts1, "25fps advances next_timestamp by 40ms (40000us) per frame")

	require.Len(t, r.enc.resync, 2)
	require.True(t, r.enc.resync[0], "seeded true by both the explicit resync flag and the initial frame")
	require.False(t, r.enc.resync[1], "resync flag must not re-trigger on the following frame")
	require.False(t, r.resync.Load())

	cancel()
	<-runDone
}

func TestRun_FallingBehindSnapsScheduleForward(t *testing.T) {
	r := newRig(t)
	// Put the TSF clock far enough ahead that, by the time pace() runs
	// for the first frame (next_timestamp seeded at 0), it trips the
	// "behind by more than 50ms" branch.
	r.clock.now.Store(200_000)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- r.streamer.Run(ctx) }()

	r.mailbox.Push(fakeImage{})
	r.readSidecar(t)
	r.drainVideoPackets(t, x264.ChunksPerFrame)

	r.mailbox.Push(fakeImage{})
	ts1 := r.readSidecar(t)
	r.drainVideoPackets(t, x264.ChunksPerFrame)

	// pace() observed now=200000 against next_timestamp=0, which is
	// more than 50ms behind, so it snaps to now+100000 with no added
	// frame interval.
	require.Equal(t, uint32(300000), ts1)

	cancel()
	<-runDone
}

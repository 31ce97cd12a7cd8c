package video_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/drcstream/internal/frame"
	"github.com/bugVanisher/drcstream/internal/video"
	"github.com/bugVanisher/drcstream/internal/wire"
	"github.com/bugVanisher/drcstream/internal/x264"
)

// TestRun_EncodesWithExpectedArgsAndResyncFlag drives a single frame
// through Streamer.Run against a gomock-generated Encoder, verifying
// the planes and resync flag it receives and controlling the chunk
// bytes it returns, rather than relying on a hand-rolled fake.
func TestRun_EncodesWithExpectedArgsAndResyncFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEnc := video.NewMockEncoder(ctrl)

	var chunks [x264.ChunksPerFrame][]byte
	for i := range chunks {
		chunks[i] = []byte{byte(i), 0xCD}
	}
	mockEnc.EXPECT().
		Encode([]byte{1}, []byte{2}, []byte{3}, true).
		Return(chunks, true, nil).
		Times(1)

	mbox := frame.NewMailbox()
	videoSend, videoRecv := udpPair(t)
	audioSend, audioRecv := udpPair(t)
	clock := &fakeClock{}
	var resync atomic.Bool

	s, err := video.New(video.Config{
		Mailbox:   mbox,
		Encoder:   mockEnc,
		VideoConn: videoSend,
		AudioConn: audioSend,
		Clock:     clock,
		FrameRate: wire.FrameRateTwentyFive,
		Resync:    &resync,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	mbox.Push(fakeImage{})

	buf := make([]byte, wire.VideoFormatSize)
	require.NoError(t, audioRecv.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = audioRecv.Read(buf)
	require.NoError(t, err)

	for i := 0; i < x264.ChunksPerFrame; i++ {
		pkt := make([]byte, 2000)
		require.NoError(t, videoRecv.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, err := videoRecv.Read(pkt)
		require.NoError(t, err)
	}

	cancel()
	<-runDone
}

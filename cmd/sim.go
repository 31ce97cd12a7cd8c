package cmd

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bugVanisher/drcstream/internal/audio"
	"github.com/bugVanisher/drcstream/internal/config"
	"github.com/bugVanisher/drcstream/internal/frame"
	"github.com/bugVanisher/drcstream/internal/metrics"
	"github.com/bugVanisher/drcstream/internal/tsf"
	"github.com/bugVanisher/drcstream/internal/video"
	"github.com/bugVanisher/drcstream/internal/wire"
	"github.com/bugVanisher/drcstream/internal/x264"
)

var simArgs struct {
	dumpH264 string
	frames   int
}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the video/audio pipeline against a synthetic frame source.",
	Long: "Feeds the video streamer a solid-color I420 image on every tick instead of " +
		"a real capture pipeline, for bring-up without a GamePad attached. With " +
		"--dump-h264, skips networking entirely and writes raw encoder output to a file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simArgs.dumpH264 != "" {
			return runDumpH264(simArgs.dumpH264, simArgs.frames)
		}
		return runSim()
	},
}

func init() {
	rootCmd.AddCommand(simCmd)
	simCmd.Flags().StringVar(&simArgs.dumpH264, "dump-h264", "", "write Annex-B escaped encoder output to this file instead of streaming")
	simCmd.Flags().IntVar(&simArgs.frames, "frames", 50, "number of synthetic frames to encode")
}

// solidFrame is a fixed-color I420 image, large enough to stand in for
// a real capture frame without needing one.
type solidFrame struct {
	y, u, v []byte
}

func newSolidFrame(width, height int, luma byte) solidFrame {
	chromaW, chromaH := (width+1)/2, (height+1)/2
	y := make([]byte, width*height)
	u := make([]byte, chromaW*chromaH)
	v := make([]byte, chromaW*chromaH)
	for i := range y {
		y[i] = luma
	}
	for i := range u {
		u[i] = 0x80
		v[i] = 0x80
	}
	return solidFrame{y: y, u: u, v: v}
}

func (f solidFrame) AsImage() frame.Image {
	return frame.Image{
		Width: x264.Width, Height: x264.Height,
		Y: f.y, U: f.u, V: f.v,
		StrideY: x264.Width, StrideU: x264.Width / 2, StrideV: x264.Width / 2,
	}
}

// runDumpH264 encodes n synthetic frames directly against the encoder
// (bypassing the mailbox/streamer/TSF pacing entirely) and writes the
// GamePad's fixed SPS/PPS followed by each produced chunk, Annex-B
// escaped, to path — a debug aid for feeding the bitstream to an
// external decoder when nothing else in this core is trustworthy yet.
func runDumpH264(path string, n int) error {
	enc, err := x264.New()
	if err != nil {
		return fmt.Errorf("building encoder: %w", err)
	}
	defer enc.Close()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	// escape inserts an emulation-prevention byte (0x03) wherever two
	// zero bytes are followed by a byte <= 0x03.
	escape := func(nal []byte) []byte {
		out := make([]byte, 0, len(nal)+len(nal)/2)
		zeros := 0
		for _, b := range nal {
			if zeros >= 2 && b <= 0x03 {
				out, zeros = append(out, 0x03), 0
			}
			out = append(out, b)
			if zeros++; b != 0 {
				zeros = 0
			}
		}
		return out
	}
	writeNAL := func(nal []byte) error {
		if _, err := f.Write(x264.AnnexBStartCode); err != nil {
			return err
		}
		_, err := f.Write(escape(nal))
		return err
	}
	if err := writeNAL(x264.SPS); err != nil {
		return fmt.Errorf("writing sps: %w", err)
	}
	if err := writeNAL(x264.PPS); err != nil {
		return fmt.Errorf("writing pps: %w", err)
	}

	img := newSolidFrame(x264.Width, x264.Height, 0x60)
	for i := 0; i < n; i++ {
		chunks, _, err := enc.Encode(img.y, img.u, img.v, i == 0)
		if err != nil {
			return fmt.Errorf("encoding frame %d: %w", i, err)
		}
		for _, chunk := range chunks {
			if err := writeNAL(chunk); err != nil {
				return fmt.Errorf("writing frame %d: %w", i, err)
			}
		}
	}

	log.Info().Str("file", path).Int("frames", n).Msg("wrote h264 dump")
	return nil
}

// runSim wires the full video/audio core against real UDP sockets
// exactly like `serve`, but drives the mailbox itself from a solid
// color generator instead of leaving it for an external capture
// process to feed.
func runSim() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	frameRate, err := wire.ParseFrameRate(cfg.Video.FrameRate)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	videoClock, err := tsf.Open(cfg.Network.HostAddr)
	if err != nil {
		return fmt.Errorf("opening video tsf clock: %w", err)
	}
	defer videoClock.Close()
	audioClock, err := tsf.Open(cfg.Network.HostAddr)
	if err != nil {
		return fmt.Errorf("opening audio tsf clock: %w", err)
	}
	defer audioClock.Close()

	videoConn, err := dialUDP(cfg.Network.VideoBindAddr(), cfg.Network.VideoPadAddr())
	if err != nil {
		return fmt.Errorf("opening video socket: %w", err)
	}
	defer videoConn.Close()
	audioConn, err := dialUDP(cfg.Network.AudioBindAddr(), cfg.Network.AudioPadAddr())
	if err != nil {
		return fmt.Errorf("opening audio socket: %w", err)
	}
	defer audioConn.Close()

	encoder, err := x264.New()
	if err != nil {
		return fmt.Errorf("building encoder: %w", err)
	}
	defer encoder.Close()

	mbox := frame.NewMailbox()
	fifo := audio.NewFIFO()
	flow := metrics.NewFlow()
	var resyncFlag atomic.Bool

	streamer, err := video.New(video.Config{
		Mailbox:   mbox,
		Encoder:   encoder,
		VideoConn: videoConn,
		AudioConn: audioConn,
		Clock:     videoClock,
		FrameRate: frameRate,
		Resync:    &resyncFlag,
		Flow:      flow,
	})
	if err != nil {
		return fmt.Errorf("building video streamer: %w", err)
	}
	pacer, err := audio.New(audio.Config{FIFO: fifo, Conn: audioConn, Clock: audioClock, Flow: flow})
	if err != nil {
		return fmt.Errorf("building audio pacer: %w", err)
	}

	img := newSolidFrame(x264.Width, x264.Height, 0x60)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return streamer.Run(gctx) })
	g.Go(func() error { return pacer.Run(gctx) })
	g.Go(func() error {
		ticker := time.NewTicker(time.Duration(1e9 / frameRate.Hz()))
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				mbox.Push(img)
			}
		}
	})

	log.Info().Str("pad_addr", cfg.Network.PadAddr).Msg("drcstream sim streaming synthetic frames")
	return g.Wait()
}

package cmd

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bugVanisher/drcstream/internal/audio"
	"github.com/bugVanisher/drcstream/internal/command"
	"github.com/bugVanisher/drcstream/internal/config"
	"github.com/bugVanisher/drcstream/internal/frame"
	"github.com/bugVanisher/drcstream/internal/metrics"
	"github.com/bugVanisher/drcstream/internal/resync"
	"github.com/bugVanisher/drcstream/internal/tsf"
	"github.com/bugVanisher/drcstream/internal/video"
	"github.com/bugVanisher/drcstream/internal/wire"
	"github.com/bugVanisher/drcstream/internal/x264"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GamePad streaming core: video, audio, command and resync channels.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe boots the video streamer, audio pacer, command handler,
// UVC/UAC keepalive, and resync listener, and supervises them with an
// errgroup: the first component to return a fatal error cancels the
// shared context, and every other component unwinds on ctx.Done
// rather than being killed mid-packet. Frame production (capture
// upstream of the mailbox) and audio capture are out of scope
// here — nothing feeds the mailbox or the audio FIFO; that is the job
// of a capture process talking to this one.
func runServe() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	frameRate, err := wire.ParseFrameRate(cfg.Video.FrameRate)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	commandConn, err := dialUDP(cfg.Network.CommandBindAddr(), cfg.Network.CommandPadAddr())
	if err != nil {
		return fmt.Errorf("opening command socket: %w", err)
	}
	defer commandConn.Close()

	resyncAddr, err := net.ResolveUDPAddr("udp", cfg.Network.ResyncBindAddr())
	if err != nil {
		return fmt.Errorf("resolving resync bind address: %w", err)
	}
	resyncConn, err := net.ListenUDP("udp", resyncAddr)
	if err != nil {
		return fmt.Errorf("opening resync socket: %w", err)
	}
	defer resyncConn.Close()

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

	pacer, err := audio.New(audio.Config{
		FIFO:  fifo,
		Conn:  audioConn,
		Clock: audioClock,
		Flow:  flow,
	})
	if err != nil {
		return fmt.Errorf("building audio pacer: %w", err)
	}

	cmdHandler := command.New(commandConn)
	uvcState := command.NewUvcState()
	resyncListener := resync.New(resyncConn, &resyncFlag)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return streamer.Run(gctx) })
	g.Go(func() error { return pacer.Run(gctx) })
	g.Go(func() error { return cmdHandler.Run(gctx) })
	g.Go(func() error { return command.RunUvcKeepalive(gctx, cmdHandler, uvcState) })
	g.Go(func() error { return resyncListener.Run(gctx) })

	log.Info().
		Str("host_addr", cfg.Network.HostAddr).
		Str("pad_addr", cfg.Network.PadAddr).
		Str("frame_rate", cfg.Video.FrameRate).
		Msg("drcstream serving")

	return g.Wait()
}

// dialUDP binds a UDP socket to bindAddr and connects it to padAddr,
// the shape every socket in this core expects: a fixed peer, so Write
// needs no destination and Read can't be handed a stray datagram from
// anything but the GamePad.
func dialUDP(bindAddr, padAddr string) (*net.UDPConn, error) {
	laddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving bind address %s: %w", bindAddr, err)
	}
	raddr, err := net.ResolveUDPAddr("udp", padAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving pad address %s: %w", padAddr, err)
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s -> %s: %w", bindAddr, padAddr, err)
	}
	return conn, nil
}

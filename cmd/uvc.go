package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bugVanisher/drcstream/internal/command"
	"github.com/bugVanisher/drcstream/internal/config"
	"github.com/bugVanisher/drcstream/internal/wire"
)

var uvcArgs struct {
	getFirmware bool
}

var uvcCmd = &cobra.Command{
	Use:   "uvc",
	Short: "Run a one-shot UVC/UAC control round trip against the GamePad, for diagnostics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUvc()
	},
}

func init() {
	rootCmd.AddCommand(uvcCmd)
	uvcCmd.Flags().BoolVar(&uvcArgs.getFirmware, "firmware", false, "query the generic-subprotocol firmware version instead of sending a UVC/UAC control payload")
}

func runUvc() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	conn, err := dialUDP(cfg.Network.CommandBindAddr(), cfg.Network.CommandPadAddr())
	if err != nil {
		return fmt.Errorf("opening command socket: %w", err)
	}
	defer conn.Close()

	h := command.New(conn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- h.Run(ctx) }()

	if uvcArgs.getFirmware {
		blob, err := command.GetUicFirmware(h)
		if err != nil {
			cancel()
			<-runDone
			return fmt.Errorf("querying firmware: %w", err)
		}
		log.Info().Int("bytes", len(blob)).Msg("firmware query succeeded")
	} else {
		raw, err := h.Command(wire.DefaultUvcUacPayload(), command.ShortTimeout)
		if err != nil {
			cancel()
			<-runDone
			return fmt.Errorf("sending uvc/uac control payload: %w", err)
		}
		var resp wire.UvcUacResponse
		if err := resp.UnmarshalBinary(raw); err != nil {
			cancel()
			<-runDone
			return fmt.Errorf("decoding uvc/uac response: %w", err)
		}
		log.Info().
			Int16("mic_volume", resp.MicVolume).
			Int16("mic_jack_volume", resp.MicJackVolume).
			Uint8("mic_enabled", resp.MicEnabled).
			Uint8("cam_power_freq", resp.CamPowerFreq).
			Uint8("cam_auto_expo", resp.CamAutoExpo).
			Msg("uvc/uac control round trip succeeded")
	}

	cancel()
	select {
	case <-runDone:
	case <-time.After(time.Second):
	}
	return nil
}

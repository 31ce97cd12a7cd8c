// Package config loads the runtime configuration for the streaming
// core: host/GamePad addresses, ports, and encoder/pacing knobs. The
// wireless link is normally fixed (host 192.168.1.10, GamePad
// 192.168.1.11); this package keeps those values as defaults so a
// developer can point the core at a simulator or a second GamePad
// without editing code.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	Network NetworkConfig `mapstructure:"network"`
	Video   VideoConfig   `mapstructure:"video"`
	Audio   AudioConfig   `mapstructure:"audio"`
}

type NetworkConfig struct {
	// HostAddr is the host-side bind address, e.g. "192.168.1.10".
	HostAddr string `mapstructure:"host_addr"`
	// PadAddr is the GamePad address the core connects UDP sockets to.
	PadAddr string `mapstructure:"pad_addr"`

	ResyncPort  int `mapstructure:"resync_port"`
	VideoPort   int `mapstructure:"video_port"`
	AudioPort   int `mapstructure:"audio_port"`
	CommandPort int `mapstructure:"command_port"`

	PadVideoPort   int `mapstructure:"pad_video_port"`
	PadAudioPort   int `mapstructure:"pad_audio_port"`
	PadCommandPort int `mapstructure:"pad_command_port"`
}

type VideoConfig struct {
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	FrameRate string `mapstructure:"frame_rate"` // one of: 59.94, 50, 29.97, 25
	QP        int    `mapstructure:"qp"`
}

type AudioConfig struct {
	SamplesPerPacket int `mapstructure:"samples_per_packet"`
}

// Default returns the GamePad's fixed link configuration: fixed
// addresses, fixed ports, 864x480, QP 32, 50fps.
func Default() Config {
	return Config{
		Network: NetworkConfig{
			HostAddr:       "192.168.1.10",
			PadAddr:        "192.168.1.11",
			ResyncPort:     50010,
			VideoPort:      50020,
			AudioPort:      50021,
			CommandPort:    50023,
			PadVideoPort:   50120,
			PadAudioPort:   50121,
			PadCommandPort: 50123,
		},
		Video: VideoConfig{
			Width:     864,
			Height:    480,
			FrameRate: "50",
			QP:        32,
		},
		Audio: AudioConfig{
			SamplesPerPacket: 384,
		},
	}
}

// Load reads configuration from path (if non-empty), environment
// variables prefixed DRCSTREAM_, and falls back to Default() for any
// key left unset. path == "" searches the working directory for
// drcstream.yaml.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DRCSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("network.host_addr", def.Network.HostAddr)
	v.SetDefault("network.pad_addr", def.Network.PadAddr)
	v.SetDefault("network.resync_port", def.Network.ResyncPort)
	v.SetDefault("network.video_port", def.Network.VideoPort)
	v.SetDefault("network.audio_port", def.Network.AudioPort)
	v.SetDefault("network.command_port", def.Network.CommandPort)
	v.SetDefault("network.pad_video_port", def.Network.PadVideoPort)
	v.SetDefault("network.pad_audio_port", def.Network.PadAudioPort)
	v.SetDefault("network.pad_command_port", def.Network.PadCommandPort)
	v.SetDefault("video.width", def.Video.Width)
	v.SetDefault("video.height", def.Video.Height)
	v.SetDefault("video.frame_rate", def.Video.FrameRate)
	v.SetDefault("video.qp", def.Video.QP)
	v.SetDefault("audio.samples_per_packet", def.Audio.SamplesPerPacket)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("drcstream")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func (n NetworkConfig) VideoBindAddr() string   { return fmt.Sprintf("%s:%d", n.HostAddr, n.VideoPort) }
func (n NetworkConfig) VideoPadAddr() string    { return fmt.Sprintf("%s:%d", n.PadAddr, n.PadVideoPort) }
func (n NetworkConfig) AudioBindAddr() string   { return fmt.Sprintf("%s:%d", n.HostAddr, n.AudioPort) }
func (n NetworkConfig) AudioPadAddr() string    { return fmt.Sprintf("%s:%d", n.PadAddr, n.PadAudioPort) }
func (n NetworkConfig) CommandBindAddr() string { return fmt.Sprintf("%s:%d", n.HostAddr, n.CommandPort) }
func (n NetworkConfig) CommandPadAddr() string  { return fmt.Sprintf("%s:%d", n.PadAddr, n.PadCommandPort) }
func (n NetworkConfig) ResyncBindAddr() string  { return fmt.Sprintf("%s:%d", n.HostAddr, n.ResyncPort) }

// Package config loads the Sender Registry configuration (§2: "an
// ordered set keyed by channel number") from a YAML file and lets CLI
// flags override individual fields, grounded on the teacher's own
// split between a structured config file (config.go, driven here by
// gopkg.in/yaml.v3 instead of the teacher's hand-rolled line parser)
// and pflag-based command-line overrides (appserver.go/atest.go).
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/oldradio/fskcore/internal/channel"
	"github.com/oldradio/fskcore/internal/codec"
)

// ChannelConfig is one entry of the sender registry: everything needed
// to construct a channel.Channel plus its hardware bindings.
type ChannelConfig struct {
	Number     int    `yaml:"channel"`
	System     string `yaml:"system"` // "first" or "second"
	RigModel        int     `yaml:"rig_model"`
	RigDevice       string  `yaml:"rig_device"`
	PTTDevice       string  `yaml:"ptt_device"`
	PTTGPIO         int     `yaml:"ptt_gpio"`
	SampleRate      float64 `yaml:"sample_rate"`
	BitRate         float64 `yaml:"bit_rate"`
	AudioEnabled    bool    `yaml:"audio_enabled"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`

	Network    IdentityConfig `yaml:"network"`
	MaxPower   uint8          `yaml:"max_power"`
	OrgChannel uint16         `yaml:"org_channel"`
	AuthBit    bool           `yaml:"auth_bit"`
}

// IdentityConfig mirrors codec.Identity in YAML-friendly form.
type IdentityConfig struct {
	Nationality uint8  `yaml:"nationality"`
	Exchange    uint8  `yaml:"exchange"`
	Rest        uint16 `yaml:"rest"`
}

func (c IdentityConfig) toIdentity() codec.Identity {
	return codec.Identity{Nationality: c.Nationality, Exchange: c.Exchange, Rest: c.Rest}
}

// ToSystemInfo converts the YAML network-identity block to the
// channel.SystemInfo the channel package consumes.
func (c ChannelConfig) ToSystemInfo() channel.SystemInfo {
	return channel.SystemInfo{
		Network:    c.Network.toIdentity(),
		MaxPower:   c.MaxPower,
		OrgChannel: c.OrgChannel,
		AuthBit:    c.AuthBit,
	}
}

// Config is the top-level configuration document: the sender registry
// plus process-wide settings (dnssd name, call-control port, log
// level).
type Config struct {
	Channels    []ChannelConfig `yaml:"channels"`
	DNSSDName   string          `yaml:"dnssd_name"`
	CallControl struct {
		Port int `yaml:"port"`
	} `yaml:"call_control"`
	LogLevel string `yaml:"log_level"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("config: %s defines no channels", path)
	}
	orgChannels := 0
	for _, c := range cfg.Channels {
		if c.System == "first" && c.Number == 131 {
			orgChannels++
		}
	}
	if orgChannels > 1 {
		return nil, fmt.Errorf("config: %d channels claim the organisation channel, only one is permitted per §1", orgChannels)
	}
	for i := range cfg.Channels {
		if cfg.Channels[i].FramesPerBuffer == 0 {
			cfg.Channels[i].FramesPerBuffer = 960 // 20ms at 48kHz
		}
	}
	return &cfg, nil
}

// Flags is the set of command-line overrides layered on top of a
// loaded Config, mirroring the teacher's pflag usage in
// appserver.go/atest.go.
type Flags struct {
	ConfigPath string
	LogLevel   string
	DNSSDName  string
}

// ParseFlags declares and parses the process's command-line flags.
func ParseFlags(args []string) (*Flags, error) {
	fs := pflag.NewFlagSet("fskcore", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "fskcore.yaml", "Path to the sender registry configuration file.")
	logLevel := fs.StringP("log-level", "l", "", "Override the configured log level (debug, info, warn, error).")
	dnssdName := fs.StringP("dnssd-name", "n", "", "Override the configured call-control mDNS advertisement name.")
	help := fs.BoolP("help", "h", false, "Display help text.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "fskcore - software base station protocol core\n\n")
		fmt.Fprintf(os.Stderr, "Usage: fskcore [OPTIONS]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *help {
		fs.Usage()
		os.Exit(0)
	}
	return &Flags{ConfigPath: *configPath, LogLevel: *logLevel, DNSSDName: *dnssdName}, nil
}

// Apply layers non-empty flag overrides onto a loaded Config.
func (f *Flags) Apply(cfg *Config) {
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.DNSSDName != "" {
		cfg.DNSSDName = f.DNSSDName
	}
}

// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tkm427/spectrum-analyzer/pkg/bitint"
)

// Defaults and limits for the analysis pipeline.
const (
	DefaultDeviceID      = -1 // system default input device
	DefaultChannels      = 1
	DefaultSampleRate    = 44100
	DefaultTransformSize = 2048
	DefaultBands         = 64
	DefaultAxis          = "logarithmic"
	DefaultWindow        = "Hann"
	DefaultPitchInterval = 100 * time.Millisecond

	MinSampleRate    = 8000
	MaxSampleRate    = 192000
	MaxTransformSize = 32768
)

// Config is the full runtime configuration, loaded from YAML with
// environment overrides applied on top.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds input device and stream settings.
type AudioConfig struct {
	InputDevice int     `yaml:"input_device"` // PortAudio device index, -1 for default
	SampleRate  float64 `yaml:"sample_rate"`  // Hz
	Channels    int     `yaml:"channels"`     // captured channels, mono-mixed for analysis
	LowLatency  bool    `yaml:"low_latency"`
}

// AnalysisConfig holds transform and band-mapping settings.
type AnalysisConfig struct {
	TransformSize   int           `yaml:"transform_size"`   // power of two
	Bands           int           `yaml:"bands"`            // display band count
	Axis            string        `yaml:"axis"`             // "linear" or "logarithmic"
	Window          string        `yaml:"window"`           // FFT window function name
	PitchInterval   time.Duration `yaml:"pitch_interval"`   // minimum time between pitch estimates
	HistoryCapacity int           `yaml:"history_capacity"` // spectrogram snapshots retained
}

// RecordingConfig holds settings for recording the live input while it is
// being analyzed.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // empty for a timestamped name
}

// TransportConfig holds settings for publishing band frames to consumers.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddr    string        `yaml:"websocket_addr"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
			Channels:    DefaultChannels,
			LowLatency:  false,
		},
		Analysis: AnalysisConfig{
			TransformSize:   DefaultTransformSize,
			Bands:           DefaultBands,
			Axis:            DefaultAxis,
			Window:          DefaultWindow,
			PitchInterval:   DefaultPitchInterval,
			HistoryCapacity: 256,
		},
		Recording: RecordingConfig{
			Enabled:    false,
			OutputFile: "",
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // ~30 Hz
		},
	}
}

// Load reads configuration from the YAML file at path. An empty path falls
// back to "config.yaml" when present, else the built-in defaults. Environment
// overrides are applied after the file, and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		} else {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration against the pipeline's hard limits.
func (c *Config) Validate() error {
	if !bitint.IsPowerOfTwo(c.Analysis.TransformSize) || c.Analysis.TransformSize > MaxTransformSize {
		return fmt.Errorf("analysis.transform_size must be a power of 2 <= %d, got %d",
			MaxTransformSize, c.Analysis.TransformSize)
	}
	if c.Analysis.Bands < 1 {
		return fmt.Errorf("analysis.bands must be >= 1, got %d", c.Analysis.Bands)
	}
	if _, ok := parseAxisName(c.Analysis.Axis); !ok {
		return fmt.Errorf("analysis.axis must be \"linear\" or \"logarithmic\", got %q", c.Analysis.Axis)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate must be within [%d, %d], got %.0f",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 {
		return fmt.Errorf("audio.channels must be >= 1, got %d", c.Audio.Channels)
	}
	if c.Analysis.PitchInterval < 0 {
		return fmt.Errorf("analysis.pitch_interval must not be negative, got %s", c.Analysis.PitchInterval)
	}
	if c.Transport.UDPEnabled && c.Transport.UDPSendInterval <= 0 {
		return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
	}
	return nil
}

// parseAxisName mirrors dsp.ParseAxis without importing it; config must not
// depend on the analysis packages.
func parseAxisName(name string) (string, bool) {
	switch name {
	case "linear", "lin", "logarithmic", "log":
		return name, true
	default:
		return "", false
	}
}

// applyEnvOverrides applies SPECAN_* environment variables on top of the
// loaded configuration.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SPECAN_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("SPECAN_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("SPECAN_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		c.Transport.UDPEnabled = true
	}
	if val, ok := os.LookupEnv("SPECAN_UDP_SEND_INTERVAL"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = d
		}
	}
}

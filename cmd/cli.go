// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tkm427/spectrum-analyzer/internal/analysis"
	"github.com/tkm427/spectrum-analyzer/internal/app"
	"github.com/tkm427/spectrum-analyzer/internal/capture"
	"github.com/tkm427/spectrum-analyzer/internal/config"
	"github.com/tkm427/spectrum-analyzer/internal/fft"
	applog "github.com/tkm427/spectrum-analyzer/internal/log"
	"github.com/tkm427/spectrum-analyzer/internal/source"
	"github.com/tkm427/spectrum-analyzer/internal/transport"
	"github.com/tkm427/spectrum-analyzer/internal/transport/udp"
	"github.com/tkm427/spectrum-analyzer/pkg/build"
)

// Execute parses arguments and runs the selected command until it finishes
// or ctx is canceled.
func Execute(ctx context.Context) error {
	info := build.GetInfo()

	var configPath string

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         info.Description,
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML configuration file")
	rootCmd.PersistentFlags().IntP("device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices")
	rootCmd.PersistentFlags().Float64P("sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hertz (Hz)")
	rootCmd.PersistentFlags().IntP("transform-size", "t", config.DefaultTransformSize,
		"Transform size in samples (power of 2)")
	rootCmd.PersistentFlags().IntP("bands", "b", config.DefaultBands,
		"Number of display bands")
	rootCmd.PersistentFlags().StringP("axis", "a", config.DefaultAxis,
		"Frequency axis: linear or logarithmic")
	rootCmd.PersistentFlags().StringP("window", "w", config.DefaultWindow,
		"FFT window function name")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Show verbose output")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := capture.Initialize(); err != nil {
				return err
			}
			defer capture.Terminate()
			return capture.ListDevices()
		},
	}
	rootCmd.AddCommand(listCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "Analyze the live input device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			if record, _ := cmd.Flags().GetBool("record"); record {
				cfg.Recording.Enabled = true
			}
			if output, _ := cmd.Flags().GetString("output"); output != "" {
				cfg.Recording.OutputFile = output
			}
			return runLive(cmd.Context(), cfg)
		},
	}
	liveCmd.Flags().BoolP("record", "r", false, "Record the input stream while analyzing")
	liveCmd.Flags().StringP("output", "o", "", "Recording file name (default recording-DD-MM-YYYY-HHMMSS.wav)")
	rootCmd.AddCommand(liveCmd)

	fileCmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Analyze a WAV or MP3 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			realtime, _ := cmd.Flags().GetBool("realtime")
			return runFile(cmd.Context(), cfg, args[0], realtime)
		},
	}
	fileCmd.Flags().Bool("realtime", false,
		"Pace the file at its natural duration instead of analyzing as fast as possible")
	rootCmd.AddCommand(fileCmd)

	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig loads the YAML configuration and applies any explicitly set
// command line flags on top.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Audio.InputDevice, _ = flags.GetInt("device")
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate, _ = flags.GetFloat64("sample-rate")
	}
	if flags.Changed("transform-size") {
		cfg.Analysis.TransformSize, _ = flags.GetInt("transform-size")
	}
	if flags.Changed("bands") {
		cfg.Analysis.Bands, _ = flags.GetInt("bands")
	}
	if flags.Changed("axis") {
		cfg.Analysis.Axis, _ = flags.GetString("axis")
	}
	if flags.Changed("window") {
		cfg.Analysis.Window, _ = flags.GetString("window")
	}
	if v, _ := flags.GetBool("verbose"); v {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	return cfg, nil
}

// runLive captures from the input device and analyzes until ctx is canceled.
func runLive(ctx context.Context, cfg *config.Config) error {
	if err := capture.Initialize(); err != nil {
		return err
	}
	defer capture.Terminate()

	provider, err := fft.NewProvider(cfg.Analysis.TransformSize, cfg.Audio.SampleRate, cfg.Analysis.Window)
	if err != nil {
		return err
	}
	engine, err := capture.NewEngine(cfg, provider)
	if err != nil {
		return err
	}
	defer engine.Close()

	// Acquisition happens inside Initialize: starting the stream is the
	// step that can fail with a device or permission error.
	session := analysis.NewSession(func() (analysis.TransformProvider, error) {
		if err := engine.Start(); err != nil {
			return nil, err
		}
		return provider, nil
	}, cfg.Analysis.TransformSize)
	session.SetPitchInterval(cfg.Analysis.PitchInterval)
	defer session.Dispose()

	if !session.Initialize() {
		return fmt.Errorf("failed to initialize analysis session (device unavailable?)")
	}
	session.Start()

	if cfg.Recording.Enabled {
		name := cfg.Recording.OutputFile
		if name == "" {
			name = "recording-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
		}
		if err := engine.StartRecording(name); err != nil {
			return err
		}
	}

	runner, cleanup := buildRunner(cfg, session)
	defer cleanup()

	if err := runner.RunLive(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// runFile decodes a file and replays it through the analysis pipeline.
func runFile(ctx context.Context, cfg *config.Config, path string, realtime bool) error {
	clip, err := source.Load(path)
	if err != nil {
		return err
	}
	applog.Infof("File: %s (%.1fs at %.0f Hz)", path, clip.Duration(), clip.SampleRate)

	provider, err := fft.NewProvider(cfg.Analysis.TransformSize, clip.SampleRate, cfg.Analysis.Window)
	if err != nil {
		return err
	}

	session := analysis.NewSession(func() (analysis.TransformProvider, error) {
		return provider, nil
	}, cfg.Analysis.TransformSize)
	session.SetPitchInterval(cfg.Analysis.PitchInterval)
	defer session.Dispose()

	if !session.Initialize() {
		return fmt.Errorf("failed to initialize analysis session")
	}
	session.Start()

	runner, cleanup := buildRunner(cfg, session)
	defer cleanup()

	if err := runner.RunClip(ctx, clip, provider.Feed, realtime); err != nil {
		if err == context.Canceled {
			return nil
		}
		return err
	}

	if frame, ok := runner.LatestFrame(); ok {
		fmt.Printf("Analyzed %.1fs, %d snapshots retained, last pitch estimate: %.1f Hz\n",
			clip.Duration(), runner.History().Len(), frame.Pitch)
	}
	return nil
}

// buildRunner wires the configured transports into a runner and returns a
// cleanup function that closes them all.
func buildRunner(cfg *config.Config, session *analysis.Session) (*app.Runner, func()) {
	runner := app.NewRunner(cfg, session)
	var closers []func()

	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr)
		runner.AddTransport(ws)
		closers = append(closers, func() { ws.Close() })
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Errorf("UDP: %v", err)
		} else if publisher, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, runner.LatestFrame); err != nil {
			applog.Errorf("UDP: %v", err)
			sender.Close()
		} else {
			publisher.Start()
			closers = append(closers, func() {
				publisher.Stop()
				sender.Close()
			})
		}
	}

	return runner, func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
}

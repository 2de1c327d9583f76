// SPDX-License-Identifier: MIT

// Package cmd implements the audioviz command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"audioviz/internal/audio"
	"audioviz/internal/config"
	"audioviz/internal/decode"
	applog "audioviz/internal/log"
	"audioviz/internal/transport"
	"audioviz/internal/transport/udp"
	"audioviz/internal/tui"
	"audioviz/pkg/build"
)

var (
	_ transport.Sink = (*transport.LoggingTransport)(nil)
	_ transport.Sink = (*transport.WebSocketTransport)(nil)
	_ transport.Sink = (*udp.UDPPublisher)(nil)
	_ transport.Sink = (*tui.Meter)(nil)
)

// flagValues holds command line values. They only override the loaded
// configuration when the flag was given explicitly.
type flagValues struct {
	configPath       string
	device           int
	samplesPerSecond int
	windowSampleSize int
	amplitudeScalar  float64
	fake             bool
	record           bool
	output           string
	tui              bool
	verbose          bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	flags := &flagValues{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Long:          "Captures live audio (or plays a file in real time), analyzes each window and\nstreams AudioFrames to the enabled consumers.",
		Version:       build.VersionString(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if cfg.Audio.UseFakeAudio {
				return runPipeline(cmd.Context(), cfg, (*audio.Engine).RunFake)
			}
			return runPipeline(cmd.Context(), cfg, (*audio.Engine).RunCapture)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "",
		"Path to a YAML configuration file (default: ./config.yaml if present)")
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'list' command to see available devices.")
	pf.IntVarP(&flags.samplesPerSecond, "samples-per-second", "s", config.DefaultSamplesPerSecond,
		"Capture and analysis sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.windowSampleSize, "window-sample-size", "w", config.DefaultWindowSampleSize,
		"Samples per analysis window in capture mode")
	pf.Float64VarP(&flags.amplitudeScalar, "amplitude-scalar", "a", config.DefaultAmplitudeScalar,
		"Initial gain applied to spectral amplitudes")
	pf.BoolVar(&flags.fake, "fake", config.DefaultUseFakeAudio,
		"Emit synthetic frames instead of capturing audio")
	pf.BoolVarP(&flags.record, "record", "r", config.DefaultRecord,
		"Record captured audio to a WAV file")
	pf.StringVarP(&flags.output, "output", "o", config.DefaultOutputFile,
		"Recording file name. Default is recording_YYYYMMDD_HHMMSS.wav")
	pf.BoolVarP(&flags.tui, "tui", "t", false,
		"Show a terminal meter of the frames")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.AddCommand(newPlayCommand(flags), newListCommand())
	return rootCmd
}

func newPlayCommand(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "play <file>",
		Short: "Analyze a WAV, MP3 or Ogg Vorbis file in real time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			cfg.PlaybackFile = args[0]

			track, err := decode.File(cfg.PlaybackFile)
			if err != nil {
				return err
			}
			applog.Infof("Playback: %s, %d samples at %d Hz (%s)",
				cfg.PlaybackFile, len(track.Samples), track.SampleRate, track.Duration)

			return runPipeline(cmd.Context(), cfg, func(e *audio.Engine, ctx context.Context) error {
				return e.RunPlayback(ctx, track)
			})
		},
	}
}

func newListCommand() *cobra.Command {
	var interactive bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				sel, ok, err := tui.RunDevicePicker(audio.ListDevices)
				if err != nil || !ok {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sel.Flags())
				return nil
			}

			devices, err := audio.ListDevices()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderDeviceTable(devices))
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Pick an input device and sample rate interactively")
	return listCmd
}

// loadConfig reads the configuration file and applies explicit flags on top.
func loadConfig(cmd *cobra.Command, flags *flagValues) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, flags, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := applog.SetLevelFromString(cfg.EffectiveLogLevel()); err != nil {
		applog.Warnf("CLI: %v, keeping %s", err, applog.GetLevel())
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, flags *flagValues, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("device") {
		cfg.Audio.InputDevice = flags.device
	}
	if changed("samples-per-second") {
		cfg.Audio.SamplesPerSecond = flags.samplesPerSecond
	}
	if changed("window-sample-size") {
		cfg.Audio.WindowSampleSize = flags.windowSampleSize
	}
	if changed("amplitude-scalar") {
		cfg.Audio.AmplitudeScalar = flags.amplitudeScalar
	}
	if changed("fake") {
		cfg.Audio.UseFakeAudio = flags.fake
	}
	if changed("record") {
		cfg.Audio.Record = flags.record
	}
	if changed("output") {
		cfg.Audio.OutputFile = flags.output
	}
	if flags.verbose {
		cfg.Debug = true
	}
	cfg.TUIMode = flags.tui
}

// buildSinks creates the enabled frame consumers. The meter, when enabled,
// is returned separately because its Run owns the terminal.
func buildSinks(cfg *config.Config) ([]transport.Sink, *tui.Meter, error) {
	sinks := []transport.Sink{transport.NewLoggingTransport()}

	if cfg.Transport.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress,
			cfg.Transport.WebSocketMinInterval)
		if err != nil {
			return nil, nil, errors.Join(err, transport.CloseAll(sinks...))
		}
		applog.Infof("Transport: WebSocket listening on %s%s (min interval %s)",
			ws.Addr(), transport.WebSocketPath, ws.MinSendInterval())
		sinks = append(sinks, ws)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, nil, errors.Join(err, transport.CloseAll(sinks...))
		}
		pub, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender)
		if err != nil {
			return nil, nil, errors.Join(err, sender.Close(), transport.CloseAll(sinks...))
		}
		pub.Start()
		applog.Infof("Transport: UDP frames to %s every %s", sender.Target(), cfg.Transport.UDPSendInterval)
		sinks = append(sinks, pub)
	}

	var meter *tui.Meter
	if cfg.TUIMode {
		meter = tui.NewMeter(build.GetBuildFlags().Name)
	}
	return sinks, meter, nil
}

// runPipeline runs produce and the frame consumer side by side until the
// stream ends, ctx is cancelled or either side fails.
func runPipeline(ctx context.Context, cfg *config.Config, produce func(*audio.Engine, context.Context) error) error {
	engine, err := audio.NewEngine(cfg)
	if err != nil {
		return err
	}

	sinks, meter, err := buildSinks(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return produce(engine, gctx)
	})

	consumers := sinks
	if meter != nil {
		defer silenceLogs()()
		consumers = append(consumers[:len(consumers):len(consumers)], meter)
		g.Go(func() error {
			defer cancel()
			return meter.Run()
		})
	}
	g.Go(func() error {
		err := transport.Consume(gctx, engine.Frames(), consumers...)
		if meter != nil {
			_ = meter.Close()
		}
		return err
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, transport.CloseAll(sinks...))
}

// silenceLogs discards log output, since log lines would tear the meter, and
// returns a func that restores the previous destination.
func silenceLogs() (restore func()) {
	prev := applog.Output()
	applog.SetOutput(io.Discard)
	return func() { applog.SetOutput(prev) }
}

// Execute runs the command line with ctx, which is cancelled on shutdown
// signals.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults for
// the analysis pipeline.
const (
	// Audio defaults
	DefaultDeviceID         = MinDeviceID           // System default input
	DefaultSamplesPerSecond = 24000                 // Capture and analysis rate (Hz)
	DefaultWindowSampleSize = 1024                  // Samples per analysis window
	DefaultAmplitudeScalar  = 16.0                  // Initial gain before AGC converges
	DefaultUseFakeAudio     = false                 // Real capture by default
	DefaultReadBackoff      = 5 * time.Millisecond  // Sleep after a zero-sample read
	DefaultRecord           = false                 // Don't record by default
	DefaultOutputFile       = ""                    // Auto-generated filename
	DefaultFakeInterval     = 50 * time.Millisecond // Synthetic frame rate

	// Analysis defaults
	DefaultFFTBackend      = "gonum"
	DefaultFFTWindow       = "none" // No windowing, raw DFT of the samples
	DefaultLowThresholdHz  = 1000.0
	DefaultMidThresholdHz  = 6000.0
	DefaultHighThresholdHz = 20000.0
	DefaultAutoGain        = true
	DefaultGainHistory     = 400
	DefaultGainTarget      = 0.01

	// Playback defaults
	DefaultPlaybackWindow = 20 * time.Millisecond

	// Frame channel defaults
	DefaultDropOldestOnFull = true // Latest-only hand-off

	// Transport defaults
	DefaultWebSocketAddress     = ":8080"
	DefaultWebSocketMinInterval = 0 // No rate limit
	DefaultUDPTargetAddress     = "127.0.0.1:9090"
	DefaultUDPSendInterval      = 16 * time.Millisecond // ~60Hz

	// Hardware and processing limits
	MinDeviceID      = -1     // -1 represents system default device
	MinSampleRate    = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate    = 192000 // Maximum supported sample rate (Hz)
	MinWindowSamples = 2      // Anything smaller has no spectral bins
	MaxWindowSamples = 65536
)

// Config holds all runtime configuration. It is built from defaults, an
// optional YAML file, environment overrides and finally command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Shorthand for log_level: debug.
	LogLevel  string          `yaml:"log_level"`         // debug, info, warn, error.
	Command   string          `yaml:"command,omitempty"` // One-off command instead of running the pipeline (e.g. "list").
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Frames    FramesConfig    `yaml:"frames"`
	Transport TransportConfig `yaml:"transport"`

	// Set from the command line only.
	PlaybackFile string `yaml:"-"` // Track to play instead of capturing.
	TUIMode      bool   `yaml:"-"` // Render frames in the terminal meter.
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	InputDevice      int           `yaml:"input_device"`       // PortAudio device index (-1 for default).
	SamplesPerSecond int           `yaml:"samples_per_second"` // Device sample rate, also the analysis rate in capture mode.
	WindowSampleSize int           `yaml:"window_sample_size"` // Samples per analysis window in capture mode.
	AmplitudeScalar  float64       `yaml:"amplitude_scalar"`   // Initial gain applied to spectral amplitudes.
	UseFakeAudio     bool          `yaml:"use_fake_audio"`     // Emit synthetic frames instead of capturing.
	FakeInterval     time.Duration `yaml:"fake_interval"`      // Delay between synthetic frames.
	ReadBackoff      time.Duration `yaml:"read_backoff"`       // Sleep after a read that returned no samples.
	Record           bool          `yaml:"record"`             // Tee captured PCM into a WAV file.
	OutputFile       string        `yaml:"output_file"`        // Recording path.
}

// AnalysisConfig holds spectral analysis and gain control settings.
type AnalysisConfig struct {
	FFTBackend      string  `yaml:"fft_backend"`       // gonum or godsp.
	FFTWindow       string  `yaml:"fft_window"`        // none, hann, hamming, blackman, ...
	LowThresholdHz  float64 `yaml:"low_threshold_hz"`  // Upper edge of the low band.
	MidThresholdHz  float64 `yaml:"mid_threshold_hz"`  // Upper edge of the mid band.
	HighThresholdHz float64 `yaml:"high_threshold_hz"` // Upper edge of the high band; bins above are dropped.
	AutoGain        bool    `yaml:"auto_gain"`         // Adapt the amplitude scalar; false keeps it fixed.
	GainHistory     int     `yaml:"gain_history"`      // Number of window means the AGC averages over.
	GainTarget      float64 `yaml:"gain_target"`       // Mean amplitude the AGC steers towards.
}

// PlaybackConfig holds file playback settings.
type PlaybackConfig struct {
	WindowDuration time.Duration `yaml:"window_duration"` // Nominal wall-clock length of one window.
}

// FramesConfig controls the producer/consumer hand-off.
type FramesConfig struct {
	DropOldestOnFull bool `yaml:"drop_oldest_on_full"` // Latest-only (true) or unbounded queue (false).
}

// TransportConfig holds settings for the frame consumers.
type TransportConfig struct {
	WebSocketEnabled     bool          `yaml:"websocket_enabled"`
	WebSocketAddress     string        `yaml:"websocket_address"`
	WebSocketMinInterval time.Duration `yaml:"websocket_min_interval"` // Minimum spacing between broadcasts; zero sends every frame.
	UDPEnabled           bool          `yaml:"udp_enabled"`
	UDPTargetAddress     string        `yaml:"udp_target_address"`
	UDPSendInterval      time.Duration `yaml:"udp_send_interval"`
}

// NewConfig creates a Config populated with default values. This is the base
// configuration before a file, the environment or flags are applied.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:      DefaultDeviceID,
			SamplesPerSecond: DefaultSamplesPerSecond,
			WindowSampleSize: DefaultWindowSampleSize,
			AmplitudeScalar:  DefaultAmplitudeScalar,
			UseFakeAudio:     DefaultUseFakeAudio,
			FakeInterval:     DefaultFakeInterval,
			ReadBackoff:      DefaultReadBackoff,
			Record:           DefaultRecord,
			OutputFile:       DefaultOutputFile,
		},
		Analysis: AnalysisConfig{
			FFTBackend:      DefaultFFTBackend,
			FFTWindow:       DefaultFFTWindow,
			LowThresholdHz:  DefaultLowThresholdHz,
			MidThresholdHz:  DefaultMidThresholdHz,
			HighThresholdHz: DefaultHighThresholdHz,
			AutoGain:        DefaultAutoGain,
			GainHistory:     DefaultGainHistory,
			GainTarget:      DefaultGainTarget,
		},
		Playback: PlaybackConfig{
			WindowDuration: DefaultPlaybackWindow,
		},
		Frames: FramesConfig{
			DropOldestOnFull: DefaultDropOldestOnFull,
		},
		Transport: TransportConfig{
			WebSocketAddress:     DefaultWebSocketAddress,
			WebSocketMinInterval: DefaultWebSocketMinInterval,
			UDPTargetAddress:     DefaultUDPTargetAddress,
			UDPSendInterval:      DefaultUDPSendInterval,
		},
	}
}

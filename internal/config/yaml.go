// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	applog "audioviz/internal/log"
	"audioviz/pkg/bitint"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// KnownFFTBackends lists the accepted values for analysis.fft_backend.
var KnownFFTBackends = []string{"gonum", "godsp"}

// KnownFFTWindows lists the accepted values for analysis.fft_window.
var KnownFFTWindows = []string{
	"none", "bartletthann", "blackman", "blackmannuttall",
	"hann", "hanning", "hamming", "lanczos", "nuttall",
}

// DotEnvFile is loaded, when present, before environment overrides apply.
var DotEnvFile = ".env"

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches default locations ("config.yaml"). If no file is
// found, it uses built-in defaults. After loading defaults or from file, it
// applies environment variable overrides and validates the final
// configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"config.yaml",
			"audioviz.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not a known level", c.LogLevel))
	}

	// Audio
	a := c.Audio
	if a.SamplesPerSecond < MinSampleRate || a.SamplesPerSecond > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.samples_per_second must be within [%d, %d], got %d",
			MinSampleRate, MaxSampleRate, a.SamplesPerSecond))
	}
	if a.WindowSampleSize < MinWindowSamples || a.WindowSampleSize > MaxWindowSamples {
		errs = append(errs, fmt.Errorf("audio.window_sample_size must be within [%d, %d], got %d",
			MinWindowSamples, MaxWindowSamples, a.WindowSampleSize))
	} else if !bitint.IsPowerOfTwo(a.WindowSampleSize) {
		applog.Warnf("configuration: window_sample_size %d is not a power of two (next is %d), FFT will be slower",
			a.WindowSampleSize, bitint.NextPowerOfTwo(a.WindowSampleSize))
	}
	if a.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice))
	}
	if a.AmplitudeScalar <= 0 {
		errs = append(errs, fmt.Errorf("audio.amplitude_scalar must be positive, got %g", a.AmplitudeScalar))
	}
	if a.ReadBackoff <= 0 {
		errs = append(errs, fmt.Errorf("audio.read_backoff must be positive, got %s", a.ReadBackoff))
	}
	if a.FakeInterval <= 0 {
		errs = append(errs, fmt.Errorf("audio.fake_interval must be positive, got %s", a.FakeInterval))
	}

	// Analysis
	an := c.Analysis
	if !slices.Contains(KnownFFTBackends, strings.ToLower(an.FFTBackend)) {
		errs = append(errs, fmt.Errorf("analysis.fft_backend %q is not one of %v", an.FFTBackend, KnownFFTBackends))
	}
	if !slices.Contains(KnownFFTWindows, strings.ToLower(an.FFTWindow)) {
		errs = append(errs, fmt.Errorf("analysis.fft_window %q is not one of %v", an.FFTWindow, KnownFFTWindows))
	}
	if an.LowThresholdHz <= 0 || an.MidThresholdHz <= an.LowThresholdHz || an.HighThresholdHz <= an.MidThresholdHz {
		errs = append(errs, fmt.Errorf("analysis thresholds must satisfy 0 < low < mid < high, got %g/%g/%g",
			an.LowThresholdHz, an.MidThresholdHz, an.HighThresholdHz))
	}
	if an.GainHistory < 1 {
		errs = append(errs, fmt.Errorf("analysis.gain_history must be at least 1, got %d", an.GainHistory))
	}
	if an.GainTarget <= 0 {
		errs = append(errs, fmt.Errorf("analysis.gain_target must be positive, got %g", an.GainTarget))
	}

	// Playback
	if c.Playback.WindowDuration <= 0 {
		errs = append(errs, fmt.Errorf("playback.window_duration must be positive, got %s", c.Playback.WindowDuration))
	}

	// Transport
	t := c.Transport
	if t.UDPEnabled {
		if !strings.Contains(t.UDPTargetAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress))
		}
		if t.UDPSendInterval < 0 {
			errs = append(errs, fmt.Errorf("transport.udp_send_interval must not be negative"))
		}
	}
	if t.WebSocketMinInterval < 0 {
		errs = append(errs, errors.New("transport.websocket_min_interval must not be negative"))
	}
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		errs = append(errs, errors.New("transport.websocket_address must be set when the websocket is enabled"))
	}

	return errors.Join(errs...)
}

// EffectiveLogLevel returns the level to run with, honouring Debug.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	// Load never overrides variables that are already set in the process.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Unparseable values are ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	envBool("ENV_DEBUG", &cfg.Debug)
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Infof("configuration: Overriding log_level from env: %s", val)
	}

	// ENV_AUDIO_{...}
	// These are specific to capture and analysis.

	envInt("ENV_AUDIO_DEVICE", &cfg.Audio.InputDevice)
	envInt("ENV_AUDIO_SAMPLES_PER_SECOND", &cfg.Audio.SamplesPerSecond)
	envInt("ENV_AUDIO_WINDOW_SAMPLE_SIZE", &cfg.Audio.WindowSampleSize)
	envFloat("ENV_AUDIO_AMPLITUDE_SCALAR", &cfg.Audio.AmplitudeScalar)
	envBool("ENV_AUDIO_FAKE", &cfg.Audio.UseFakeAudio)

	// ENV_UDP_{...} and ENV_WS_{...}
	// These are specific to the transport layer.

	envBool("ENV_UDP_ENABLED", &cfg.Transport.UDPEnabled)
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
	envDuration("ENV_UDP_SEND_INTERVAL", &cfg.Transport.UDPSendInterval)
	envBool("ENV_WS_ENABLED", &cfg.Transport.WebSocketEnabled)
	envDuration("ENV_WS_MIN_INTERVAL", &cfg.Transport.WebSocketMinInterval)
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketAddress = val
		applog.Infof("configuration: Overriding transport.websocket_address from env: %s", val)
	}
}

func envBool(key string, dst *bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		applog.Warnf("configuration: Ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = b
	applog.Infof("configuration: Overriding from env %s: %v", key, b)
}

func envInt(key string, dst *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		applog.Warnf("configuration: Ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = n
	applog.Infof("configuration: Overriding from env %s: %d", key, n)
}

func envFloat(key string, dst *float64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		applog.Warnf("configuration: Ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = f
	applog.Infof("configuration: Overriding from env %s: %g", key, f)
}

func envDuration(key string, dst *time.Duration) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		applog.Warnf("configuration: Ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = d
	applog.Infof("configuration: Overriding from env %s: %s", key, d)
}

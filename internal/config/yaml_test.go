// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Audio.WindowSampleSize != DefaultWindowSampleSize {
		t.Errorf("window size = %d, want default %d", cfg.Audio.WindowSampleSize, DefaultWindowSampleSize)
	}
	if cfg.Analysis.MidThresholdHz != DefaultMidThresholdHz {
		t.Errorf("mid threshold = %g, want %g", cfg.Analysis.MidThresholdHz, DefaultMidThresholdHz)
	}
	if !cfg.Frames.DropOldestOnFull {
		t.Error("expected latest-only frame channel by default")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: warn
audio:
  samples_per_second: 22050
  window_sample_size: 2048
  amplitude_scalar: 4
analysis:
  fft_backend: godsp
  fft_window: hann
  mid_threshold_hz: 4000
  gain_history: 800
playback:
  window_duration: 40ms
frames:
  drop_oldest_on_full: false
transport:
  websocket_min_interval: 33ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Audio.SamplesPerSecond != 22050 || cfg.Audio.WindowSampleSize != 2048 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.AmplitudeScalar != 4 {
		t.Errorf("amplitude scalar = %g, want 4", cfg.Audio.AmplitudeScalar)
	}
	if cfg.Analysis.FFTBackend != "godsp" || cfg.Analysis.FFTWindow != "hann" {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.MidThresholdHz != 4000 || cfg.Analysis.GainHistory != 800 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	// Untouched keys keep their defaults.
	if cfg.Analysis.HighThresholdHz != DefaultHighThresholdHz {
		t.Errorf("high threshold = %g, want default", cfg.Analysis.HighThresholdHz)
	}
	if cfg.Playback.WindowDuration != 40*time.Millisecond {
		t.Errorf("window duration = %s, want 40ms", cfg.Playback.WindowDuration)
	}
	if cfg.Frames.DropOldestOnFull {
		t.Error("expected unbounded frame channel")
	}
	if cfg.Transport.WebSocketMinInterval != 33*time.Millisecond {
		t.Errorf("websocket min interval = %s, want 33ms", cfg.Transport.WebSocketMinInterval)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_AUDIO_WINDOW_SAMPLE_SIZE", "512")
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.10:1234")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "25ms")
	t.Setenv("ENV_AUDIO_AMPLITUDE_SCALAR", "not-a-number")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audio.WindowSampleSize != 512 {
		t.Errorf("window size = %d, want 512", cfg.Audio.WindowSampleSize)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.10:1234" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
	if cfg.Transport.UDPSendInterval != 25*time.Millisecond {
		t.Errorf("udp interval = %s, want 25ms", cfg.Transport.UDPSendInterval)
	}
	if cfg.Audio.AmplitudeScalar != DefaultAmplitudeScalar {
		t.Errorf("bad env value should be ignored, got %g", cfg.Audio.AmplitudeScalar)
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("ENV_AUDIO_SAMPLES_PER_SECOND=44100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	orig := DotEnvFile
	DotEnvFile = envPath
	t.Cleanup(func() {
		DotEnvFile = orig
		os.Unsetenv("ENV_AUDIO_SAMPLES_PER_SECOND")
	})

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audio.SamplesPerSecond != 44100 {
		t.Errorf("samples per second = %d, want 44100 from dotenv", cfg.Audio.SamplesPerSecond)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"sample rate too low", func(c *Config) { c.Audio.SamplesPerSecond = 100 }, "samples_per_second"},
		{"window too small", func(c *Config) { c.Audio.WindowSampleSize = 1 }, "window_sample_size"},
		{"odd window accepted", func(c *Config) { c.Audio.WindowSampleSize = 1000 }, ""},
		{"zero scalar", func(c *Config) { c.Audio.AmplitudeScalar = 0 }, "amplitude_scalar"},
		{"unknown backend", func(c *Config) { c.Analysis.FFTBackend = "fftw" }, "fft_backend"},
		{"unknown window", func(c *Config) { c.Analysis.FFTWindow = "kaiser" }, "fft_window"},
		{"inverted thresholds", func(c *Config) { c.Analysis.MidThresholdHz = 500 }, "thresholds"},
		{"empty history", func(c *Config) { c.Analysis.GainHistory = 0 }, "gain_history"},
		{"zero target", func(c *Config) { c.Analysis.GainTarget = 0 }, "gain_target"},
		{"zero playback window", func(c *Config) { c.Playback.WindowDuration = 0 }, "window_duration"},
		{"udp without port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, "udp_target_address"},
		{"negative websocket interval", func(c *Config) {
			c.Transport.WebSocketMinInterval = -time.Millisecond
		}, "websocket_min_interval"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEffectiveLogLevel(t *testing.T) {
	t.Parallel()
	cfg := NewConfig()
	if got := cfg.EffectiveLogLevel(); got != "info" {
		t.Errorf("got %q, want info", got)
	}
	cfg.Debug = true
	if got := cfg.EffectiveLogLevel(); got != "debug" {
		t.Errorf("got %q, want debug", got)
	}
}

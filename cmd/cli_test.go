// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioviz/internal/config"
	applog "audioviz/internal/log"
	"audioviz/internal/transport"
	"audioviz/pkg/utils"
)

// chdir moves into a directory without config.yaml or .env files.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestApplyFlagsOnlyExplicit(t *testing.T) {
	chdir(t)
	root := NewRootCommand()
	require.NoError(t, root.ParseFlags([]string{"--device", "3", "-s", "48000", "--fake", "-v"}))

	cfg := config.NewConfig()
	cfg.Audio.WindowSampleSize = 2048
	flags := &flagValues{}
	// Re-read values through the bound flag set.
	fs := root.Flags()
	flags.device, _ = fs.GetInt("device")
	flags.samplesPerSecond, _ = fs.GetInt("samples-per-second")
	flags.fake, _ = fs.GetBool("fake")
	flags.verbose, _ = fs.GetBool("verbose")

	applyFlags(root, flags, cfg)
	assert.Equal(t, 3, cfg.Audio.InputDevice)
	assert.Equal(t, 48000, cfg.Audio.SamplesPerSecond)
	assert.Equal(t, 2048, cfg.Audio.WindowSampleSize, "unset flags keep file values")
	assert.True(t, cfg.Audio.UseFakeAudio)
	assert.True(t, cfg.Debug)
}

func TestFakeRunStopsOnCancel(t *testing.T) {
	chdir(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)

	start := time.Now()
	require.NoError(t, Execute(ctx, []string{"--fake"}))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPlayRunsToEndOfTrack(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "tone.wav")

	const rate = 8000
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	pcm := utils.GeneratePCM16(utils.GenerateSineWave(rate/10, rate, 440, 0.5))
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, Execute(ctx, []string{"play", path}))
	assert.NoError(t, ctx.Err(), "playback ends with the track")
}

func TestPlayRejectsUnsupportedFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.Error(t, Execute(context.Background(), []string{"play", path}))
}

func TestInvalidFlagValue(t *testing.T) {
	chdir(t)
	err := Execute(context.Background(), []string{"--fake", "--window-sample-size", "1"})
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestBuildSinksWebSocketInterval(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Transport.WebSocketEnabled = true
	cfg.Transport.WebSocketAddress = "127.0.0.1:0"
	cfg.Transport.WebSocketMinInterval = 25 * time.Millisecond

	sinks, meter, err := buildSinks(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, transport.CloseAll(sinks...)) })
	assert.Nil(t, meter)

	require.Len(t, sinks, 2)
	ws, ok := sinks[1].(*transport.WebSocketTransport)
	require.True(t, ok)
	assert.Equal(t, 25*time.Millisecond, ws.MinSendInterval())
}

func TestSilenceLogsRestoresOutput(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	t.Cleanup(func() { applog.SetOutput(os.Stderr) })

	restore := silenceLogs()
	assert.Equal(t, io.Discard, applog.Output())
	applog.Warnf("hidden")
	restore()

	applog.Warnf("visible")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestVersion(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "dev")
}

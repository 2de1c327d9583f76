// SPDX-License-Identifier: MIT

// Package decode loads audio files into mono tracks for playback analysis.
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"

	"audioviz/internal/audio"
	applog "audioviz/internal/log"
)

// ErrUnsupportedFormat is returned for files whose extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// SupportedExtensions lists the file extensions File can decode.
var SupportedExtensions = []string{".wav", ".mp3", ".ogg"}

// File decodes the file at path, choosing the decoder by extension.
func File(path string) (audio.Track, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var decodeFn func(*os.File) (audio.Track, error)
	switch ext {
	case ".wav":
		decodeFn = func(f *os.File) (audio.Track, error) { return WAV(f) }
	case ".mp3":
		decodeFn = func(f *os.File) (audio.Track, error) { return MP3(f) }
	case ".ogg":
		decodeFn = func(f *os.File) (audio.Track, error) { return OGG(f) }
	default:
		return audio.Track{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return audio.Track{}, xerrors.New("opening audio file", err)
	}
	defer f.Close()

	track, err := decodeFn(f)
	if err != nil {
		return audio.Track{}, xerrors.New(fmt.Sprintf("decoding %s", filepath.Base(path)), err)
	}

	applog.Infof("Decode: %s: %d samples at %d Hz (%v)", filepath.Base(path), len(track.Samples), track.SampleRate, track.Duration)
	return track, nil
}

// Sample is an integer PCM value or an already normalized float.
type Sample interface {
	~int | ~float32
}

// Downmix averages interleaved frames into mono floats. fullScale is the
// magnitude that maps to 1.0; results are clamped to [-1, 1].
func Downmix[S Sample](interleaved []S, channels int, fullScale float64) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(interleaved[i*channels+c])
		}
		v := sum / float64(channels) / fullScale
		out[i] = audio.ClampSample(float32(v))
	}
	return out
}

// trackDuration is the exact playing time of frames at sampleRate.
func trackDuration(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(sampleRate))
}

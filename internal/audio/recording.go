// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotRecording is returned by Write after the Recorder has been closed.
var ErrNotRecording = errors.New("recorder is closed")

// Recorder writes captured 16-bit mono PCM into a WAV file.
type Recorder struct {
	mu        sync.Mutex
	file      *os.File
	encoder   *wav.Encoder
	sampleBuf *audio.IntBuffer // Reused for format conversion.
	recording atomic.Bool
	samples   atomic.Uint64
}

var _ PCMWriter = (*Recorder)(nil)

// NewRecorder creates filename and prepares a 16-bit mono WAV encoder at
// sampleRate.
func NewRecorder(filename string, sampleRate int) (*Recorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid recording sample rate %d", sampleRate)
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, 16, 1, 1),
		sampleBuf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
	r.recording.Store(true)
	return r, nil
}

// DefaultRecordingName returns a timestamped file name for a recording
// started at t.
func DefaultRecordingName(t time.Time) string {
	return fmt.Sprintf("recording_%s.wav", t.Format("20060102_150405"))
}

// Write appends samples to the file.
func (r *Recorder) Write(samples []int16) error {
	if !r.recording.Load() {
		return ErrNotRecording
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(r.sampleBuf.Data) < len(samples) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(samples)]
	for i, s := range samples {
		r.sampleBuf.Data[i] = int(s)
	}

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		return fmt.Errorf("writing WAV samples: %w", err)
	}
	r.samples.Add(uint64(len(samples)))
	return nil
}

// Samples returns the number of samples written so far.
func (r *Recorder) Samples() uint64 { return r.samples.Load() }

// Close finalizes the WAV header and closes the file. Closing twice is a
// no-op.
func (r *Recorder) Close() error {
	if !r.recording.CompareAndSwap(true, false) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return errors.Join(r.encoder.Close(), r.file.Close())
}

// Name returns the path of the file being written.
func (r *Recorder) Name() string { return r.file.Name() }

// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"

	"github.com/gordonklaus/portaudio"

	applog "audioviz/internal/log"
)

// ErrDeviceOpen wraps failures to open or start the capture device. Capture
// cannot proceed without a device, so callers treat it as fatal.
var ErrDeviceOpen = errors.New("audio device open failed")

// SampleReader is a blocking source of 16-bit mono PCM. Read returns the
// samples delivered since the previous call; the slice is only valid until
// the next Read. Returning zero samples is not an error.
type SampleReader interface {
	Read() ([]int16, error)
}

// InputStream is a PortAudio blocking-read capture stream with one channel.
type InputStream struct {
	stream *portaudio.Stream
	buffer []int16
	device string
}

var _ SampleReader = (*InputStream)(nil)

// OpenInputStream opens and starts a mono capture stream on deviceID.
// framesPerBuffer is the number of samples each Read returns.
func OpenInputStream(deviceID int, sampleRate float64, framesPerBuffer int) (*InputStream, error) {
	dev, err := InputDevice(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceOpen, err)
	}

	buffer := make([]int16, framesPerBuffer)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceOpen, dev.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceOpen, dev.Name, err)
	}

	applog.Infof("Audio: capturing from '%s' at %.0f Hz, %d frames per read", dev.Name, sampleRate, framesPerBuffer)
	return &InputStream{stream: stream, buffer: buffer, device: dev.Name}, nil
}

// Read blocks until a full buffer has been captured. Input overflows are
// logged and the buffer is still returned.
func (s *InputStream) Read() ([]int16, error) {
	if err := s.stream.Read(); err != nil {
		if errors.Is(err, portaudio.InputOverflowed) {
			applog.Debugf("Audio: input overflow on '%s'", s.device)
			return s.buffer, nil
		}
		return nil, err
	}
	return s.buffer, nil
}

// Close stops and closes the stream.
func (s *InputStream) Close() error {
	return errors.Join(s.stream.Stop(), s.stream.Close())
}

// PCM16ToFloat converts 16-bit samples to floats in [-1, 1], appending to
// dst. -32768 would map just below -1 and is clamped.
func PCM16ToFloat(dst []float32, src []int16) []float32 {
	for _, s := range src {
		dst = append(dst, ClampSample(float32(s)/math.MaxInt16))
	}
	return dst
}

// ClampSample limits v to [-1, 1]. NaN becomes silence.
func ClampSample(v float32) float32 {
	switch {
	case v != v:
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

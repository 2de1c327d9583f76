// SPDX-License-Identifier: MIT
package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/mdobak/go-xerrors"

	"audioviz/internal/audio"
)

// WAV decodes an integer PCM WAV stream of any bit depth go-audio supports.
func WAV(r io.ReadSeeker) (audio.Track, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return audio.Track{}, xerrors.New("not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Track{}, xerrors.New("reading WAV samples", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	rate := int(dec.SampleRate)
	if channels < 1 || rate < 1 {
		return audio.Track{}, xerrors.New(fmt.Sprintf("invalid WAV format: %d channels at %d Hz", channels, rate))
	}
	if bitDepth < 8 || bitDepth > 32 {
		return audio.Track{}, xerrors.New(fmt.Sprintf("unsupported WAV bit depth %d", bitDepth))
	}

	data := buf.Data
	if bitDepth == 8 {
		// 8-bit PCM is unsigned; centre it on zero.
		centred := make([]int, len(data))
		for i, v := range data {
			centred[i] = v - 128
		}
		data = centred
	}

	fullScale := float64(int64(1)<<(bitDepth-1) - 1)
	samples := Downmix(data, channels, fullScale)

	return audio.Track{
		Samples:    samples,
		Duration:   trackDuration(len(samples), rate),
		SampleRate: rate,
	}, nil
}

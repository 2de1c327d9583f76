// SPDX-License-Identifier: MIT
package decode

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mdobak/go-xerrors"

	"audioviz/internal/audio"
)

// go-mp3 always produces interleaved 16-bit little-endian stereo.
const mp3Channels = 2

// MP3 decodes an MPEG-1/2 Layer III stream.
func MP3(r io.Reader) (audio.Track, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return audio.Track{}, xerrors.New("opening MP3 stream", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return audio.Track{}, xerrors.New("reading MP3 samples", err)
	}

	pcm := make([]int, len(raw)/2)
	for i := range pcm {
		pcm[i] = int(int16(binary.LittleEndian.Uint16(raw[2*i:])))
	}

	rate := dec.SampleRate()
	samples := Downmix(pcm, mp3Channels, math.MaxInt16)
	if len(samples) == 0 {
		return audio.Track{}, xerrors.New("MP3 stream contains no audio frames")
	}

	return audio.Track{
		Samples:    samples,
		Duration:   trackDuration(len(samples), rate),
		SampleRate: rate,
	}, nil
}

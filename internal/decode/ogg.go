// SPDX-License-Identifier: MIT
package decode

import (
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/mdobak/go-xerrors"

	"audioviz/internal/audio"
)

// OGG decodes an Ogg Vorbis stream. Vorbis already yields interleaved
// floats in [-1, 1], so frames are only averaged down to mono.
func OGG(r io.Reader) (audio.Track, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return audio.Track{}, xerrors.New("reading Ogg Vorbis stream", err)
	}

	samples := Downmix(data, format.Channels, 1)
	if len(samples) == 0 {
		return audio.Track{}, xerrors.New("Ogg Vorbis stream contains no audio frames")
	}

	return audio.Track{
		Samples:    samples,
		Duration:   trackDuration(len(samples), format.SampleRate),
		SampleRate: format.SampleRate,
	}, nil
}

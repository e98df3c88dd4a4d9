package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/audio/resampler"
)

type oggVorbisReader struct {
	reader *oggvorbis.Reader
	Format resampler.Format
	buffer []float32
}

func newOggVorbisReader(r io.Reader) (*oggVorbisReader, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to open the Ogg Vorbis stream: %w", err)
	}
	format := resampler.Format{
		Channels:   audio.Channel(reader.Channels()),
		SampleRate: audio.SampleRate(reader.SampleRate()),
		PCMFormat:  audio.PCMFormatFloat32LE,
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Ogg Vorbis format: %w", err)
	}
	return &oggVorbisReader{
		reader: reader,
		Format: format,
	}, nil
}

func (r *oggVorbisReader) Read(p []byte) (int, error) {
	channels := int(r.Format.Channels)
	samples := len(p) / int(r.Format.FrameSize()) * channels
	if samples == 0 {
		return 0, nil
	}
	if cap(r.buffer) < samples {
		r.buffer = make([]float32, samples)
	}
	buf := r.buffer[:samples]

	n, err := r.reader.Read(buf)
	for idx, v := range buf[:n] {
		r.Format.PCMFormat.Encode(p[idx*4:], float64(v))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n * 4, fmt.Errorf("unable to decode Ogg Vorbis: %w", err)
	}
	return n * 4, err
}

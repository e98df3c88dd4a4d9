package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mjibson/go-dsp/wav"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/audio/resampler"
)

const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

type wavReader struct {
	wav    *wav.Wav
	Format resampler.Format

	// guaranteed is the amount of samples which are surely in the data
	// chunk: wav.Samples is rounded down to a multiple of 8.
	guaranteed int
	isEOF      bool
}

func newWAVReader(r io.Reader) (*wavReader, error) {
	w, err := wav.New(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse the WAV header: %w", err)
	}

	var pcmFormat audio.PCMFormat
	switch {
	case w.AudioFormat == wavFormatPCM && w.BitsPerSample == 8:
		pcmFormat = audio.PCMFormatU8
	case w.AudioFormat == wavFormatPCM && w.BitsPerSample == 16:
		pcmFormat = audio.PCMFormatS16LE
	case w.AudioFormat == wavFormatIEEEFloat && w.BitsPerSample == 32:
		pcmFormat = audio.PCMFormatFloat32LE
	default:
		return nil, fmt.Errorf("unsupported WAV format %d with %d bits per sample", w.AudioFormat, w.BitsPerSample)
	}
	format := resampler.Format{
		Channels:   audio.Channel(w.NumChannels),
		SampleRate: audio.SampleRate(w.SampleRate),
		PCMFormat:  pcmFormat,
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WAV format: %w", err)
	}
	return &wavReader{
		wav:        w,
		Format:     format,
		guaranteed: w.Samples,
	}, nil
}

func (r *wavReader) Read(p []byte) (int, error) {
	if r.isEOF {
		return 0, io.EOF
	}

	frameSize := int(r.Format.FrameSize())
	channels := int(r.Format.Channels)
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}
	isTail := r.guaranteed < channels
	if isTail {
		// a short read drops the partially read samples, so the
		// rest of the data chunk is read frame by frame
		frames = 1
	} else {
		frames = min(frames, r.guaranteed/channels)
	}

	samples := frames * channels
	data, err := r.wav.ReadSamples(samples)
	switch {
	case err == nil:
	case isTail && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)):
		r.isEOF = true
		return 0, io.EOF
	default:
		return 0, fmt.Errorf("unable to read %d samples: %w", samples, err)
	}
	r.guaranteed = max(r.guaranteed-samples, 0)

	switch data := data.(type) {
	case []uint8:
		return copy(p, data), nil
	case []int16:
		for idx, v := range data {
			binary.LittleEndian.PutUint16(p[idx*2:], uint16(v))
		}
		return len(data) * 2, nil
	case []float32:
		for idx, v := range data {
			binary.LittleEndian.PutUint32(p[idx*4:], math.Float32bits(v))
		}
		return len(data) * 4, nil
	}
	return 0, fmt.Errorf("unexpected type of WAV samples: %T", data)
}

package source

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cryptix/wav"
	"github.com/xaionaro-go/vad/pkg/audio"
)

const (
	wavDataSizeOffset = 40
	wavHeaderSize     = 44
)

type nopCloser struct {
	io.WriteSeeker
}

func (nopCloser) Close() error {
	return nil
}

// WriteWAV writes mono float32 samples as a 16-bit PCM WAV file.
// The caller is responsible for closing out.
func WriteWAV(
	out io.WriteSeeker,
	sampleRate audio.SampleRate,
	samples []float32,
) error {
	file := wav.File{
		Channels:        1,
		SampleRate:      uint32(sampleRate),
		SignificantBits: 16,
	}
	w, err := file.NewWriter(nopCloser{out})
	if err != nil {
		return fmt.Errorf("unable to write the WAV header: %w", err)
	}

	sample := make([]byte, audio.PCMFormatS16LE.Size())
	for idx, v := range samples {
		audio.PCMFormatS16LE.Encode(sample, float64(v))
		if err := w.WriteSample(sample); err != nil {
			return fmt.Errorf("unable to write sample %d: %w", idx, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to finalize the WAV file: %w", err)
	}

	// the writer puts the size of everything after the RIFF header into
	// the size of the data chunk, so it is fixed up here
	dataSize := uint32(len(samples)) * uint32(audio.PCMFormatS16LE.Size())
	if _, err := out.Seek(wavDataSizeOffset, io.SeekStart); err != nil {
		return fmt.Errorf("unable to seek to the data chunk size: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, dataSize); err != nil {
		return fmt.Errorf("unable to write the data chunk size: %w", err)
	}
	if _, err := out.Seek(wavHeaderSize+int64(dataSize), io.SeekStart); err != nil {
		return fmt.Errorf("unable to seek to the end of the WAV file: %w", err)
	}
	return nil
}

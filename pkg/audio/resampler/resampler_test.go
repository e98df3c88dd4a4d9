package resampler

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vad/pkg/audio"
)

func readAll(t *testing.T, r io.Reader, chunkSize int) []byte {
	var result []byte
	buf := make([]byte, chunkSize)
	for i := 0; i < 1_000_000; i++ {
		n, err := r.Read(buf)
		result = append(result, buf[:n]...)
		if err == io.EOF {
			return result
		}
		require.NoError(t, err)
	}
	t.Fatal("the reader does not end")
	return nil
}

func TestResampler(t *testing.T) {
	t.Run("Identity_S16LE_Mono_44100", func(t *testing.T) {
		inFmt := Format{
			Channels:   1,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatS16LE,
		}
		data := make([]byte, 200)
		for i := 0; i < 100; i++ {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(i*100))
		}
		r, err := NewResampler(inFmt, bytes.NewReader(data), inFmt)
		require.NoError(t, err)

		out := make([]byte, 200)
		n, err := r.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 200, n)
		assert.Equal(t, data, out)

		n, err = r.Read(out)
		assert.Zero(t, n)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("Conversion_U8_to_Float32LE_Mono", func(t *testing.T) {
		inFmt := Format{
			Channels:   1,
			SampleRate: 16000,
			PCMFormat:  audio.PCMFormatU8,
		}
		outFmt := inFmt
		outFmt.PCMFormat = audio.PCMFormatFloat32LE
		r, err := NewResampler(inFmt, bytes.NewReader([]byte{0, 128, 255}), outFmt)
		require.NoError(t, err)

		out := make([]byte, 3*4)
		n, err := r.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 12, n)

		assert.InDelta(t, -1.0, math.Float32frombits(binary.LittleEndian.Uint32(out[0:4])), 0.01)
		assert.InDelta(t, 0.0, math.Float32frombits(binary.LittleEndian.Uint32(out[4:8])), 0.01)
		assert.InDelta(t, 1.0, math.Float32frombits(binary.LittleEndian.Uint32(out[8:12])), 0.01)
	})

	t.Run("Downsampling_44100_to_22050", func(t *testing.T) {
		inFmt := Format{
			Channels:   1,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatU8,
		}
		outFmt := inFmt
		outFmt.SampleRate = 22050
		data := make([]byte, 100)
		for i := range data {
			data[i] = byte(i)
		}
		r, err := NewResampler(inFmt, bytes.NewReader(data), outFmt)
		require.NoError(t, err)

		out := make([]byte, 50)
		n, err := r.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 50, n)
		for i := range out {
			assert.Equal(t, data[i*2], out[i])
		}
	})

	t.Run("Upsampling_8000_to_16000_by_single_bytes", func(t *testing.T) {
		inFmt := Format{
			Channels:   1,
			SampleRate: 8000,
			PCMFormat:  audio.PCMFormatS16LE,
		}
		outFmt := inFmt
		outFmt.SampleRate = 16000
		data := make([]byte, 2*50)
		for i := 0; i < 50; i++ {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(i+1))
		}
		r, err := NewResampler(inFmt, iotest.OneByteReader(bytes.NewReader(data)), outFmt)
		require.NoError(t, err)

		out := readAll(t, r, 2)
		require.Len(t, out, 2*(2*50-1))
		require.Equal(t, uint16(1), binary.LittleEndian.Uint16(out))
		for i := 1; i < 2*50-1; i++ {
			require.Equal(t, uint16((i+1)/2+1), binary.LittleEndian.Uint16(out[i*2:]), "sample %d", i)
		}
	})

	t.Run("Channels_Mono_to_Stereo", func(t *testing.T) {
		inFmt := Format{
			Channels:   1,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatU8,
		}
		outFmt := inFmt
		outFmt.Channels = 2
		r, err := NewResampler(inFmt, bytes.NewReader([]byte{10, 20, 30}), outFmt)
		require.NoError(t, err)

		out := make([]byte, 6)
		n, err := r.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 6, n)
		assert.Equal(t, []byte{10, 10, 20, 20, 30, 30}, out)
	})

	t.Run("Channels_Stereo_to_Mono", func(t *testing.T) {
		inFmt := Format{
			Channels:   2,
			SampleRate: 44100,
			PCMFormat:  audio.PCMFormatU8,
		}
		outFmt := inFmt
		outFmt.Channels = 1
		r, err := NewResampler(inFmt, bytes.NewReader([]byte{100, 200, 50, 150}), outFmt)
		require.NoError(t, err)

		out := make([]byte, 2)
		n, err := r.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []byte{150, 100}, out)
	})

	t.Run("Truncated_input", func(t *testing.T) {
		inFmt := Format{
			Channels:   2,
			SampleRate: 16000,
			PCMFormat:  audio.PCMFormatS16LE,
		}
		r, err := NewResampler(inFmt, bytes.NewReader(make([]byte, 7)), inFmt)
		require.NoError(t, err)

		out := make([]byte, 64)
		n, err := r.Read(out)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		_, err = r.Read(out)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func TestNewResampler(t *testing.T) {
	valid := Format{Channels: 2, SampleRate: 16000, PCMFormat: audio.PCMFormatS16LE}

	for name, format := range map[string]Format{
		"no_channels":    {Channels: 0, SampleRate: 16000, PCMFormat: audio.PCMFormatS16LE},
		"no_sample_rate": {Channels: 1, SampleRate: 0, PCMFormat: audio.PCMFormatS16LE},
		"no_pcm_format":  {Channels: 1, SampleRate: 16000},
		"3_channels":     {Channels: 3, SampleRate: 16000, PCMFormat: audio.PCMFormatS16LE},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewResampler(format, bytes.NewReader(nil), valid)
			require.Error(t, err)
		})
	}
}

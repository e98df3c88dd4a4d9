package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ pflag.Value = (*PCMFormat)(nil)

func TestPCMFormat(t *testing.T) {
	for f := PCMFormatU8; f < endOfPCMFormat; f++ {
		t.Run(f.String(), func(t *testing.T) {
			parsed, err := PCMFormatFromString(f.String())
			require.NoError(t, err)
			require.Equal(t, f, parsed)
			require.NotZero(t, f.Size())

			buf := make([]byte, f.Size())
			for _, v := range []float64{0, 0.5, -0.5, -1} {
				f.Encode(buf, v)
				assert.InDelta(t, v, f.Decode(buf), 1.0/128, "value %v", v)
			}

			f.Encode(buf, 2)
			isFloat := f.String()[0] == 'f'
			if isFloat {
				assert.Equal(t, 2.0, f.Decode(buf))
			} else {
				// integer formats are clipped
				assert.InDelta(t, 1, f.Decode(buf), 1.0/64)
			}
			f.Encode(buf, -2)
			if isFloat {
				assert.Equal(t, -2.0, f.Decode(buf))
			} else {
				assert.InDelta(t, -1, f.Decode(buf), 1.0/64)
			}
		})
	}

	_, err := PCMFormatFromString("s12le")
	require.Error(t, err)
	require.Zero(t, PCMFormatUndefined.Size())
	require.Equal(t, "unknown_format_100", PCMFormat(100).String())

	var f PCMFormat
	require.NoError(t, f.Set("F32LE"))
	require.Equal(t, PCMFormatFloat32LE, f)
}

func TestPCMFormatFloat32Native(t *testing.T) {
	f := PCMFormatFloat32Native()
	require.Contains(t, []PCMFormat{PCMFormatFloat32LE, PCMFormatFloat32BE}, f)

	v := float32(0.123)
	native := make([]byte, 4)
	binary.NativeEndian.PutUint32(native, math.Float32bits(v))
	require.Equal(t, float64(v), f.Decode(native))

	b := make([]byte, 4)
	f.Encode(b, -0.5)
	require.Equal(t, float32(-0.5), math.Float32frombits(binary.NativeEndian.Uint32(b)))
}

func TestSampleRate(t *testing.T) {
	r := SampleRate(16000)
	require.Equal(t, 4000, r.SamplesForDuration(250*time.Millisecond))
	require.Equal(t, 250*time.Millisecond, r.DurationForSamples(4000))
	require.Zero(t, SampleRate(0).DurationForSamples(100))

	enc := EncodingPCM{PCMFormat: PCMFormatS16LE, SampleRate: r}
	require.Equal(t, uint(2), enc.BytesPerSample())
	require.Equal(t, uint64(32000), enc.BytesForDuration(time.Second))
	require.Equal(t, "s16le@16000Hz", fmt.Sprint(enc))
}

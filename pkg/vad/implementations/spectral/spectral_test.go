package spectral

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vad/pkg/vad/registry"
)

func sine(size int, frequency, amplitude float64) []float32 {
	result := make([]float32, size)
	for idx := range result {
		result[idx] = float32(amplitude * math.Sin(2*math.Pi*frequency*float64(idx)/16000))
	}
	return result
}

func TestModel(t *testing.T) {
	ctx := context.Background()
	m, err := New(16000)
	require.NoError(t, err)
	require.Equal(t, 512, m.WindowSize())
	require.Equal(t, 256, m.WindowShift())

	for _, tc := range []struct {
		Frequency float64
		Amplitude float64
		Min, Max  float64
	}{
		{Frequency: 1000, Amplitude: 0.3, Min: 0.9, Max: 1},
		{Frequency: 2500, Amplitude: 0.3, Min: 0.9, Max: 1},
		{Frequency: 6000, Amplitude: 0.3, Min: 0, Max: 0.1},
		{Frequency: 60, Amplitude: 0.3, Min: 0, Max: 0.1},
		{Frequency: 1000, Amplitude: 0.0001, Min: 0, Max: 0.1},
	} {
		t.Run(fmt.Sprintf("%vHz_%v", tc.Frequency, tc.Amplitude), func(t *testing.T) {
			prob, err := m.Run(ctx, sine(m.WindowSize(), tc.Frequency, tc.Amplitude))
			require.NoError(t, err)
			require.GreaterOrEqual(t, prob, tc.Min)
			require.LessOrEqual(t, prob, tc.Max)
		})
	}

	prob, err := m.Run(ctx, make([]float32, m.WindowSize()))
	require.NoError(t, err)
	require.Zero(t, prob)

	_, err = m.Run(ctx, make([]float32, 10))
	require.Error(t, err)
}

func TestSpectrumMatchesReferenceFFT(t *testing.T) {
	ctx := context.Background()
	m, err := New(16000)
	require.NoError(t, err)

	samples := sine(m.WindowSize(), 440, 0.3)
	for idx := range samples {
		samples[idx] += float32(0.1 * math.Sin(2*math.Pi*5000*float64(idx)/16000))
	}
	_, err = m.Run(ctx, samples)
	require.NoError(t, err)

	windowed := make([]float64, len(samples))
	for idx, sample := range samples {
		windowed[idx] = float64(sample) * m.Window[idx]
	}
	expected := fft.FFTReal(windowed)
	for idx := 0; idx <= len(expected)/2; idx++ {
		require.InDelta(t, cmplx.Abs(expected[idx]), cmplx.Abs(m.Buffer[idx]), 1e-6, "bin %d", idx)
	}
}

func TestRegistered(t *testing.T) {
	ctx := context.Background()
	model, err := registry.NewModel(ctx, Name, 16000)
	require.NoError(t, err)
	require.IsType(t, (*Model)(nil), model)

	_, err = registry.NewModel(ctx, Name, 400)
	require.Error(t, err)
}

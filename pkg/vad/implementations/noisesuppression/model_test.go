package noisesuppression

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/noisesuppression"
	"github.com/xaionaro-go/vad/pkg/vad/registry"
)

func TestModel(t *testing.T) {
	ctx := context.Background()

	ns := noisesuppression.NewDummy(audio.EncodingPCM{
		PCMFormat:  audio.PCMFormatFloat32LE,
		SampleRate: 48000,
	}, 1, 480*4)
	ns.VoiceProbabilityFunc = func(input []byte) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(input)))
	}

	m, err := New(ctx, ns)
	require.NoError(t, err)
	require.Equal(t, 480, m.WindowSize())
	require.Equal(t, 480, m.WindowShift())

	rate, err := audio.SampleRateOf(ctx, m)
	require.NoError(t, err)
	require.Equal(t, audio.SampleRate(48000), rate)

	window := make([]float32, 480)
	window[0] = 0.75
	prob, err := m.Run(ctx, window)
	require.NoError(t, err)
	require.Equal(t, 0.75, prob)

	_, err = m.Run(ctx, window[:10])
	require.Error(t, err)

	m.Reset(ctx)
	require.Equal(t, 1, ns.ResetCount)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	encoding := audio.EncodingPCM{PCMFormat: audio.PCMFormatS16LE, SampleRate: 48000}

	_, err := New(ctx, noisesuppression.NewDummy(encoding, 2, 960))
	require.Error(t, err)

	_, err = New(ctx, noisesuppression.NewDummy(encoding, 1, 0))
	require.Error(t, err)

	_, err = New(ctx, noisesuppression.NewDummy(encoding, 1, 961))
	require.Error(t, err)

	m, err := New(ctx, noisesuppression.NewDummy(encoding, 1, 960))
	require.NoError(t, err)
	require.Equal(t, 480, m.WindowSize())
}

func TestModelFactory(t *testing.T) {
	ctx := context.Background()
	_, err := registry.NewModel(ctx, Name, 16000)
	require.Error(t, err)
}

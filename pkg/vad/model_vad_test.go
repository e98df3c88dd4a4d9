package vad

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/vad/pkg/audio"
)

func firstSample(window []float32) float64 {
	return float64(window[0])
}

func TestModelVAD(t *testing.T) {
	ctx := context.Background()
	model := NewDummyModel(16000, 512, 512, firstSample)
	v, err := NewModelVAD(ctx, model, Params{
		Threshold:          0.5,
		MinSpeechDuration:  250 * time.Millisecond,
		MinSilenceDuration: 100 * time.Millisecond,
		RecoveryMargin:     0.15,
	})
	require.NoError(t, err)
	require.Equal(t, 4000, v.MinSpeechDurationSamples())
	require.Equal(t, 1600, v.MinSilenceDurationSamples())

	speech := make([]float32, 512)
	speech[0] = 1
	silence := make([]float32, 512)

	var decisions []bool
	for i := 0; i < 9; i++ {
		isSpeech, err := v.IsSpeech(ctx, speech)
		require.NoError(t, err)
		decisions = append(decisions, isSpeech)
	}
	require.Equal(t, []bool{false, false, false, false, false, false, false, false, true}, decisions)

	prob, err := v.Compute(ctx, silence)
	require.NoError(t, err)
	require.Zero(t, prob)

	v.SetMinSilenceDuration(0)
	require.Equal(t, 0, v.MinSilenceDurationSamples())
	isSpeech, err := v.IsSpeech(ctx, silence)
	require.NoError(t, err)
	require.False(t, isSpeech)

	v.Reset(ctx)
	require.Equal(t, 1, model.ResetCount)

	require.Panics(t, func() { _, _ = v.IsSpeech(ctx, speech[:100]) })
}

func TestNewModelVADValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewModelVAD(ctx, NewDummyModel(16000, 512, 1024, nil), DefaultParams())
	require.Error(t, err)

	params := DefaultParams()
	params.Threshold = 2
	_, err = NewModelVAD(ctx, NewDummyModel(16000, 512, 512, nil), params)
	require.Error(t, err)

	model := NewDummyModel(16000, 576, 512, nil)
	model.EncodingValue = audio.EncodingPCM{PCMFormat: audio.PCMFormatFloat32LE, SampleRate: 8000}
	v, err := NewModelVAD(ctx, model, DefaultParams())
	require.NoError(t, err)
	require.Equal(t, audio.SampleRate(8000), v.SampleRate)
	require.Equal(t, 576, v.WindowSize())
	require.Equal(t, 512, v.WindowShift())
}

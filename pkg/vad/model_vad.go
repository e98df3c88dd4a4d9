package vad

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad/hysteresis"
)

// ModelVAD turns the probabilities of a Model into speech/silence
// decisions using a hysteresis.
type ModelVAD struct {
	Model
	Hysteresis *hysteresis.Hysteresis
	SampleRate audio.SampleRate
}

var _ VAD = (*ModelVAD)(nil)

func NewModelVAD(
	ctx context.Context,
	model Model,
	params Params,
) (*ModelVAD, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid VAD parameters: %w", err)
	}
	sampleRate, err := audio.SampleRateOf(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("unable to get the sample rate of the model: %w", err)
	}
	windowSize, windowShift := model.WindowSize(), model.WindowShift()
	if windowShift <= 0 || windowShift > windowSize {
		return nil, fmt.Errorf("invalid window geometry of %T: size:%d shift:%d", model, windowSize, windowShift)
	}
	h, err := hysteresis.New(params.hysteresisParams(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the hysteresis: %w", err)
	}
	logger.Debugf(ctx, "VAD on top of %T: rate:%d window:%d shift:%d params:%#+v", model, sampleRate, windowSize, windowShift, params)
	return &ModelVAD{
		Model:      model,
		Hysteresis: h,
		SampleRate: sampleRate,
	}, nil
}

func (v *ModelVAD) MinSpeechDurationSamples() int {
	return v.Hysteresis.MinSpeechSamples
}

func (v *ModelVAD) MinSilenceDurationSamples() int {
	return v.Hysteresis.MinSilenceSamples
}

func (v *ModelVAD) IsSpeech(
	ctx context.Context,
	window []float32,
) (bool, error) {
	prob, err := v.Compute(ctx, window)
	if err != nil {
		return false, err
	}
	isSpeech := v.Hysteresis.Update(prob, v.WindowShift())
	logger.Tracef(ctx, "prob:%.3f state:%s", prob, v.Hysteresis.State())
	return isSpeech, nil
}

func (v *ModelVAD) Compute(
	ctx context.Context,
	window []float32,
) (float64, error) {
	if len(window) != v.WindowSize() {
		panic(fmt.Errorf("window length %d != window size %d", len(window), v.WindowSize()))
	}
	prob, err := v.Model.Run(ctx, window)
	if err != nil {
		return 0, fmt.Errorf("unable to run the model %T: %w", v.Model, err)
	}
	return prob, nil
}

func (v *ModelVAD) Reset(ctx context.Context) {
	v.Model.Reset(ctx)
	v.Hysteresis.Reset()
}

func (v *ModelVAD) SetThreshold(threshold float64) {
	v.Hysteresis.SetThreshold(threshold)
}

func (v *ModelVAD) SetMinSilenceDuration(d time.Duration) {
	v.Hysteresis.SetMinSilenceSamples(v.SampleRate.SamplesForDuration(d))
}

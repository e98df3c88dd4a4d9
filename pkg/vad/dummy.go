package vad

import (
	"context"

	"github.com/xaionaro-go/vad/pkg/audio"
)

// DummyModel is a Model with a fixed window geometry, which takes the
// probabilities from ProbabilityFunc (or always reports speech if it is nil).
type DummyModel struct {
	EncodingValue   audio.EncodingPCM
	WindowSizeValue int
	ShiftValue      int
	ProbabilityFunc func(window []float32) float64

	RunCount   int
	ResetCount int
}

var _ Model = (*DummyModel)(nil)

func NewDummyModel(
	sampleRate audio.SampleRate,
	windowSize int,
	windowShift int,
	probabilityFunc func(window []float32) float64,
) *DummyModel {
	return &DummyModel{
		EncodingValue: audio.EncodingPCM{
			PCMFormat:  audio.PCMFormatFloat32LE,
			SampleRate: sampleRate,
		},
		WindowSizeValue: windowSize,
		ShiftValue:      windowShift,
		ProbabilityFunc: probabilityFunc,
	}
}

func (*DummyModel) Close() error {
	return nil
}

func (m *DummyModel) Encoding(context.Context) (audio.Encoding, error) {
	return m.EncodingValue, nil
}

func (*DummyModel) Channels(context.Context) (audio.Channel, error) {
	return 1, nil
}

func (m *DummyModel) WindowSize() int {
	return m.WindowSizeValue
}

func (m *DummyModel) WindowShift() int {
	return m.ShiftValue
}

func (m *DummyModel) Run(_ context.Context, window []float32) (float64, error) {
	m.RunCount++
	if m.ProbabilityFunc == nil {
		return 1, nil
	}
	return m.ProbabilityFunc(window), nil
}

func (m *DummyModel) Reset(context.Context) {
	m.ResetCount++
}

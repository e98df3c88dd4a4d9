package fvad

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad"
	"github.com/xaionaro-go/vad/pkg/vad/registry"
)

const (
	Name     = "fvad"
	Priority = 70
)

func init() {
	registry.RegisterModelFactory(Priority, ModelFactory{})
}

type ModelFactory struct{}

func (ModelFactory) Name() string {
	return Name
}

func (ModelFactory) NewModel(ctx context.Context, sampleRate audio.SampleRate) (_ vad.Model, _err error) {
	if !IsSupportedSampleRate(sampleRate) {
		return nil, fmt.Errorf("libfvad does not support sample rate %d", sampleRate)
	}
	detector, err := NewDetector()
	if err != nil {
		return nil, err
	}
	defer func() {
		if _err != nil {
			detector.Close()
		}
	}()
	m, err := New(ctx, detector, sampleRate, DefaultFrameDuration, DefaultMode)
	if err != nil {
		return nil, err
	}
	return m, nil
}

package noisesuppression

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/noisesuppression/implementations/rnnoise"
	"github.com/xaionaro-go/vad/pkg/vad"
	"github.com/xaionaro-go/vad/pkg/vad/registry"
)

const (
	Name     = "rnnoise"
	Priority = 100
)

func init() {
	registry.RegisterModelFactory(Priority, ModelFactory{})
}

type ModelFactory struct{}

func (ModelFactory) Name() string {
	return Name
}

func (ModelFactory) NewModel(ctx context.Context, sampleRate audio.SampleRate) (_ vad.Model, _err error) {
	if sampleRate != rnnoise.SampleRate {
		return nil, fmt.Errorf("RNNoise works only at %d Hz, but %d Hz is requested", rnnoise.SampleRate, sampleRate)
	}
	ns, err := rnnoise.New()
	if err != nil {
		return nil, err
	}
	defer func() {
		if _err != nil {
			ns.Close()
		}
	}()
	m, err := New(ctx, ns)
	if err != nil {
		return nil, err
	}
	return m, nil
}

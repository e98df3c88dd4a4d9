package spectral

import (
	"context"

	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad"
	"github.com/xaionaro-go/vad/pkg/vad/registry"
)

const (
	Name     = "spectral"
	Priority = 50
)

func init() {
	registry.RegisterModelFactory(Priority, ModelFactory{})
}

type ModelFactory struct{}

func (ModelFactory) Name() string {
	return Name
}

func (ModelFactory) NewModel(_ context.Context, sampleRate audio.SampleRate) (vad.Model, error) {
	m, err := New(sampleRate)
	if err != nil {
		return nil, err
	}
	return m, nil
}

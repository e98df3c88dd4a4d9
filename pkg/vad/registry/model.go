package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad"
)

const (
	ModelNameAuto = "auto"
)

var (
	lastSuccessfulModelFactory       ModelFactory
	lastSuccessfulModelFactoryLocker sync.Mutex
)

func getLastSuccessfulModelFactory() ModelFactory {
	lastSuccessfulModelFactoryLocker.Lock()
	defer lastSuccessfulModelFactoryLocker.Unlock()
	return lastSuccessfulModelFactory
}

// NewModel initializes the model of the given name, or the first model
// which could be initialized if the name is ModelNameAuto (or empty).
func NewModel(
	ctx context.Context,
	name string,
	sampleRate audio.SampleRate,
) (vad.Model, error) {
	if name == "" || name == ModelNameAuto {
		return NewModelAuto(ctx, sampleRate)
	}

	factory, ok := ModelFactoryByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown model %q, available models: %v", name, ModelNames())
	}
	model, err := factory.NewModel(ctx, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize model %q: %w", name, err)
	}
	return model, nil
}

func NewModelAuto(
	ctx context.Context,
	sampleRate audio.SampleRate,
) (vad.Model, error) {
	factory := getLastSuccessfulModelFactory()
	if factory != nil {
		model, err := factory.NewModel(ctx, sampleRate)
		if err == nil {
			return model, nil
		}
	}

	var mErr *multierror.Error
	for _, factory := range ModelFactories() {
		model, err := factory.NewModel(ctx, sampleRate)
		logger.Debugf(ctx, "initializing model %q result is %v", factory.Name(), err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize model %q: %w", factory.Name(), err))
			continue
		}

		lastSuccessfulModelFactoryLocker.Lock()
		defer lastSuccessfulModelFactoryLocker.Unlock()
		lastSuccessfulModelFactory = factory
		return model, nil
	}

	if mErr == nil {
		return nil, fmt.Errorf("no models are registered")
	}
	return nil, fmt.Errorf("was unable to initialize any model: %w", mErr)
}

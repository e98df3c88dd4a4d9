// Package registry keeps the list of the available speech probability
// models and selects one of them at construction time.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xaionaro-go/vad/pkg/audio"
	"github.com/xaionaro-go/vad/pkg/vad"
)

type ModelFactory interface {
	Name() string
	NewModel(ctx context.Context, sampleRate audio.SampleRate) (vad.Model, error)
}

type modelFactoryWithPriority struct {
	Priority int
	ModelFactory
}

var (
	modelFactoryRegistryLocker sync.Mutex
	modelFactoryRegistry       = map[string]modelFactoryWithPriority{}
)

// RegisterModelFactory adds a model factory; the factories with
// higher priority are tried first by NewModelAuto.
func RegisterModelFactory(
	priority int,
	factory ModelFactory,
) {
	modelFactoryRegistryLocker.Lock()
	defer modelFactoryRegistryLocker.Unlock()

	name := factory.Name()
	if name == "" || name == ModelNameAuto {
		panic(fmt.Errorf("invalid model name %q of %T", name, factory))
	}
	if _, ok := modelFactoryRegistry[name]; ok {
		panic(fmt.Errorf("there is already registered a factory of model %q", name))
	}
	modelFactoryRegistry[name] = modelFactoryWithPriority{
		Priority:     priority,
		ModelFactory: factory,
	}
}

// ModelFactories returns the registered factories sorted by priority
// (highest first, ties are broken by name).
func ModelFactories() []ModelFactory {
	modelFactoryRegistryLocker.Lock()
	var factoriesWithPriorities []modelFactoryWithPriority
	for _, factory := range modelFactoryRegistry {
		factoriesWithPriorities = append(factoriesWithPriorities, factory)
	}
	modelFactoryRegistryLocker.Unlock()

	sort.Slice(factoriesWithPriorities, func(i, j int) bool {
		a, b := factoriesWithPriorities[i], factoriesWithPriorities[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Name() < b.Name()
	})

	var factories []ModelFactory
	for _, factory := range factoriesWithPriorities {
		factories = append(factories, factory.ModelFactory)
	}
	return factories
}

func ModelFactoryByName(name string) (ModelFactory, bool) {
	modelFactoryRegistryLocker.Lock()
	defer modelFactoryRegistryLocker.Unlock()
	factory, ok := modelFactoryRegistry[name]
	if !ok {
		return nil, false
	}
	return factory.ModelFactory, true
}

func ModelNames() []string {
	var names []string
	for _, factory := range ModelFactories() {
		names = append(names, factory.Name())
	}
	return names
}

package game

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"pdcoea/internal/coea"
)

var (
	ErrGameExists   = errors.New("game already registered")
	ErrGameNotFound = errors.New("game not found")
)

// Factory builds a fresh game value for one run.
type Factory func() coea.Game

var registry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: map[string]Factory{
		DiagonalName: func() coea.Game { return Diagonal{} },
	},
}

func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("game name is required")
	}
	if factory == nil {
		return errors.New("game factory is required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrGameExists, name)
	}
	registry.m[name] = factory
	return nil
}

// FactoryFor resolves name once so callers can build a game per run.
func FactoryFor(name string) (Factory, error) {
	registry.mu.RLock()
	factory, ok := registry.m[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, name)
	}
	return factory, nil
}

func Lookup(name string) (coea.Game, error) {
	factory, err := FactoryFor(name)
	if err != nil {
		return nil, err
	}
	return factory(), nil
}

// Names lists registered games in lexical order.
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

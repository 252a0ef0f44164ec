package providers

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry maps provider names to generators
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator under its Name
func (r *Registry) Register(generator Generator) error {
	if generator == nil {
		return errors.New("generator cannot be nil")
	}

	name := generator.Name()
	if name == "" {
		return errors.New("generator name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[name]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.generators[name] = generator
	return nil
}

// Get retrieves a generator by provider name
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	generator, exists := r.generators[name]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return generator, nil
}

// Names returns all registered provider names sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.generators)
}

// RegisterMocks registers the three built-in mock generators
func (r *Registry) RegisterMocks(opts ...MockOption) error {
	for _, g := range []Generator{
		NewMockSuccess(opts...),
		NewMockFailure(opts...),
		NewMockRateLimit(DefaultMockRateLimitAfter, opts...),
	} {
		if err := r.Register(g); err != nil {
			return err
		}
	}
	return nil
}

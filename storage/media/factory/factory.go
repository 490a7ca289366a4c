package factory

import (
	"fmt"
	"sync"

	"github.com/indieinfra/hydrogen/config"
	"github.com/indieinfra/hydrogen/storage/media"
)

// Factory builds a media record store for the provided store config.
type Factory func(*config.Store) (media.Store, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds or replaces a store factory for the given strategy name.
func Register(strategy string, factory Factory) {
	mu.Lock()
	registry[strategy] = factory
	mu.Unlock()
}

// Get retrieves a factory for the given strategy.
func Get(strategy string) (Factory, bool) {
	mu.RLock()
	f, ok := registry[strategy]
	mu.RUnlock()
	return f, ok
}

// Create builds a media store using the registered factory for the configured strategy.
func Create(cfg *config.Store) (media.Store, error) {
	if f, ok := Get(cfg.Strategy); ok {
		return f(cfg)
	}

	return nil, fmt.Errorf("unknown media store strategy %q", cfg.Strategy)
}

func init() {
	Register("memory", func(cfg *config.Store) (media.Store, error) {
		return media.NewMemoryStore(), nil
	})
	Register("sql", func(cfg *config.Store) (media.Store, error) {
		return media.NewSQLStore(cfg.SQL)
	})
}

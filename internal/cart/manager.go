package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/urbanshoes/storefront/pkg/logger"
	"github.com/urbanshoes/storefront/pkg/metrics"
)

// Manager hands out one hydrated engine per session. Engines are cached so
// repeated requests within a session share the same single-writer state.
type Manager struct {
	store   Store
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewManager builds the engine registry over the given store.
func NewManager(store Store, logg *logger.Logger, m *metrics.StorefrontMetrics) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	return &Manager{
		store:   store,
		logg:    logg,
		metrics: m,
		engines: map[string]*Engine{},
	}, nil
}

// Engine returns the session's cart engine, hydrating it from the store on
// first use.
func (m *Manager) Engine(ctx context.Context, sessionID string) (*Engine, error) {
	m.mu.Lock()
	engine, ok := m.engines[sessionID]
	m.mu.Unlock()
	if ok {
		return engine, nil
	}

	engine, err := NewEngine(sessionID, m.store, m.logg, m.metrics)
	if err != nil {
		return nil, err
	}
	if err := engine.Hydrate(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.engines[sessionID]; ok {
		return existing, nil
	}
	m.engines[sessionID] = engine
	return engine, nil
}

// Evict drops the cached engine for a session, forcing a re-hydrate on next
// use. Called after Clear when the session ends.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	delete(m.engines, sessionID)
	m.mu.Unlock()
}

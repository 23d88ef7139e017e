package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/metrics"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/internal/storage"
)

type registryEntry struct {
	store    *CartStore
	lastUsed time.Time
}

// CartRegistry owns one CartStore per session. Stores are created on first use and hydrated
// from the session's durable store.
type CartRegistry struct {
	mu       sync.Mutex
	provider storage.Provider
	metrics  *metrics.Metrics
	entries  map[uuid.UUID]*registryEntry
	now      func() time.Time
}

func NewCartRegistry(provider storage.Provider, m *metrics.Metrics) *CartRegistry {
	return &CartRegistry{
		provider: provider,
		metrics:  m,
		entries:  map[uuid.UUID]*registryEntry{},
		now:      time.Now,
	}
}

// Get returns the session's store. A missing store is hydrated without holding the registry lock
// so a slow durable store only delays its own session; when two callers race, the first store
// registered wins.
func (r *CartRegistry) Get(c context.Context, sessionID uuid.UUID) *CartStore {
	if store, ok := r.lookup(sessionID); ok {
		return store
	}

	c, span := otel.Tracer.Start(c, "CartRegistry Get")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRegistry Get").
		Str(log.KeySessionID, sessionID.String()).
		Logger()
	logger.Debug().Msg("creating cart store")

	store := NewCartStore(logger.WithContext(c), r.provider.Session(sessionID), r.metrics)

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[sessionID]; ok {
		entry.lastUsed = r.now()
		logger.Debug().Msg("cart store created concurrently, using registered store")
		return entry.store
	}
	r.entries[sessionID] = &registryEntry{store: store, lastUsed: r.now()}
	r.observe()

	logger.Debug().Msg("created cart store")
	return store
}

func (r *CartRegistry) lookup(sessionID uuid.UUID) (*CartStore, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.store, true
}

// Release drops the in-memory store of a session. The durable record is left as is.
func (r *CartRegistry) Release(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
	r.observe()
}

// ClearSession empties the cart of a session so subscribers see it go. It is used on sign out.
func (r *CartRegistry) ClearSession(c context.Context, sessionID uuid.UUID) {
	r.Get(c, sessionID).Clear(c)
}

// Sweep releases stores unused for longer than idle and returns how many were released. Stores
// with live subscribers are kept.
func (r *CartRegistry) Sweep(c context.Context, idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartRegistry Sweep").Logger()

	deadline := r.now().Add(-idle)
	released := 0
	for id, entry := range r.entries {
		if entry.lastUsed.After(deadline) || entry.store.Subscribers() > 0 {
			continue
		}
		delete(r.entries, id)
		released++
	}
	r.observe()

	if released > 0 {
		logger.Debug().Int("released", released).Msg("swept idle cart stores")
	}
	return released
}

// Run sweeps every interval until c is done. A non-positive interval disables sweeping.
func (r *CartRegistry) Run(c context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Done():
			return
		case <-ticker.C:
			r.Sweep(c, idle)
		}
	}
}

func (r *CartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *CartRegistry) observe() {
	if r.metrics != nil {
		r.metrics.ActiveCarts.Set(float64(len(r.entries)))
	}
}

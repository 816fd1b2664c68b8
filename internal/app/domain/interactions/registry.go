package interactions

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/cache"
)

// Registry maps session ids to their Store. A session ends when it has been idle
// for longer than the registry TTL.
type Registry struct {
	sessions  *cache.UnifiedCache[*Store]
	publisher Publisher
	logger    *zap.Logger
}

func NewRegistry(ttl time.Duration, publisher Publisher, logger *zap.Logger) *Registry {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	r := &Registry{publisher: publisher, logger: logger}
	r.sessions = cache.NewUnifiedCache[*Store](ttl, "sessions", logger,
		cache.WithEvictHandler(func(id string, _ *Store) {
			logger.Debug("Session expired", zap.String("session_id", id))
			r.recordSize()
		}),
	)
	return r
}

// Get returns the store for sessionID, creating an anonymous one on first use.
func (r *Registry) Get(sessionID string) *Store {
	store, created := r.sessions.GetOrCreate(sessionID, func() *Store {
		return NewStore(sessionID, WithPublisher(r.publisher), WithLogger(r.logger))
	})
	if created {
		r.logger.Debug("Session started", zap.String("session_id", sessionID))
		r.recordSize()
	}
	return store
}

// End drops a session immediately.
func (r *Registry) End(sessionID string) {
	r.sessions.Delete(sessionID)
	r.recordSize()
}

func (r *Registry) Len() int {
	return r.sessions.Size()
}

func (r *Registry) Close() {
	r.sessions.Close()
}

func (r *Registry) recordSize() {
	metrics.Get().ActiveSessionsGauge.Record(context.Background(), int64(r.sessions.Size()))
}

// internal/app/system/notify/registry.go
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Registry hands out one Collector per user, creating it on first use.
// Collectors are long-lived; the per-user batch state lives inside them.
type Registry struct {
	prefs PreferenceSource
	sched Scheduler
	log   *zap.Logger

	mu         sync.Mutex
	collectors map[string]*Collector
}

// NewRegistry builds a Registry.
func NewRegistry(prefs PreferenceSource, sched Scheduler, logger *zap.Logger) *Registry {
	return &Registry{
		prefs:      prefs,
		sched:      sched,
		log:        logger,
		collectors: make(map[string]*Collector),
	}
}

// For returns the user's collector, creating it if needed.
func (r *Registry) For(userID string) *Collector {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.collectors[userID]
	if !ok {
		c = NewCollector(userID, r.prefs, r.sched, r.log)
		r.collectors[userID] = c
	}
	return c
}

// DrainAll waits for every collector's in-flight deliveries; called at
// shutdown.
func (r *Registry) DrainAll() {
	r.mu.Lock()
	collectors := make([]*Collector, 0, len(r.collectors))
	for _, c := range r.collectors {
		collectors = append(collectors, c)
	}
	r.mu.Unlock()
	for _, c := range collectors {
		c.Drain()
	}
}

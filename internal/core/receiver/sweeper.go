package receiver

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// sweeper evicts entities that have gone silent. It runs on its own fixed
// interval, independent of inbound traffic rate, for as long as the listener
// is running.
type sweeper struct {
	registry   *Registry
	hub        *ObserverHub
	logger     *logrus.Logger
	interval   time.Duration
	staleAfter time.Duration
}

func (s *sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *sweeper) sweep(now time.Time) {
	removed := s.registry.Sweep(now, s.staleAfter)
	for _, entityID := range removed {
		s.logger.WithField("entity_id", entityID).Debug("Removed stale entity")
		metricEntitiesEvicted.Inc()
		s.hub.Publish(Event{Kind: EventEntityRemoved, EntityID: entityID})
	}
	if len(removed) > 0 {
		metricEntitiesTracked.Set(float64(s.registry.Len()))
	}
}

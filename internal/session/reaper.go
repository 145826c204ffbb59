package session

import (
	"context"
	"log/slog"
	"time"
)

const defaultReapInterval = time.Minute

// StartReaper runs a background goroutine that periodically evicts sessions
// completed more than the retention period ago.
func (s *Service) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultReapInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session reaper started", "interval", interval, "retention", s.cfg.Retention)

		for {
			select {
			case <-ticker.C:
				s.reap(s.now())
			case <-ctx.Done():
				slog.Info("Session reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// reap evicts completed sessions whose completion is older than the
// retention period and returns how many were removed.
func (s *Service) reap(now time.Time) int {
	cutoff := now.Add(-s.cfg.Retention)

	s.mu.Lock()
	var expired []string
	for id, o := range s.sessions {
		snap := o.Snapshot()
		if snap.CompletedAt == nil || snap.CompletedAt.After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		expired = append(expired, id)
	}
	callbacks := append([]EvictCallback(nil), s.onEvict...)
	s.mu.Unlock()

	if len(expired) == 0 {
		return 0
	}

	for _, id := range expired {
		for _, fn := range callbacks {
			fn(id)
		}
	}
	s.logger.Info("Session reaper evicted completed sessions", "count", len(expired))
	return len(expired)
}

package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/finsupport/triage-service/internal/service"
	"github.com/finsupport/triage-service/internal/session"
)

// Refresher re-runs the fetch cycle for every live session on a fixed
// interval, so operator views stay current without client polling. Each
// cycle replaces the working set atomically; read ids and selection persist.
type Refresher struct {
	triage   *service.TriageService
	sessions *session.Manager
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher constructs the worker.
func NewRefresher(triage *service.TriageService, sessions *session.Manager, interval time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		triage:   triage,
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, refreshing live sessions each tick.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			live := r.sessions.Live()
			for _, sess := range live {
				r.triage.Refresh(ctx, sess)
			}
			if len(live) > 0 {
				r.logger.Debug("refreshed sessions", zap.Int("count", len(live)))
			}
		}
	}
}

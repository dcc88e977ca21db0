// Package analytics computes the operational dashboard metrics. The upstream
// backend is the authoritative source; when it is unreachable the aggregator
// falls back to the subset derivable from the local ticket snapshot and
// explicitly zeroes everything that needs cross-ticket history, flagging the
// result as degraded so the caller can warn the operator.
package analytics

import (
	"context"

	"go.uber.org/zap"

	"github.com/finsupport/triage-service/internal/domain"
	"github.com/finsupport/triage-service/internal/upstream"
)

// MetricsSource fetches the authoritative metrics object.
type MetricsSource interface {
	DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, upstream.CallResult)
}

// Aggregator prefers the authoritative source and degrades to local
// computation.
type Aggregator struct {
	source MetricsSource
	logger *zap.Logger
}

// NewAggregator constructs an aggregator.
func NewAggregator(source MetricsSource, logger *zap.Logger) *Aggregator {
	return &Aggregator{source: source, logger: logger}
}

// Dashboard returns metrics for the given working set. Any successful
// upstream response is used verbatim, all-zero included, since a quiet
// system legitimately reports zeroes. Only a failed call or a null body
// computes the local fallback. The returned object's Degraded flag tells
// the caller which mode produced it.
func (a *Aggregator) Dashboard(ctx context.Context, tickets []domain.Ticket) domain.DashboardMetrics {
	remote, res := a.source.DashboardMetrics(ctx)
	if res.OK() && remote != nil {
		return *remote
	}
	if !res.OK() {
		a.logger.Warn("dashboard metrics unavailable, using degraded fallback",
			zap.String("outcome", res.Outcome.String()),
			zap.Error(res.Err))
	}
	return Degraded(tickets)
}

// Degraded computes the snapshot-derivable metrics from the local ticket set.
// Metrics that need server-side history are set to their zero values on
// purpose; the Degraded flag distinguishes them from genuinely zero data.
func Degraded(tickets []domain.Ticket) domain.DashboardMetrics {
	m := domain.DashboardMetrics{
		TotalTickets:        len(tickets),
		SLABreachDetail:     []domain.SLABreach{},
		VolumeByHour:        []domain.VolumePoint{},
		TopMerchants:        []domain.MerchantCount{},
		CategoryPerformance: []domain.CategoryPerformance{},
		Degraded:            true,
	}
	for _, t := range tickets {
		amount := domain.ParseAmount(t.Amount)
		if t.IsUnresolved() {
			m.OpenTickets++
			m.TotalDisputedVolume += amount
		} else {
			m.ClosedTickets++
		}
		if t.Category == domain.CategoryFraud {
			m.FraudExposureTotal += amount
			if t.IsUnresolved() {
				m.FraudAlertsOpen++
				m.FraudExposureOpen += amount
			}
		}
	}
	return m
}

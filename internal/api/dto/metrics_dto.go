package dto

import "github.com/finsupport/triage-service/internal/domain"

// MetricsResponse wraps the analytics object with its provenance, so the
// presentation layer can warn the operator when values are degraded.
type MetricsResponse struct {
	Source  string                  `json:"source"`
	Metrics domain.DashboardMetrics `json:"metrics"`
}

// NewMetricsResponse labels the metrics by mode.
func NewMetricsResponse(m domain.DashboardMetrics) MetricsResponse {
	source := "upstream"
	if m.Degraded {
		source = "degraded"
	}
	return MetricsResponse{Source: source, Metrics: m}
}

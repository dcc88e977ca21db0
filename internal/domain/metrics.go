package domain

// VolumePoint is one hour of incoming ticket volume.
type VolumePoint struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// MerchantCount is a merchant/entity mention tally.
type MerchantCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SLABreach describes a single high-priority ticket past its SLA window.
type SLABreach struct {
	TicketID     string  `json:"ticket_id"`
	CustomerName string  `json:"customer_name"`
	Category     string  `json:"category"`
	HoursOpen    float64 `json:"hours_open"`
	Amount       string  `json:"amount"`
}

// CategoryPerformance aggregates resolution stats per category.
type CategoryPerformance struct {
	Category      string  `json:"category"`
	Total         int     `json:"total"`
	Resolved      int     `json:"resolved"`
	AvgResolution float64 `json:"avg_resolution_h"`
}

// DashboardMetrics is the operational analytics object. The upstream backend
// computes the full set; in degraded mode only the snapshot-derivable fields
// are populated and the rest are explicitly zeroed.
type DashboardMetrics struct {
	TotalTickets        int                   `json:"total_tickets"`
	OpenTickets         int                   `json:"open_tickets"`
	ClosedTickets       int                   `json:"closed_tickets"`
	TotalDisputedVolume float64               `json:"total_disputed_volume"`
	SLABreaches         int                   `json:"sla_breaches"`
	SLABreachDetail     []SLABreach           `json:"sla_breach_detail"`
	FraudAlertsOpen     int                   `json:"fraud_alerts_open"`
	FraudExposureTotal  float64               `json:"fraud_exposure_total"`
	FraudExposureOpen   float64               `json:"fraud_exposure_open"`
	AISuccessRate       float64               `json:"ai_success_rate"`
	AIDraftsUsed        int                   `json:"ai_drafts_used"`
	AvgResolutionHours  float64               `json:"avg_resolution_h"`
	VolumeByHour        []VolumePoint         `json:"volume_by_hour"`
	TopMerchants        []MerchantCount       `json:"top_merchants"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`

	// Degraded is true when the upstream metrics source was unavailable and
	// the history-dependent fields above were zeroed rather than computed.
	Degraded bool `json:"-"`
}

package domain

import (
	"strconv"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states as reported by the upstream backend.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityLow    TicketPriority = "Low"
)

// TicketCategory enumerates the finance-ops classification.
type TicketCategory string

const (
	CategoryFraud        TicketCategory = "Fraud"
	CategoryPaymentIssue TicketCategory = "Payment Issue"
	CategoryGeneral      TicketCategory = "General"
)

// Sentiment enumerates the upstream classifier's tone assessment.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
	SentimentUrgent   Sentiment = "Urgent"
)

// TicketRecord is the wire shape delivered by the upstream ticket backend.
type TicketRecord struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	Category      string `json:"category"`
	Sentiment     string `json:"sentiment"`
	CreatedAt     string `json:"created_at"`
	EmailBody     string `json:"email_body"`
	CustomerName  string `json:"customer_name"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Summary       string `json:"summary"`
	Intent        string `json:"intent"`
	DraftResponse string `json:"draft_response"`
	IsRead        bool   `json:"is_read"`
}

// Ticket is the canonical triage entity. Enum fields are always one of the
// declared constants; defaults are applied once in FromRecord, never at call
// sites. Derived display fields are filled in by the normalizer.
type Ticket struct {
	ID            string
	Status        TicketStatus
	Priority      TicketPriority
	Category      TicketCategory
	Sentiment     Sentiment
	CreatedAt     *time.Time
	RawCreatedAt  string
	EmailBody     string
	CustomerName  string
	TransactionID string
	Amount        string
	Summary       string
	Intent        string
	DraftResponse string
	IsRead        bool

	// Derived fields, see internal/normalize.
	Subject     string
	Sender      string
	SenderEmail string
	Preview     string
	CleanBody   string
}

// FromRecord canonicalizes a wire record: unknown enum values collapse to
// their defaults and the timestamp is parsed once.
func FromRecord(rec TicketRecord) Ticket {
	return Ticket{
		ID:            rec.ID,
		Status:        CanonicalStatus(rec.Status),
		Priority:      CanonicalPriority(rec.Priority),
		Category:      CanonicalCategory(rec.Category),
		Sentiment:     CanonicalSentiment(rec.Sentiment),
		CreatedAt:     ParseTimestamp(rec.CreatedAt),
		RawCreatedAt:  rec.CreatedAt,
		EmailBody:     rec.EmailBody,
		CustomerName:  rec.CustomerName,
		TransactionID: rec.TransactionID,
		Amount:        rec.Amount,
		Summary:       rec.Summary,
		Intent:        rec.Intent,
		DraftResponse: rec.DraftResponse,
		IsRead:        rec.IsRead,
	}
}

// CanonicalStatus maps a raw status string to a closed TicketStatus.
func CanonicalStatus(raw string) TicketStatus {
	s := TicketStatus(strings.TrimSpace(raw))
	switch s {
	case TicketStatusNew, TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return s
	default:
		return TicketStatusNew
	}
}

// CanonicalPriority maps a raw priority string to a closed TicketPriority.
// Unknown values rank lowest, so they collapse to Low.
func CanonicalPriority(raw string) TicketPriority {
	p := TicketPriority(strings.TrimSpace(raw))
	switch p {
	case TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return p
	default:
		return TicketPriorityLow
	}
}

// CanonicalCategory maps a raw category string to a closed TicketCategory.
func CanonicalCategory(raw string) TicketCategory {
	c := TicketCategory(strings.TrimSpace(raw))
	switch c {
	case CategoryFraud, CategoryPaymentIssue, CategoryGeneral:
		return c
	default:
		return CategoryGeneral
	}
}

// CanonicalSentiment maps a raw sentiment string to a closed Sentiment.
func CanonicalSentiment(raw string) Sentiment {
	s := Sentiment(strings.TrimSpace(raw))
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentUrgent:
		return s
	default:
		return SentimentNeutral
	}
}

// IsUnresolved reports whether the ticket still needs operator action.
func (t Ticket) IsUnresolved() bool {
	switch t.Status {
	case TicketStatusNew, TicketStatusOpen, TicketStatusInProgress:
		return true
	default:
		return false
	}
}

// IsResolved reports whether the ticket has reached a terminal status.
func (t Ticket) IsResolved() bool {
	return !t.IsUnresolved()
}

// Rank returns the sort rank of the priority: High before Medium before Low.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityHigh:
		return 0
	case TicketPriorityMedium:
		return 1
	default:
		return 2
	}
}

// timestampLayouts covers the upstream's ISO-8601 variants, with and without
// zone offset or fractional seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an upstream timestamp. Zone-less values are taken as
// local time so that date bucketing matches the operator's wall clock.
// Returns nil when the value is empty or unparseable; callers treat nil as
// "sort last, bucket Earlier" rather than an error.
func ParseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &ts
		}
	}
	return nil
}

// ParseAmount converts a currency string such as "$1,234.56" to a float.
// Every character that is not a digit or dot is stripped first; anything that
// still fails to parse is worth 0, never an error.
func ParseAmount(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	val, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return val
}

package dto

import (
	"time"

	"github.com/finsupport/triage-service/internal/domain"
	"github.com/finsupport/triage-service/internal/format"
	"github.com/finsupport/triage-service/internal/service"
)

// TicketSummary is one row of an inbox or queue list.
type TicketSummary struct {
	ID          string                `json:"id"`
	Subject     string                `json:"subject"`
	Sender      string                `json:"sender"`
	SenderEmail string                `json:"sender_email"`
	Preview     string                `json:"preview"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    domain.TicketCategory `json:"category"`
	Sentiment   domain.Sentiment      `json:"sentiment"`
	Amount      string                `json:"amount,omitempty"`
	IsRead      bool                  `json:"is_read"`
	ReceivedAt  string                `json:"received_at"`
}

// TicketDetail is the full detail-pane payload.
type TicketDetail struct {
	TicketSummary
	CleanBody     string `json:"body"`
	Summary       string `json:"summary,omitempty"`
	Intent        string `json:"intent,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	DraftResponse string `json:"draft_response,omitempty"`
	ReceivedFull  string `json:"received_full"`
}

// GroupedList is a date bucket of ticket summaries.
type GroupedList struct {
	Bucket  string          `json:"bucket"`
	Tickets []TicketSummary `json:"tickets"`
}

// InboxResponse is the tabbed inbox view.
type InboxResponse struct {
	Query       string        `json:"query"`
	UnreadCount int           `json:"unread_count"`
	MatchCount  int           `json:"match_count"`
	Unresolved  []GroupedList `json:"unresolved"`
	Fraud       []GroupedList `json:"fraud"`
	Payments    []GroupedList `json:"payments"`
	General     []GroupedList `json:"general"`
	Resolved    []GroupedList `json:"resolved"`
}

// QueueResponse is the priority queue view.
type QueueResponse struct {
	High   []TicketSummary `json:"high"`
	Medium []TicketSummary `json:"medium"`
	Low    []TicketSummary `json:"low"`
}

// CategoryResponse is the by-category view.
type CategoryResponse struct {
	Fraud    []TicketSummary `json:"fraud"`
	Payments []TicketSummary `json:"payments"`
	General  []TicketSummary `json:"general"`
}

// AlertItem is one alert row with its reasons.
type AlertItem struct {
	TicketSummary
	Reasons []string `json:"reasons"`
}

// StatsResponse carries the sidebar counters.
type StatsResponse struct {
	Total    int `json:"total"`
	Unread   int `json:"unread"`
	HighOpen int `json:"high_open"`
	Fraud    int `json:"fraud"`
	Resolved int `json:"resolved"`
}

// ApproveResponse reports an approve action.
type ApproveResponse struct {
	EmailSent bool   `json:"email_sent"`
	Recipient string `json:"recipient,omitempty"`
}

// FetchEmailsRequest triggers upstream ingestion.
type FetchEmailsRequest struct {
	IncludeRead bool `json:"include_read"`
	MaxEmails   int  `json:"max_emails"`
}

// Summary converts a domain ticket for list display, relative to now.
func Summary(t domain.Ticket, now time.Time) TicketSummary {
	return TicketSummary{
		ID:          t.ID,
		Subject:     t.Subject,
		Sender:      t.Sender,
		SenderEmail: t.SenderEmail,
		Preview:     t.Preview,
		Status:      t.Status,
		Priority:    t.Priority,
		Category:    t.Category,
		Sentiment:   t.Sentiment,
		Amount:      t.Amount,
		IsRead:      t.IsRead,
		ReceivedAt:  format.Relative(t.RawCreatedAt, now),
	}
}

// Summaries converts a slice of tickets, preserving order.
func Summaries(tickets []domain.Ticket, now time.Time) []TicketSummary {
	out := make([]TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, Summary(t, now))
	}
	return out
}

// Detail converts a domain ticket for the detail pane.
func Detail(t domain.Ticket, now time.Time) TicketDetail {
	return TicketDetail{
		TicketSummary: Summary(t, now),
		CleanBody:     t.CleanBody,
		Summary:       t.Summary,
		Intent:        t.Intent,
		CustomerName:  t.CustomerName,
		TransactionID: t.TransactionID,
		DraftResponse: t.DraftResponse,
		ReceivedFull:  format.Full(t.RawCreatedAt),
	}
}

// Grouped converts service bucket lists.
func Grouped(groups []service.GroupedList, now time.Time) []GroupedList {
	out := make([]GroupedList, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupedList{Bucket: g.Bucket, Tickets: Summaries(g.Tickets, now)})
	}
	return out
}

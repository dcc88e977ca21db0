package events

import "time"

// EventType identifies triage lifecycle events.
type EventType string

const (
	EventTicketRead     EventType = "ticket.read"
	EventTicketApproved EventType = "ticket.approved"
	EventTicketClosed   EventType = "ticket.closed"
	EventEmailsFetched  EventType = "emails.fetched"
	EventCycleCompleted EventType = "cycle.completed"
)

// Event is a triage action notification.
type Event struct {
	Type       EventType
	SessionID  string
	OperatorID string
	TicketID   string
	OccurredAt time.Time
	Payload    any
}

// TicketApprovedPayload reports the outcome of an approve action.
type TicketApprovedPayload struct {
	EmailSent bool
	Recipient string
}

// EmailsFetchedPayload reports an ingestion run.
type EmailsFetchedPayload struct {
	Fetched           int
	Errors            int
	SkippedDuplicates int
	QuotaError        bool
}

// CycleCompletedPayload reports a refresh cycle over a working set.
type CycleCompletedPayload struct {
	TicketCount int
	Succeeded   bool
}

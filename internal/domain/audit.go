package domain

import "time"

// AuditAction enumerates recorded operator actions.
type AuditAction string

const (
	AuditActionRead        AuditAction = "read"
	AuditActionApprove     AuditAction = "approve"
	AuditActionClose       AuditAction = "close"
	AuditActionFetchEmails AuditAction = "fetch_emails"
)

// AuditEntry is one recorded operator action against a ticket.
type AuditEntry struct {
	ID         string
	SessionID  string
	OperatorID string
	TicketID   string
	Action     AuditAction
	Detail     map[string]any
	CreatedAt  time.Time
}

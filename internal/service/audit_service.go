package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/finsupport/triage-service/internal/domain"
	"github.com/finsupport/triage-service/internal/events"
	"github.com/finsupport/triage-service/internal/repository"
)

// AuditService records operator actions from triage events. When no audit
// repository is configured the events are only logged.
type AuditService struct {
	dispatcher events.Dispatcher
	audits     repository.AuditRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, audits repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		audits:     audits,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the auditable events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketRead, a.handle(domain.AuditActionRead))
	a.dispatcher.Subscribe(events.EventTicketApproved, a.handle(domain.AuditActionApprove))
	a.dispatcher.Subscribe(events.EventTicketClosed, a.handle(domain.AuditActionClose))
	a.dispatcher.Subscribe(events.EventEmailsFetched, a.handle(domain.AuditActionFetchEmails))
}

// ListRecent returns the latest audit rows.
func (a *AuditService) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if a.audits == nil {
		return nil, nil
	}
	return a.audits.ListRecent(ctx, limit)
}

func (a *AuditService) handle(action domain.AuditAction) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		a.logger.Info("triage action",
			zap.String("action", string(action)),
			zap.String("session_id", event.SessionID),
			zap.String("ticket_id", event.TicketID),
		)
		if a.audits == nil {
			return nil
		}
		entry := &domain.AuditEntry{
			SessionID:  event.SessionID,
			OperatorID: operatorUUID(event.OperatorID),
			TicketID:   event.TicketID,
			Action:     action,
			Detail:     detailFor(event),
		}
		if err := a.audits.Create(ctx, entry); err != nil {
			a.logger.Warn("audit write failed", zap.Error(err))
		}
		return nil
	}
}

// operatorUUID drops the dev-fallback operator id, which is not a uuid and
// would be rejected by the operator_id column.
func operatorUUID(id string) string {
	if id == "dev-operator" {
		return ""
	}
	return id
}

func detailFor(event events.Event) map[string]any {
	switch payload := event.Payload.(type) {
	case events.TicketApprovedPayload:
		return map[string]any{
			"email_sent": payload.EmailSent,
			"recipient":  payload.Recipient,
		}
	case events.EmailsFetchedPayload:
		return map[string]any{
			"fetched":            payload.Fetched,
			"errors":             payload.Errors,
			"skipped_duplicates": payload.SkippedDuplicates,
			"quota_error":        payload.QuotaError,
		}
	default:
		return nil
	}
}

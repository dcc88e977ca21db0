package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/finsupport/triage-service/internal/analytics"
	"github.com/finsupport/triage-service/internal/domain"
	"github.com/finsupport/triage-service/internal/events"
	"github.com/finsupport/triage-service/internal/normalize"
	"github.com/finsupport/triage-service/internal/observability"
	"github.com/finsupport/triage-service/internal/search"
	"github.com/finsupport/triage-service/internal/session"
	"github.com/finsupport/triage-service/internal/triage"
	"github.com/finsupport/triage-service/internal/upstream"
	apperrors "github.com/finsupport/triage-service/pkg/util/errorutil"
)

// TicketBackend is the subset of the upstream client the triage engine uses.
type TicketBackend interface {
	ListTickets(ctx context.Context, status string) ([]domain.TicketRecord, upstream.CallResult)
	ApproveTicket(ctx context.Context, id string) (*upstream.ApproveResult, upstream.CallResult)
	CloseTicket(ctx context.Context, id string) upstream.CallResult
	MarkRead(ctx context.Context, id string) upstream.CallResult
	FetchEmails(ctx context.Context, includeRead bool, maxEmails int) (*upstream.FetchEmailsResult, upstream.CallResult)
}

// TriageService runs the fetch → filter → search → sort → group cycle and
// the operator actions against a session working set.
type TriageService struct {
	backend    TicketBackend
	sessions   *session.Manager
	aggregator *analytics.Aggregator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TriageDependencies bundles collaborators for the triage service.
type TriageDependencies struct {
	Backend    TicketBackend
	Sessions   *session.Manager
	Aggregator *analytics.Aggregator
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	return &TriageService{
		backend:    deps.Backend,
		sessions:   deps.Sessions,
		aggregator: deps.Aggregator,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Refresh replaces the session's working set with a fresh fetch. A failed
// fetch resolves to an empty working set; read ids and selection persist
// regardless. Never returns an error: transport failures are advisory.
func (s *TriageService) Refresh(ctx context.Context, sess *session.Session) {
	records, res := s.backend.ListTickets(ctx, "")
	if !res.OK() {
		s.metrics.RecordUpstreamFailure("list_tickets", res.Outcome.String())
		sess.SetWorkingSet(nil)
		s.publish(ctx, events.Event{
			Type:      events.EventCycleCompleted,
			SessionID: sess.ID,
			Payload:   events.CycleCompletedPayload{Succeeded: false},
		})
		return
	}

	tickets := make([]domain.Ticket, 0, len(records))
	for _, rec := range records {
		t := domain.FromRecord(rec)
		normalize.Apply(&t)
		tickets = append(tickets, t)
	}
	sess.SetWorkingSet(tickets)

	if err := s.sessions.SeedReadState(ctx, sess, tickets); err != nil {
		s.logger.Warn("seeding read state failed", zap.Error(err))
	}
	s.metrics.RecordRefreshCycle()
	s.publish(ctx, events.Event{
		Type:      events.EventCycleCompleted,
		SessionID: sess.ID,
		Payload:   events.CycleCompletedPayload{TicketCount: len(tickets), Succeeded: true},
	})
}

// applyReadState folds the session's local read set into ticket copies so a
// ticket read once is never presented unread again.
func (s *TriageService) applyReadState(ctx context.Context, sess *session.Session, tickets []domain.Ticket) []domain.Ticket {
	readIDs := s.sessions.ReadIDs(ctx, sess)
	out := make([]domain.Ticket, len(tickets))
	for i, t := range tickets {
		if _, ok := readIDs[t.ID]; ok {
			t.IsRead = true
		}
		out[i] = t
	}
	return out
}

// GroupedList is one date bucket of a view.
type GroupedList struct {
	Bucket  string
	Tickets []domain.Ticket
}

// InboxView is the searchable inbox split into tabs.
type InboxView struct {
	Query       string
	UnreadCount int
	MatchCount  int
	Unresolved  []GroupedList
	Fraud       []GroupedList
	Payments    []GroupedList
	General     []GroupedList
	Resolved    []GroupedList
}

// Inbox builds the inbox view for a session: status/priority filters, then
// search, then sort, then date grouping per tab.
func (s *TriageService) Inbox(ctx context.Context, sess *session.Session, query string) InboxView {
	sess.SetQuery(query)
	tickets := s.applyReadState(ctx, sess, sess.Filtered())
	matched := search.Filter(tickets, query)

	var unresolved, resolved []domain.Ticket
	for _, t := range matched {
		if t.IsUnresolved() {
			unresolved = append(unresolved, t)
		} else {
			resolved = append(resolved, t)
		}
	}

	unread := 0
	for _, t := range unresolved {
		if !t.IsRead {
			unread++
		}
	}

	byCategory := func(cat domain.TicketCategory) []domain.Ticket {
		var out []domain.Ticket
		for _, t := range unresolved {
			if t.Category == cat {
				out = append(out, t)
			}
		}
		return out
	}

	return InboxView{
		Query:       query,
		UnreadCount: unread,
		MatchCount:  len(matched),
		Unresolved:  s.grouped(unresolved),
		Fraud:       s.grouped(byCategory(domain.CategoryFraud)),
		Payments:    s.grouped(byCategory(domain.CategoryPaymentIssue)),
		General:     s.grouped(byCategory(domain.CategoryGeneral)),
		Resolved:    s.grouped(resolved),
	}
}

func (s *TriageService) grouped(tickets []domain.Ticket) []GroupedList {
	groups := triage.Group(triage.Sort(tickets), s.now())
	out := make([]GroupedList, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupedList{Bucket: string(g.Bucket), Tickets: g.Tickets})
	}
	return out
}

// QueueView partitions the filtered working set by priority.
type QueueView struct {
	High   []domain.Ticket
	Medium []domain.Ticket
	Low    []domain.Ticket
}

// Queue builds the priority queue view.
func (s *TriageService) Queue(ctx context.Context, sess *session.Session) QueueView {
	var view QueueView
	for _, t := range triage.Sort(s.applyReadState(ctx, sess, sess.Filtered())) {
		switch t.Priority {
		case domain.TicketPriorityHigh:
			view.High = append(view.High, t)
		case domain.TicketPriorityMedium:
			view.Medium = append(view.Medium, t)
		default:
			view.Low = append(view.Low, t)
		}
	}
	return view
}

// CategoryView partitions the filtered working set by category.
type CategoryView struct {
	Fraud    []domain.Ticket
	Payments []domain.Ticket
	General  []domain.Ticket
}

// ByCategory builds the category view.
func (s *TriageService) ByCategory(ctx context.Context, sess *session.Session) CategoryView {
	var view CategoryView
	for _, t := range triage.Sort(s.applyReadState(ctx, sess, sess.Filtered())) {
		switch t.Category {
		case domain.CategoryFraud:
			view.Fraud = append(view.Fraud, t)
		case domain.CategoryPaymentIssue:
			view.Payments = append(view.Payments, t)
		default:
			view.General = append(view.General, t)
		}
	}
	return view
}

// Alert is a ticket needing immediate attention, with the reasons why.
type Alert struct {
	Ticket  domain.Ticket
	Reasons []string
}

// Alerts returns tickets that are fraud, high priority, or carry urgent or
// negative sentiment. Each ticket appears once even when several reasons
// apply.
func (s *TriageService) Alerts(ctx context.Context, sess *session.Session) []Alert {
	var alerts []Alert
	seen := make(map[string]struct{})
	for _, t := range triage.Sort(s.applyReadState(ctx, sess, sess.Filtered())) {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		var reasons []string
		if t.Category == domain.CategoryFraud {
			reasons = append(reasons, "Fraud")
		}
		if t.Priority == domain.TicketPriorityHigh {
			reasons = append(reasons, "High Priority")
		}
		if t.Sentiment == domain.SentimentUrgent || t.Sentiment == domain.SentimentNegative {
			reasons = append(reasons, string(t.Sentiment))
		}
		if len(reasons) == 0 {
			continue
		}
		seen[t.ID] = struct{}{}
		alerts = append(alerts, Alert{Ticket: t, Reasons: reasons})
	}
	return alerts
}

// QuickStats are the sidebar counters.
type QuickStats struct {
	Total    int
	Unread   int
	HighOpen int
	Fraud    int
	Resolved int
}

// Stats computes the sidebar counters over the full working set.
func (s *TriageService) Stats(ctx context.Context, sess *session.Session) QuickStats {
	var stats QuickStats
	for _, t := range s.applyReadState(ctx, sess, sess.Tickets()) {
		stats.Total++
		if t.IsUnresolved() && !t.IsRead {
			stats.Unread++
		}
		if t.IsUnresolved() && t.Priority == domain.TicketPriorityHigh {
			stats.HighOpen++
		}
		if t.Category == domain.CategoryFraud {
			stats.Fraud++
		}
		if t.IsResolved() {
			stats.Resolved++
		}
	}
	return stats
}

// Select records the selection and marks the ticket read exactly once per
// selection change. The upstream notification is best effort: its failure
// neither reverts the local read state nor surfaces to the operator.
func (s *TriageService) Select(ctx context.Context, sess *session.Session, ticketID string) (domain.Ticket, error) {
	ticket, found := sess.Find(ticketID)
	if !found {
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}

	changed := sess.Select(ticketID)
	alreadyRead := s.sessions.IsRead(ctx, sess, ticket)
	if changed && !alreadyRead {
		if err := s.sessions.MarkRead(ctx, sess, ticketID); err != nil {
			s.logger.Warn("recording read state failed", zap.Error(err))
		}
		if res := s.backend.MarkRead(ctx, ticketID); !res.OK() {
			s.metrics.RecordUpstreamFailure("mark_read", res.Outcome.String())
		}
		s.publish(ctx, events.Event{
			Type:       events.EventTicketRead,
			SessionID:  sess.ID,
			OperatorID: sess.OperatorID,
			TicketID:   ticketID,
		})
	}

	ticket.IsRead = true
	return ticket, nil
}

// ClearSelection drops the session's selection.
func (s *TriageService) ClearSelection(sess *session.Session) {
	sess.ClearSelection()
}

// Approve asks the backend to send the draft reply and resolve the ticket.
// Approval has no safe default, so a failed call surfaces as an error.
func (s *TriageService) Approve(ctx context.Context, sess *session.Session, ticketID string) (*upstream.ApproveResult, error) {
	result, res := s.backend.ApproveTicket(ctx, ticketID)
	if !res.OK() {
		s.metrics.RecordUpstreamFailure("approve", res.Outcome.String())
		return nil, apperrors.NewUpstreamUnavailable("approve", res.Err)
	}
	sess.ClearSelection()
	s.publish(ctx, events.Event{
		Type:       events.EventTicketApproved,
		SessionID:  sess.ID,
		OperatorID: sess.OperatorID,
		TicketID:   ticketID,
		Payload: events.TicketApprovedPayload{
			EmailSent: result.EmailSent,
			Recipient: result.Recipient,
		},
	})
	return result, nil
}

// Close closes a ticket without replying.
func (s *TriageService) Close(ctx context.Context, sess *session.Session, ticketID string) error {
	res := s.backend.CloseTicket(ctx, ticketID)
	if !res.OK() {
		s.metrics.RecordUpstreamFailure("close", res.Outcome.String())
		return apperrors.NewUpstreamUnavailable("close", res.Err)
	}
	sess.ClearSelection()
	s.publish(ctx, events.Event{
		Type:       events.EventTicketClosed,
		SessionID:  sess.ID,
		OperatorID: sess.OperatorID,
		TicketID:   ticketID,
	})
	return nil
}

// FetchEmails triggers the upstream ingestion pipeline and refreshes the
// working set when new tickets arrived.
func (s *TriageService) FetchEmails(ctx context.Context, sess *session.Session, includeRead bool, maxEmails int) (*upstream.FetchEmailsResult, error) {
	result, res := s.backend.FetchEmails(ctx, includeRead, maxEmails)
	if !res.OK() {
		s.metrics.RecordUpstreamFailure("fetch_emails", res.Outcome.String())
		return nil, apperrors.NewUpstreamUnavailable("fetch_emails", res.Err)
	}
	s.publish(ctx, events.Event{
		Type:       events.EventEmailsFetched,
		SessionID:  sess.ID,
		OperatorID: sess.OperatorID,
		Payload: events.EmailsFetchedPayload{
			Fetched:           result.Fetched,
			Errors:            result.Errors,
			SkippedDuplicates: result.SkippedDuplicates,
			QuotaError:        result.QuotaError,
		},
	})
	if result.Fetched > 0 {
		s.Refresh(ctx, sess)
	}
	return result, nil
}

// Dashboard returns the analytics metrics for the session's working set,
// counting degraded responses.
func (s *TriageService) Dashboard(ctx context.Context, sess *session.Session) domain.DashboardMetrics {
	metrics := s.aggregator.Dashboard(ctx, sess.Tickets())
	if metrics.Degraded {
		s.metrics.RecordDegradedMetrics()
	}
	return metrics
}

func (s *TriageService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.OccurredAt = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}

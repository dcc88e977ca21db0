package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finsupport/triage-service/internal/analytics"
	"github.com/finsupport/triage-service/internal/domain"
	"github.com/finsupport/triage-service/internal/events"
	"github.com/finsupport/triage-service/internal/observability"
	"github.com/finsupport/triage-service/internal/session"
	"github.com/finsupport/triage-service/internal/upstream"
	apperrors "github.com/finsupport/triage-service/pkg/util/errorutil"
)

var okResult = upstream.CallResult{Outcome: upstream.OutcomeOK, StatusCode: 200}

func failResult(outcome upstream.Outcome) upstream.CallResult {
	return upstream.CallResult{Outcome: outcome, Err: errors.New("backend unavailable")}
}

// fakeBackend scripts the upstream responses and records the calls made.
type fakeBackend struct {
	records     []domain.TicketRecord
	listResult  upstream.CallResult
	approve     *upstream.ApproveResult
	callResult  upstream.CallResult
	fetchResult *upstream.FetchEmailsResult

	listCalls     int
	markReadCalls []string
}

func (f *fakeBackend) ListTickets(ctx context.Context, status string) ([]domain.TicketRecord, upstream.CallResult) {
	f.listCalls++
	if !f.listResult.OK() {
		return nil, f.listResult
	}
	return f.records, f.listResult
}

func (f *fakeBackend) ApproveTicket(ctx context.Context, id string) (*upstream.ApproveResult, upstream.CallResult) {
	if !f.callResult.OK() {
		return nil, f.callResult
	}
	return f.approve, f.callResult
}

func (f *fakeBackend) CloseTicket(ctx context.Context, id string) upstream.CallResult {
	return f.callResult
}

func (f *fakeBackend) MarkRead(ctx context.Context, id string) upstream.CallResult {
	f.markReadCalls = append(f.markReadCalls, id)
	return f.callResult
}

func (f *fakeBackend) FetchEmails(ctx context.Context, includeRead bool, maxEmails int) (*upstream.FetchEmailsResult, upstream.CallResult) {
	if !f.callResult.OK() {
		return nil, f.callResult
	}
	return f.fetchResult, f.callResult
}

type stubMetricsSource struct {
	metrics *domain.DashboardMetrics
	result  upstream.CallResult
}

func (s *stubMetricsSource) DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, upstream.CallResult) {
	return s.metrics, s.result
}

func testRecords(now time.Time) []domain.TicketRecord {
	stamp := func(offset time.Duration) string {
		return now.Add(offset).Format(time.RFC3339)
	}
	return []domain.TicketRecord{
		{
			ID:        "fraud-high",
			Status:    "Open",
			Priority:  "High",
			Category:  "Fraud",
			Sentiment: "Urgent",
			CreatedAt: stamp(-time.Hour),
			EmailBody: "From: Alice <alice@example.com>\nSubject: Unauthorized charge\nSomeone used my card.",
			Amount:    "$450.00",
		},
		{
			ID:        "payment-medium",
			Status:    "New",
			Priority:  "Medium",
			Category:  "Payment Issue",
			Sentiment: "Negative",
			CreatedAt: stamp(-2 * time.Hour),
			EmailBody: "Subject: Refund missing\nStill waiting for my refund.",
		},
		{
			ID:        "general-low",
			Status:    "Open",
			Priority:  "Low",
			Category:  "General",
			Sentiment: "Neutral",
			CreatedAt: stamp(-26 * time.Hour),
			EmailBody: "Subject: Statement question\nHow do I download statements?",
			IsRead:    true,
		},
		{
			ID:        "resolved",
			Status:    "Resolved",
			Priority:  "Low",
			Category:  "General",
			CreatedAt: stamp(-3 * time.Hour),
			EmailBody: "Subject: Thanks\nAll sorted now.",
		},
	}
}

func newTestService(t *testing.T, backend *fakeBackend) (*TriageService, *session.Session) {
	t.Helper()
	sessions := session.NewManager(session.NewMemoryReadStateStore(), time.Hour)
	svc := NewTriageService(TriageDependencies{
		Backend:  backend,
		Sessions: sessions,
		Aggregator: analytics.NewAggregator(&stubMetricsSource{
			result: failResult(upstream.OutcomeTransportError),
		}, zap.NewNop()),
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	})
	return svc, sessions.Create("op-1")
}

func TestRefreshNormalizesWorkingSet(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)

	svc.Refresh(context.Background(), sess)

	tickets := sess.Tickets()
	require.Len(t, tickets, 4)

	first, found := sess.Find("fraud-high")
	require.True(t, found)
	assert.Equal(t, "Unauthorized charge", first.Subject)
	assert.Equal(t, "alice@example.com", first.SenderEmail)
	assert.Equal(t, domain.CategoryFraud, first.Category)
	require.NotNil(t, first.CreatedAt)
}

func TestRefreshFailureClearsWorkingSet(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)
	require.Len(t, sess.Tickets(), 4)

	backend.listResult = failResult(upstream.OutcomeTimeout)
	svc.Refresh(context.Background(), sess)

	assert.Empty(t, sess.Tickets())
}

func TestInboxSplitsAndCounts(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	view := svc.Inbox(context.Background(), sess, "")

	assert.Equal(t, 4, view.MatchCount)
	// general-low arrived read, the other two unresolved tickets did not.
	assert.Equal(t, 2, view.UnreadCount)

	countTickets := func(groups []GroupedList) int {
		n := 0
		for _, g := range groups {
			n += len(g.Tickets)
		}
		return n
	}
	assert.Equal(t, 3, countTickets(view.Unresolved))
	assert.Equal(t, 1, countTickets(view.Fraud))
	assert.Equal(t, 1, countTickets(view.Payments))
	assert.Equal(t, 1, countTickets(view.General))
	assert.Equal(t, 1, countTickets(view.Resolved))
}

func TestInboxSearchNarrows(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	view := svc.Inbox(context.Background(), sess, "refund")

	assert.Equal(t, 1, view.MatchCount)
	assert.Equal(t, "refund", sess.Query())
	require.Len(t, view.Payments, 1)
	assert.Equal(t, "payment-medium", view.Payments[0].Tickets[0].ID)
}

func TestQueueOrdersByPriority(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	view := svc.Queue(context.Background(), sess)

	require.Len(t, view.High, 1)
	require.Len(t, view.Medium, 1)
	require.Len(t, view.Low, 2)
	assert.Equal(t, "fraud-high", view.High[0].ID)
}

func TestAlertsReasons(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	alerts := svc.Alerts(context.Background(), sess)

	require.Len(t, alerts, 2)
	assert.Equal(t, "fraud-high", alerts[0].Ticket.ID)
	assert.Equal(t, []string{"Fraud", "High Priority", "Urgent"}, alerts[0].Reasons)
	assert.Equal(t, "payment-medium", alerts[1].Ticket.ID)
	assert.Equal(t, []string{"Negative"}, alerts[1].Reasons)
}

func TestStats(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	stats := svc.Stats(context.Background(), sess)

	assert.Equal(t, QuickStats{Total: 4, Unread: 2, HighOpen: 1, Fraud: 1, Resolved: 1}, stats)
}

func TestSelectMarksReadOnce(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	ticket, err := svc.Select(context.Background(), sess, "fraud-high")
	require.NoError(t, err)
	assert.True(t, ticket.IsRead)
	assert.Equal(t, []string{"fraud-high"}, backend.markReadCalls)

	// Selecting another ticket and coming back does not re-notify.
	_, err = svc.Select(context.Background(), sess, "payment-medium")
	require.NoError(t, err)
	_, err = svc.Select(context.Background(), sess, "fraud-high")
	require.NoError(t, err)
	assert.Equal(t, []string{"fraud-high", "payment-medium"}, backend.markReadCalls)

	stats := svc.Stats(context.Background(), sess)
	assert.Equal(t, 0, stats.Unread)
}

func TestSelectUnknownTicket(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	_, err := svc.Select(context.Background(), sess, "missing")

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 404, domainErr.HTTPStatus)
}

func TestSelectBackendFailureStaysRead(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	backend.callResult = failResult(upstream.OutcomeTimeout)
	ticket, err := svc.Select(context.Background(), sess, "fraud-high")

	require.NoError(t, err, "upstream read notification is best effort")
	assert.True(t, ticket.IsRead)
	stats := svc.Stats(context.Background(), sess)
	assert.Equal(t, 1, stats.Unread)
}

func TestReadStateSurvivesRefresh(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	_, err := svc.Select(context.Background(), sess, "fraud-high")
	require.NoError(t, err)

	// Backend still reports the ticket unread on the next fetch.
	svc.Refresh(context.Background(), sess)

	view := svc.Inbox(context.Background(), sess, "")
	assert.Equal(t, 1, view.UnreadCount)
}

func TestApprove(t *testing.T) {
	backend := &fakeBackend{
		records:    testRecords(time.Now()),
		listResult: okResult,
		callResult: okResult,
		approve:    &upstream.ApproveResult{EmailSent: true, Recipient: "alice@example.com"},
	}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)
	_, err := svc.Select(context.Background(), sess, "fraud-high")
	require.NoError(t, err)

	result, err := svc.Approve(context.Background(), sess, "fraud-high")

	require.NoError(t, err)
	assert.True(t, result.EmailSent)
	assert.Empty(t, sess.Selection(), "approval clears the selection")
}

func TestApproveFailureSurfaces(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)
	_, err := svc.Select(context.Background(), sess, "fraud-high")
	require.NoError(t, err)

	backend.callResult = failResult(upstream.OutcomeBadStatus)
	_, err = svc.Approve(context.Background(), sess, "fraud-high")

	require.Error(t, err)
	assert.Equal(t, "fraud-high", sess.Selection(), "failed approval keeps the selection")
}

func TestCloseClearsSelection(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)
	_, err := svc.Select(context.Background(), sess, "general-low")
	require.NoError(t, err)

	require.NoError(t, svc.Close(context.Background(), sess, "general-low"))
	assert.Empty(t, sess.Selection())
}

func TestFetchEmailsRefreshesWhenNewArrive(t *testing.T) {
	backend := &fakeBackend{
		records:     testRecords(time.Now()),
		listResult:  okResult,
		callResult:  okResult,
		fetchResult: &upstream.FetchEmailsResult{Fetched: 2},
	}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)
	require.Equal(t, 1, backend.listCalls)

	result, err := svc.FetchEmails(context.Background(), sess, false, 5)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, backend.listCalls, "new tickets trigger a refresh")
}

func TestFetchEmailsSkipsRefreshWhenNothingNew(t *testing.T) {
	backend := &fakeBackend{
		records:     testRecords(time.Now()),
		listResult:  okResult,
		callResult:  okResult,
		fetchResult: &upstream.FetchEmailsResult{Fetched: 0, SkippedDuplicates: 3},
	}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	_, err := svc.FetchEmails(context.Background(), sess, false, 5)

	require.NoError(t, err)
	assert.Equal(t, 1, backend.listCalls)
}

func TestDashboardDegraded(t *testing.T) {
	backend := &fakeBackend{records: testRecords(time.Now()), listResult: okResult, callResult: okResult}
	svc, sess := newTestService(t, backend)
	svc.Refresh(context.Background(), sess)

	metrics := svc.Dashboard(context.Background(), sess)

	assert.True(t, metrics.Degraded)
	assert.Equal(t, 4, metrics.TotalTickets)
}

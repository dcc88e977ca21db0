package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsupport/triage-service/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(NewMemoryReadStateStore(), time.Hour)
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t)
	s := m.Create("op-1")

	require.NotEmpty(t, s.ID)
	assert.Equal(t, "op-1", s.OperatorID)
	assert.Same(t, s, m.Get(s.ID, "op-1"))
}

func TestGetRecreatesAfterRestart(t *testing.T) {
	m := newTestManager(t)

	// Session id from a still-valid token, unknown to this process.
	s := m.Get("token-session-id", "op-1")
	require.NotNil(t, s)
	assert.Equal(t, "token-session-id", s.ID)
	assert.Same(t, s, m.Get("token-session-id", "op-1"))
}

func TestLiveDropsExpiredSessions(t *testing.T) {
	m := NewManager(NewMemoryReadStateStore(), -time.Minute)
	expired := m.Create("op-1")

	live := m.Live()

	assert.Empty(t, live)
	assert.NotSame(t, expired, m.Get(expired.ID, "op-1"))
}

func TestWorkingSetReplacedWholesale(t *testing.T) {
	m := newTestManager(t)
	s := m.Create("op-1")

	s.SetWorkingSet([]domain.Ticket{{ID: "a"}, {ID: "b"}})
	require.Len(t, s.Tickets(), 2)

	s.SetWorkingSet([]domain.Ticket{{ID: "c"}})
	got := s.Tickets()
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
	assert.False(t, s.LastRefresh().IsZero())
}

func TestFiltered(t *testing.T) {
	s := &Session{}
	s.SetWorkingSet([]domain.Ticket{
		{ID: "a", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh},
		{ID: "b", Status: domain.TicketStatusClosed, Priority: domain.TicketPriorityHigh},
		{ID: "c", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow},
	})

	s.SetFilters(FilterAll, FilterAll)
	assert.Len(t, s.Filtered(), 3)

	s.SetFilters("Open", FilterAll)
	assert.Len(t, s.Filtered(), 2)

	s.SetFilters("Open", "High")
	got := s.Filtered()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestSelectReportsChange(t *testing.T) {
	s := &Session{}

	assert.True(t, s.Select("t1"))
	assert.False(t, s.Select("t1"), "re-selecting is a no-op")
	assert.True(t, s.Select("t2"))
	assert.Equal(t, "t2", s.Selection())

	s.ClearSelection()
	assert.Empty(t, s.Selection())
}

func TestSelectionSurvivesRefresh(t *testing.T) {
	s := &Session{}
	s.SetWorkingSet([]domain.Ticket{{ID: "t1"}})
	s.Select("t1")

	s.SetWorkingSet([]domain.Ticket{{ID: "t2"}})

	assert.Equal(t, "t1", s.Selection())
}

func TestReadStateIsMonotonic(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	s := m.Create("op-1")

	// First fetch reports t1 read.
	require.NoError(t, m.SeedReadState(ctx, s, []domain.Ticket{
		{ID: "t1", IsRead: true},
		{ID: "t2"},
	}))
	assert.True(t, m.IsRead(ctx, s, domain.Ticket{ID: "t1"}))
	assert.False(t, m.IsRead(ctx, s, domain.Ticket{ID: "t2"}))

	// A later fetch reporting t1 unread does not unmark it.
	require.NoError(t, m.SeedReadState(ctx, s, []domain.Ticket{
		{ID: "t1"},
		{ID: "t2"},
	}))
	assert.True(t, m.IsRead(ctx, s, domain.Ticket{ID: "t1"}))

	require.NoError(t, m.MarkRead(ctx, s, "t2"))
	assert.True(t, m.IsRead(ctx, s, domain.Ticket{ID: "t2"}))

	ids := m.ReadIDs(ctx, s)
	assert.Contains(t, ids, "t1")
	assert.Contains(t, ids, "t2")
}

func TestIsReadHonorsServerFlag(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	s := m.Create("op-1")

	assert.True(t, m.IsRead(ctx, s, domain.Ticket{ID: "t9", IsRead: true}))
}

func TestReadStateIsPerSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	a := m.Create("op-1")
	b := m.Create("op-2")

	require.NoError(t, m.MarkRead(ctx, a, "t1"))

	assert.True(t, m.IsRead(ctx, a, domain.Ticket{ID: "t1"}))
	assert.False(t, m.IsRead(ctx, b, domain.Ticket{ID: "t1"}))
}

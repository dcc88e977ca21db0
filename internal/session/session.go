// Package session owns the per-operator working set: the tickets last
// fetched, the active filters and search query, the current selection and
// the read-id set. The working set is replaced wholesale on each refresh
// cycle; read ids and selection survive refreshes and only the session's
// expiry discards them.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finsupport/triage-service/internal/domain"
)

// FilterAll is the neutral value for status and priority filters.
const FilterAll = "All"

// Session is one operator's triage context.
type Session struct {
	ID         string
	OperatorID string

	mu             sync.RWMutex
	tickets        []domain.Ticket
	statusFilter   string
	priorityFilter string
	searchQuery    string
	selection      string
	lastRefresh    time.Time
	expiresAt      time.Time
}

// SetWorkingSet atomically replaces the ticket collection. Selection, filters
// and query are untouched.
func (s *Session) SetWorkingSet(tickets []domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = tickets
	s.lastRefresh = time.Now()
}

// Tickets returns a copy of the full working set.
func (s *Session) Tickets() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

// Filtered returns the working set narrowed by the status/priority filters.
func (s *Session) Filtered() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if s.statusFilter != "" && s.statusFilter != FilterAll && string(t.Status) != s.statusFilter {
			continue
		}
		if s.priorityFilter != "" && s.priorityFilter != FilterAll && string(t.Priority) != s.priorityFilter {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SetFilters updates the status and priority filters.
func (s *Session) SetFilters(status, priority string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusFilter = status
	s.priorityFilter = priority
}

// SetQuery stores the free-text search query.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
}

// Query returns the current search query.
func (s *Session) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

// Select records the current selection and reports whether it changed.
func (s *Session) Select(ticketID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == ticketID {
		return false
	}
	s.selection = ticketID
	return true
}

// ClearSelection drops the selection, used after approve/close and navigation.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = ""
}

// Selection returns the selected ticket id, empty when none.
func (s *Session) Selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// Find returns the ticket with the given id from the working set.
func (s *Session) Find(ticketID string) (domain.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.ID == ticketID {
			return t, true
		}
	}
	return domain.Ticket{}, false
}

// LastRefresh reports when the working set was last replaced.
func (s *Session) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Expired reports whether the session has outlived its TTL.
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.After(s.expiresAt)
}

// Manager tracks live sessions and their read state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	reads    ReadStateStore
	ttl      time.Duration
}

// NewManager creates a session manager on top of a read-state store.
func NewManager(reads ReadStateStore, ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		reads:    reads,
		ttl:      ttl,
	}
}

// Create starts a session for an operator and returns it.
func (m *Manager) Create(operatorID string) *Session {
	s := &Session{
		ID:             uuid.NewString(),
		OperatorID:     operatorID,
		statusFilter:   FilterAll,
		priorityFilter: FilterAll,
		expiresAt:      time.Now().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given id, creating it when the id comes
// from a still-valid token but the process restarted since login.
func (m *Manager) Get(sessionID, operatorID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return s
	}
	s = &Session{
		ID:             sessionID,
		OperatorID:     operatorID,
		statusFilter:   FilterAll,
		priorityFilter: FilterAll,
		expiresAt:      time.Now().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[sessionID] = s
	m.mu.Unlock()
	return s
}

// Live returns all non-expired sessions; expired ones are dropped.
func (m *Manager) Live() []*Session {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			continue
		}
		out = append(out, s)
	}
	return out
}

// SeedReadState records the server-reported read flags for a fetched working
// set. The union is monotonic: a ticket the backend once reported read stays
// read for the rest of the session even if a later fetch disagrees.
func (m *Manager) SeedReadState(ctx context.Context, s *Session, tickets []domain.Ticket) error {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		if t.IsRead {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return m.reads.MarkRead(ctx, s.ID, ids...)
}

// MarkRead adds a ticket id to the session's read set.
func (m *Manager) MarkRead(ctx context.Context, s *Session, ticketID string) error {
	return m.reads.MarkRead(ctx, s.ID, ticketID)
}

// IsRead reports whether a ticket is read: the server flag or the local set.
func (m *Manager) IsRead(ctx context.Context, s *Session, t domain.Ticket) bool {
	if t.IsRead {
		return true
	}
	read, err := m.reads.IsRead(ctx, s.ID, t.ID)
	if err != nil {
		return false
	}
	return read
}

// ReadIDs returns the session's locally recorded read set.
func (m *Manager) ReadIDs(ctx context.Context, s *Session) map[string]struct{} {
	ids, err := m.reads.ReadIDs(ctx, s.ID)
	if err != nil {
		return map[string]struct{}{}
	}
	return ids
}

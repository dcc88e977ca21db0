package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReadStateStore holds the append-only set of ticket ids an operator session
// has read. Entries are never removed within a session; the whole set expires
// with the session.
type ReadStateStore interface {
	MarkRead(ctx context.Context, sessionID string, ticketIDs ...string) error
	IsRead(ctx context.Context, sessionID, ticketID string) (bool, error)
	ReadIDs(ctx context.Context, sessionID string) (map[string]struct{}, error)
}

// memoryReadStateStore keeps read ids in process memory.
type memoryReadStateStore struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

// NewMemoryReadStateStore creates the in-process store, used when Redis is
// not available.
func NewMemoryReadStateStore() ReadStateStore {
	return &memoryReadStateStore{sets: make(map[string]map[string]struct{})}
}

func (s *memoryReadStateStore) MarkRead(_ context.Context, sessionID string, ticketIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[sessionID]
	if !ok {
		set = make(map[string]struct{})
		s.sets[sessionID] = set
	}
	for _, id := range ticketIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (s *memoryReadStateStore) IsRead(_ context.Context, sessionID, ticketID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sets[sessionID][ticketID]
	return ok, nil
}

func (s *memoryReadStateStore) ReadIDs(_ context.Context, sessionID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.sets[sessionID]))
	for id := range s.sets[sessionID] {
		out[id] = struct{}{}
	}
	return out, nil
}

// redisReadStateStore keeps read ids in a Redis set per session, expiring
// with the session TTL.
type redisReadStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReadStateStore creates the Redis-backed store.
func NewRedisReadStateStore(client *redis.Client, ttl time.Duration) ReadStateStore {
	return &redisReadStateStore{client: client, ttl: ttl}
}

func readSetKey(sessionID string) string {
	return "triage:session:" + sessionID + ":read"
}

func (s *redisReadStateStore) MarkRead(ctx context.Context, sessionID string, ticketIDs ...string) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	key := readSetKey(sessionID)
	members := make([]any, len(ticketIDs))
	for i, id := range ticketIDs {
		members[i] = id
	}
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisReadStateStore) IsRead(ctx context.Context, sessionID, ticketID string) (bool, error) {
	return s.client.SIsMember(ctx, readSetKey(sessionID), ticketID).Result()
}

func (s *redisReadStateStore) ReadIDs(ctx context.Context, sessionID string) (map[string]struct{}, error) {
	ids, err := s.client.SMembers(ctx, readSetKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

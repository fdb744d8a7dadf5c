package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"classroom_chat/internal/domain"
	apperrors "classroom_chat/pkg/errors"
)

type fakeConn struct {
	id     uuid.UUID
	mu     sync.Mutex
	sent   [][]byte
	closed bool
	onSend func(payload []byte)
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.New()}
}

func (c *fakeConn) ID() uuid.UUID { return c.id }

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.onSend != nil {
		c.onSend(payload)
	}
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *fakeConn) frames() []received {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]received, 0, len(c.sent))
	for _, raw := range c.sent {
		var r received
		_ = json.Unmarshal(raw, &r)
		out = append(out, r)
	}
	return out
}

type fakeVerifier struct {
	tokens map[string]int64
}

func (v *fakeVerifier) Verify(_ context.Context, raw string) (int64, error) {
	if id, ok := v.tokens[raw]; ok {
		return id, nil
	}
	return 0, apperrors.ErrUnauthenticated
}

type fakeStore struct {
	mu        sync.Mutex
	direct    []*domain.DirectMessage
	group     []*domain.GroupMessage
	failWrite error
	nextID    int64
	clock     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (s *fakeStore) tick() (int64, time.Time) {
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	return s.nextID, s.clock
}

func (s *fakeStore) CreateDirect(_ context.Context, senderID, receiverID int64, body string) (*domain.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	id, at := s.tick()
	m := &domain.DirectMessage{ID: id, SenderID: senderID, ReceiverID: receiverID, Body: body, SentAt: at}
	s.direct = append(s.direct, m)
	return m, nil
}

func (s *fakeStore) CreateGroup(_ context.Context, senderID, groupID int64, body string) (*domain.GroupMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	id, at := s.tick()
	m := &domain.GroupMessage{ID: id, SenderID: senderID, GroupID: groupID, Body: body, SentAt: at}
	s.group = append(s.group, m)
	return m, nil
}

func (s *fakeStore) Between(_ context.Context, a, b int64, _ int64, _ int) ([]*domain.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.DirectMessage, 0)
	for _, m := range s.direct {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) ByGroup(_ context.Context, groupID int64, _ int64, _ int) ([]*domain.GroupMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.GroupMessage, 0)
	for _, m := range s.group {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) directCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.direct)
}

func (s *fakeStore) groupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.group)
}

type fakeMembers struct {
	groups map[int64][]int64
}

func (m *fakeMembers) OtherMembers(_ context.Context, groupID, excluding int64) ([]int64, error) {
	members, ok := m.groups[groupID]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	others := make([]int64, 0)
	isMember := false
	for _, id := range members {
		if id == excluding {
			isMember = true
			continue
		}
		others = append(others, id)
	}
	if !isMember {
		return nil, apperrors.ErrNotGroupMember
	}
	return others, nil
}

func (m *fakeMembers) CheckMember(_ context.Context, groupID, userID int64) error {
	members, ok := m.groups[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	for _, id := range members {
		if id == userID {
			return nil
		}
	}
	return apperrors.ErrNotGroupMember
}

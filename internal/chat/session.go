package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SessionState int

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session - состояние одного соединения.
// Идентичность сохраняется при аутентификации, обратного поиска по реестру нет.
type Session struct {
	connID       uuid.UUID
	userID       int64
	state        SessionState
	createdAt    time.Time
	lastActiveAt time.Time
	mu           sync.RWMutex
}

func NewSession(connID uuid.UUID) *Session {
	now := time.Now()
	return &Session{
		connID:       connID,
		state:        StateConnecting,
		createdAt:    now,
		lastActiveAt: now,
	}
}

func (s *Session) ConnID() uuid.UUID {
	return s.connID
}

// Authenticate: Connecting -> Authenticated.
func (s *Session) Authenticate(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return fmt.Errorf("cannot authenticate session in state %s", s.state)
	}
	s.userID = userID
	s.state = StateAuthenticated
	s.lastActiveAt = time.Now()
	return nil
}

// Activate: Authenticated -> Active.
func (s *Session) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return fmt.Errorf("cannot activate session in state %s", s.state)
	}
	s.state = StateActive
	return nil
}

// Close переводит в Closed из любого состояния. Возвращает false при повторном вызове.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	return true
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UserID возвращает идентичность только для активной сессии.
func (s *Session) UserID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateActive {
		return 0, false
	}
	return s.userID, true
}

func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActiveAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastActiveAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}

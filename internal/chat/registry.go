package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Conn - живое транспортное соединение пользователя.
type Conn interface {
	ID() uuid.UUID
	// Send ставит сообщение в очередь отправки. Ошибка, если соединение закрыто или переполнено.
	Send(payload []byte) error
	Close()
}

// Registry хранит привязку пользователь -> соединение.
// Не больше одной привязки на пользователя, последняя побеждает.
// Блокировка никогда не удерживается во время ввода-вывода.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]Conn)}
}

// Bind записывает или перезаписывает привязку и возвращает вытесненное соединение (если было).
func (r *Registry) Bind(userID int64, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[userID]
	r.conns[userID] = conn
	if prev != nil && prev.ID() == conn.ID() {
		return nil
	}
	return prev
}

// Unbind идемпотентен.
func (r *Registry) Unbind(userID int64) {
	r.mu.Lock()
	delete(r.conns, userID)
	r.mu.Unlock()
}

// Release снимает привязку, только если она все еще указывает на connID.
// Поздний disconnect вытесненного соединения не должен удалить новую привязку.
func (r *Registry) Release(userID int64, connID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[userID]
	if !ok || conn.ID() != connID {
		return false
	}
	delete(r.conns, userID)
	return true
}

func (r *Registry) Lookup(userID int64) (Conn, bool) {
	r.mu.RLock()
	conn, ok := r.conns[userID]
	r.mu.RUnlock()
	return conn, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot - копия текущих соединений, для обхода без удержания блокировки.
func (r *Registry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

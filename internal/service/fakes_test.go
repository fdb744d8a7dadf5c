package service

import (
	"context"
	"sync"
	"time"

	"classroom_chat/internal/domain"
	"classroom_chat/internal/repository"
	apperrors "classroom_chat/pkg/errors"
)

type fakeMessageRepo struct {
	mu         sync.Mutex
	direct     []*domain.DirectMessage
	group      []*domain.GroupMessage
	failWrites error
	partnerIDs []int64
	partnerHit int
	// вызывается между чтением собеседников и возвратом результата
	afterPartnerIDs func()
}

func (r *fakeMessageRepo) CreateDirect(_ context.Context, m *domain.DirectMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return r.failWrites
	}
	m.ID = int64(len(r.direct) + 1)
	m.SentAt = time.Now()
	r.direct = append(r.direct, m)
	return nil
}

func (r *fakeMessageRepo) CreateGroup(_ context.Context, m *domain.GroupMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return r.failWrites
	}
	m.ID = int64(len(r.group) + 1)
	m.SentAt = time.Now()
	r.group = append(r.group, m)
	return nil
}

func (r *fakeMessageRepo) Between(_ context.Context, a, b int64, _ int64, _ int) ([]*domain.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.DirectMessage, 0)
	for _, m := range r.direct {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) ByGroup(_ context.Context, groupID int64, _ int64, _ int) ([]*domain.GroupMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.GroupMessage, 0)
	for _, m := range r.group {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) ChatPartnerIDs(ctx context.Context, _ int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.partnerHit++
	ids := append([]int64(nil), r.partnerIDs...)
	hook := r.afterPartnerIDs
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return ids, nil
}

type fakeUserRepo struct {
	users       map[int64]*domain.User
	searchCalls int
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []int64) ([]*domain.User, error) {
	out := make([]*domain.User, 0)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Search(_ context.Context, _ string, _ int64, _ int) ([]*domain.User, error) {
	r.searchCalls++
	return []*domain.User{{ID: 9, DisplayName: "Match"}}, nil
}

type fakeGroupRepo struct {
	members map[int64][]int64
}

func (r *fakeGroupRepo) Members(_ context.Context, groupID int64) ([]int64, error) {
	m, ok := r.members[groupID]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	return m, nil
}

func (r *fakeGroupRepo) IsMember(_ context.Context, groupID, userID int64) (bool, error) {
	m, ok := r.members[groupID]
	if !ok {
		return false, apperrors.ErrGroupNotFound
	}
	for _, id := range m {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

var (
	_ repository.MessageRepository = (*fakeMessageRepo)(nil)
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
	_ repository.GroupRepository   = (*fakeGroupRepo)(nil)
)

package service

import (
	"context"

	"classroom_chat/internal/repository"
	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/logger"
)

// MembershipResolver определяет адресатов группового сообщения и проверяет членство.
type MembershipResolver interface {
	// OtherMembers возвращает участников группы кроме excludingUserID.
	// ErrGroupNotFound - группы нет, ErrNotGroupMember - excludingUserID не состоит в группе.
	// Пустой список - нормальный результат.
	OtherMembers(ctx context.Context, groupID, excludingUserID int64) ([]int64, error)
	CheckMember(ctx context.Context, groupID, userID int64) error
}

type membershipResolver struct {
	groupRepo repository.GroupRepository
	log       logger.Logger
}

func NewMembershipResolver(groupRepo repository.GroupRepository, log logger.Logger) MembershipResolver {
	return &membershipResolver{groupRepo: groupRepo, log: log}
}

func (r *membershipResolver) OtherMembers(ctx context.Context, groupID, excludingUserID int64) ([]int64, error) {
	members, err := r.groupRepo.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}

	others := make([]int64, 0, len(members))
	isMember := false
	for _, id := range members {
		if id == excludingUserID {
			isMember = true
			continue
		}
		others = append(others, id)
	}

	if !isMember {
		r.log.Warn("Group send from non-member rejected", "group_id", groupID, "user_id", excludingUserID)
		return nil, apperrors.ErrNotGroupMember
	}

	return others, nil
}

func (r *membershipResolver) CheckMember(ctx context.Context, groupID, userID int64) error {
	ok, err := r.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNotGroupMember
	}
	return nil
}

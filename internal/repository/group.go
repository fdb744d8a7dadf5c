package repository

import (
	"context"

	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/logger"
)

type GroupRepository interface {
	// Members возвращает всех участников группы, включая отправителя.
	// ErrGroupNotFound, если группы нет.
	Members(ctx context.Context, groupID int64) ([]int64, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

type groupRepository struct {
	db  DB
	log logger.Logger
}

func NewGroupRepository(db DB, log logger.Logger) GroupRepository {
	return &groupRepository{db: db, log: log}
}

func (r *groupRepository) Members(ctx context.Context, groupID int64) ([]int64, error) {
	// LEFT JOIN отличает пустую группу (одна строка с 0) от несуществующей (нет строк)
	query := `
		SELECT COALESCE(m.user_id, 0)
		FROM chat_groups g
		LEFT JOIN chat_group_members m ON m.group_id = g.id
		WHERE g.id = $1
		ORDER BY m.user_id
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		r.log.Error("Failed to get group members", "error", err, "group_id", groupID)
		return nil, storeError("get group members", err)
	}
	defer rows.Close()

	found := false
	members := make([]int64, 0)
	for rows.Next() {
		found = true
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, storeError("scan group member", err)
		}
		if userID != 0 {
			members = append(members, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate group members", err)
	}

	if !found {
		return nil, apperrors.ErrGroupNotFound
	}

	return members, nil
}

func (r *groupRepository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM chat_groups WHERE id = $1),
		       EXISTS(SELECT 1 FROM chat_group_members WHERE group_id = $1 AND user_id = $2)
	`

	var groupExists, isMember bool
	if err := r.db.QueryRow(ctx, query, groupID, userID).Scan(&groupExists, &isMember); err != nil {
		r.log.Error("Failed to check group membership", "error", err, "group_id", groupID, "user_id", userID)
		return false, storeError("check group membership", err)
	}

	if !groupExists {
		return false, apperrors.ErrGroupNotFound
	}

	return isMember, nil
}

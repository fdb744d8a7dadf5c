package repository

import (
	"context"
	"errors"

	"classroom_chat/internal/domain"
	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/logger"
)

// MessageRepository хранит личные и групповые сообщения.
// Выборки истории всегда упорядочены по sent_at, затем по id (от старых к новым).
type MessageRepository interface {
	CreateDirect(ctx context.Context, message *domain.DirectMessage) error
	CreateGroup(ctx context.Context, message *domain.GroupMessage) error
	// beforeID = 0 и limit <= 0 - вся история
	Between(ctx context.Context, userA, userB int64, beforeID int64, limit int) ([]*domain.DirectMessage, error)
	ByGroup(ctx context.Context, groupID int64, beforeID int64, limit int) ([]*domain.GroupMessage, error)
	ChatPartnerIDs(ctx context.Context, userID int64) ([]int64, error)
}

type messageRepository struct {
	db  DB
	log logger.Logger
}

func NewMessageRepository(db DB, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) CreateDirect(ctx context.Context, message *domain.DirectMessage) error {
	query := `
		INSERT INTO direct_messages (sender_id, receiver_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, sent_at
	`

	err := r.db.QueryRow(ctx, query,
		message.SenderID, message.ReceiverID, message.Body,
	).Scan(&message.ID, &message.SentAt)
	if err != nil {
		wrapped := writeError("create direct message", err)
		if !errors.Is(wrapped, apperrors.ErrStoreUnavailable) {
			r.log.Warn("Direct message references unknown user", "error", err,
				"sender_id", message.SenderID, "receiver_id", message.ReceiverID)
			return wrapped
		}
		r.log.Error("Failed to create direct message", "error", err,
			"sender_id", message.SenderID, "receiver_id", message.ReceiverID)
		return wrapped
	}

	return nil
}

func (r *messageRepository) CreateGroup(ctx context.Context, message *domain.GroupMessage) error {
	query := `
		INSERT INTO group_messages (sender_id, group_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, sent_at
	`

	err := r.db.QueryRow(ctx, query,
		message.SenderID, message.GroupID, message.Body,
	).Scan(&message.ID, &message.SentAt)
	if err != nil {
		wrapped := writeError("create group message", err)
		if !errors.Is(wrapped, apperrors.ErrStoreUnavailable) {
			r.log.Warn("Group message references unknown user or group", "error", err,
				"sender_id", message.SenderID, "group_id", message.GroupID)
			return wrapped
		}
		r.log.Error("Failed to create group message", "error", err,
			"sender_id", message.SenderID, "group_id", message.GroupID)
		return wrapped
	}

	return nil
}

func (r *messageRepository) Between(ctx context.Context, userA, userB int64, beforeID int64, limit int) ([]*domain.DirectMessage, error) {
	// Внутренний запрос берет последние limit сообщений, внешний возвращает их в хронологическом порядке
	query := `
		SELECT id, sender_id, receiver_id, body, sent_at
		FROM (
			SELECT id, sender_id, receiver_id, body, sent_at
			FROM direct_messages
			WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
			  AND ($3::bigint = 0 OR id < $3)
			ORDER BY sent_at DESC, id DESC
			LIMIT $4
		) page
		ORDER BY sent_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, userA, userB, beforeID, limitArg(limit))
	if err != nil {
		r.log.Error("Failed to get direct messages", "error", err)
		return nil, storeError("get direct messages", err)
	}
	defer rows.Close()

	messages := make([]*domain.DirectMessage, 0)
	for rows.Next() {
		message := &domain.DirectMessage{}
		if err := rows.Scan(&message.ID, &message.SenderID, &message.ReceiverID, &message.Body, &message.SentAt); err != nil {
			r.log.Error("Failed to scan direct message", "error", err)
			return nil, storeError("scan direct message", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate direct messages", err)
	}

	return messages, nil
}

func (r *messageRepository) ByGroup(ctx context.Context, groupID int64, beforeID int64, limit int) ([]*domain.GroupMessage, error) {
	query := `
		SELECT id, sender_id, group_id, body, sent_at
		FROM (
			SELECT id, sender_id, group_id, body, sent_at
			FROM group_messages
			WHERE group_id = $1
			  AND ($2::bigint = 0 OR id < $2)
			ORDER BY sent_at DESC, id DESC
			LIMIT $3
		) page
		ORDER BY sent_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, groupID, beforeID, limitArg(limit))
	if err != nil {
		r.log.Error("Failed to get group messages", "error", err, "group_id", groupID)
		return nil, storeError("get group messages", err)
	}
	defer rows.Close()

	messages := make([]*domain.GroupMessage, 0)
	for rows.Next() {
		message := &domain.GroupMessage{}
		if err := rows.Scan(&message.ID, &message.SenderID, &message.GroupID, &message.Body, &message.SentAt); err != nil {
			r.log.Error("Failed to scan group message", "error", err)
			return nil, storeError("scan group message", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate group messages", err)
	}

	return messages, nil
}

func (r *messageRepository) ChatPartnerIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id
		FROM direct_messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY partner_id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to get chat partners", "error", err, "user_id", userID)
		return nil, storeError("get chat partners", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeError("scan chat partner", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate chat partners", err)
	}

	return ids, nil
}

package repository

import (
	"context"
	"strings"

	"classroom_chat/internal/domain"
	"classroom_chat/pkg/logger"
)

// UserRepository - только чтение профилей, пользователи заводятся другой подсистемой.
type UserRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.User, error)
	Search(ctx context.Context, query string, excludeID int64, limit int) ([]*domain.User, error)
}

type userRepository struct {
	db  DB
	log logger.Logger
}

func NewUserRepository(db DB, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	query := `
		SELECT id, display_name, COALESCE(avatar_url, '')
		FROM users
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to get users", "error", err)
		return nil, storeError("get users", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// Search ищет подстроку только в display_name.
func (r *userRepository) Search(ctx context.Context, query string, excludeID int64, limit int) ([]*domain.User, error) {
	sql := `
		SELECT id, display_name, COALESCE(avatar_url, '')
		FROM users
		WHERE id <> $1
		  AND display_name ILIKE $2 ESCAPE '\'
		ORDER BY display_name, id
		LIMIT $3
	`

	pattern := "%" + escapeLike(query) + "%"

	rows, err := r.db.Query(ctx, sql, excludeID, pattern, limitArg(limit))
	if err != nil {
		r.log.Error("Failed to search users", "error", err)
		return nil, storeError("search users", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

type userRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanUsers(rows userRows) ([]*domain.User, error) {
	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		var avatar string
		if err := rows.Scan(&user.ID, &user.DisplayName, &avatar); err != nil {
			return nil, storeError("scan user", err)
		}
		if avatar != "" {
			user.AvatarURL = &avatar
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate users", err)
	}
	return users, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

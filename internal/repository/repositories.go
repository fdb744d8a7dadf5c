package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/logger"
)

// DB - подмножество pgxpool.Pool, которое используют репозитории.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repositories struct {
	Message      MessageRepository
	Group        GroupRepository
	User         UserRepository
	PartnerCache PartnerCache
	RateLimit    RateLimitRepository
}

func NewRepositories(db DB, rdb *redis.Client, log logger.Logger) *Repositories {
	repos := &Repositories{
		Message:      NewMessageRepository(db, log),
		Group:        NewGroupRepository(db, log),
		User:         NewUserRepository(db, log),
		PartnerCache: NewRedisPartnerCache(rdb, PartnerCachePrefix),
		RateLimit:    NewRateLimitRepository(rdb, log),
	}

	log.Info("Repositories initialized")

	return repos
}

// storeError помечает сбой хранилища как ErrStoreUnavailable, сохраняя исходную ошибку.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStoreUnavailable, err)
}

const foreignKeyViolation = "23503"

// writeError отделяет ссылку на несуществующего пользователя или группу (ошибка клиента)
// от сбоя хранилища. Повтор такой записи никогда не пройдет.
func writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != foreignKeyViolation {
		return storeError(op, err)
	}
	if strings.HasSuffix(pgErr.ConstraintName, "group_id_fkey") {
		return fmt.Errorf("%s: %w", op, apperrors.ErrGroupNotFound)
	}
	return fmt.Errorf("%s: %w: unknown user", op, apperrors.ErrBadRequest)
}

// LIMIT NULL в PostgreSQL означает "без ограничения"
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

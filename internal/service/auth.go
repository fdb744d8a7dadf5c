package service

import (
	"context"
	"fmt"
	"strings"

	"classroom_chat/internal/config"
	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/jwt"
	"classroom_chat/pkg/logger"
)

// AuthService проверяет access-токены, выпущенные внешним сервисом аутентификации.
// Выпуск и обновление токенов здесь не реализуются.
type AuthService interface {
	// Verify возвращает id пользователя или ErrUnauthenticated. Побочных эффектов нет.
	Verify(ctx context.Context, rawCredential string) (int64, error)
}

type authService struct {
	jwtCfg config.JWTConfig
	log    logger.Logger
}

func NewAuthService(jwtCfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{
		jwtCfg: jwtCfg,
		log:    log,
	}
}

func (s *authService) Verify(ctx context.Context, rawCredential string) (int64, error) {
	token := strings.TrimSpace(rawCredential)
	// Допускаем как "Bearer <token>", так и голый токен
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return 0, fmt.Errorf("%w: credential is missing", apperrors.ErrUnauthenticated)
	}

	claims, err := jwt.ValidateToken(token, s.jwtCfg.AccessSecret, s.jwtCfg.Issuer)
	if err != nil {
		s.log.Debug("Credential rejected", "error", err)
		return 0, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}

	userID, err := claims.UserID()
	if err != nil {
		s.log.Debug("Credential has invalid subject", "error", err)
		return 0, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}

	return userID, nil
}

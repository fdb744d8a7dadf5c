package service

import (
	"context"
	"fmt"

	"classroom_chat/internal/config"
	"classroom_chat/internal/repository"
	"classroom_chat/pkg/logger"
)

type RateLimitService interface {
	// Allow считает запрос субъекта subject в текущем окне.
	Allow(ctx context.Context, subject string) (bool, int, error)
	Limit() int
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	cfg           config.RateLimitConfig
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, cfg config.RateLimitConfig, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		cfg:           cfg,
		log:           log,
	}
}

func (s *rateLimitService) Allow(ctx context.Context, subject string) (bool, int, error) {
	key := fmt.Sprintf("ratelimit:messages:%s", subject)
	return s.rateLimitRepo.Allow(ctx, key, s.cfg.Requests, s.cfg.Window)
}

func (s *rateLimitService) Limit() int {
	return s.cfg.Requests
}

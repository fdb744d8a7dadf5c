package service

import (
	"classroom_chat/internal/config"
	"classroom_chat/internal/repository"
	"classroom_chat/pkg/logger"
)

type Services struct {
	Auth       AuthService
	Messages   MessageStore
	Membership MembershipResolver
	RateLimit  RateLimitService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	services := &Services{
		Auth: NewAuthService(cfg.JWT, log),
		Messages: NewMessageStore(repos.Message, repos.User, repos.PartnerCache,
			cfg.Chat.PartnersCacheTTL, cfg.Chat.SearchLimit, log),
		Membership: NewMembershipResolver(repos.Group, log),
		RateLimit:  NewRateLimitService(repos.RateLimit, cfg.RateLimit, log),
	}

	log.Info("Services initialized")

	return services
}

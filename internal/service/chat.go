package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"classroom_chat/internal/domain"
	"classroom_chat/internal/repository"
	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/logger"
)

const partnersFillTimeout = 10 * time.Second

// MessageStore - операции хранения сообщений чата и запросы для списка диалогов.
type MessageStore interface {
	CreateDirect(ctx context.Context, senderID, receiverID int64, body string) (*domain.DirectMessage, error)
	CreateGroup(ctx context.Context, senderID, groupID int64, body string) (*domain.GroupMessage, error)
	Between(ctx context.Context, userA, userB int64, beforeID int64, limit int) ([]*domain.DirectMessage, error)
	ByGroup(ctx context.Context, groupID int64, beforeID int64, limit int) ([]*domain.GroupMessage, error)
	ChatPartners(ctx context.Context, userID int64) ([]*domain.ChatPartner, error)
	Search(ctx context.Context, requesterID int64, query string) ([]*domain.User, error)
}

type messageStore struct {
	messageRepo  repository.MessageRepository
	userRepo     repository.UserRepository
	partnerCache repository.PartnerCache
	cacheTTL     time.Duration
	searchLimit  int
	fill         singleflight.Group
	log          logger.Logger
}

func NewMessageStore(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	partnerCache repository.PartnerCache,
	cacheTTL time.Duration,
	searchLimit int,
	log logger.Logger,
) MessageStore {
	return &messageStore{
		messageRepo:  messageRepo,
		userRepo:     userRepo,
		partnerCache: partnerCache,
		cacheTTL:     cacheTTL,
		searchLimit:  searchLimit,
		log:          log,
	}
}

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: message is empty", apperrors.ErrBadRequest)
	}
	if len(body) > domain.MaxMessageBodyLength {
		return fmt.Errorf("%w: message is too long (max %d bytes)", apperrors.ErrBadRequest, domain.MaxMessageBodyLength)
	}
	if !utf8.ValidString(body) {
		return fmt.Errorf("%w: message is not valid UTF-8", apperrors.ErrBadRequest)
	}
	return nil
}

func (s *messageStore) CreateDirect(ctx context.Context, senderID, receiverID int64, body string) (*domain.DirectMessage, error) {
	if receiverID <= 0 {
		return nil, fmt.Errorf("%w: receiver_id is required", apperrors.ErrBadRequest)
	}
	if err := validateBody(body); err != nil {
		return nil, err
	}

	message := &domain.DirectMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
	}
	if err := s.messageRepo.CreateDirect(ctx, message); err != nil {
		return nil, err
	}

	// Новый собеседник мог появиться у обоих участников
	if s.partnerCache != nil {
		if err := s.partnerCache.Invalidate(ctx, senderID, receiverID); err != nil {
			s.log.Warn("Failed to invalidate partners cache", "error", err,
				"sender_id", senderID, "receiver_id", receiverID)
		}
	}

	return message, nil
}

func (s *messageStore) CreateGroup(ctx context.Context, senderID, groupID int64, body string) (*domain.GroupMessage, error) {
	if err := validateBody(body); err != nil {
		return nil, err
	}

	message := &domain.GroupMessage{
		SenderID: senderID,
		GroupID:  groupID,
		Body:     body,
	}
	if err := s.messageRepo.CreateGroup(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (s *messageStore) Between(ctx context.Context, userA, userB int64, beforeID int64, limit int) ([]*domain.DirectMessage, error) {
	if userB <= 0 {
		return nil, fmt.Errorf("%w: other user id is required", apperrors.ErrBadRequest)
	}
	return s.messageRepo.Between(ctx, userA, userB, beforeID, limit)
}

func (s *messageStore) ByGroup(ctx context.Context, groupID int64, beforeID int64, limit int) ([]*domain.GroupMessage, error) {
	return s.messageRepo.ByGroup(ctx, groupID, beforeID, limit)
}

func (s *messageStore) ChatPartners(ctx context.Context, userID int64) ([]*domain.ChatPartner, error) {
	if s.partnerCache != nil {
		partners, err := s.partnerCache.Get(ctx, userID)
		if err == nil {
			return partners, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.log.Warn("Failed to read partners cache", "error", err, "user_id", userID)
		}
	}

	// Одновременные промахи по одному пользователю делают один запрос в БД.
	// Заполнение отвязано от отмены запроса лидера.
	v, err, _ := s.fill.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), partnersFillTimeout)
		defer cancel()
		return s.fillPartners(fillCtx, userID)
	})
	if err != nil {
		return nil, err
	}

	return v.([]*domain.ChatPartner), nil
}

// fillPartners читает поколение до запроса в БД; инвалидация во время чтения отменяет запись в кэш.
func (s *messageStore) fillPartners(ctx context.Context, userID int64) ([]*domain.ChatPartner, error) {
	cacheable := s.partnerCache != nil
	var generation int64
	if cacheable {
		gen, err := s.partnerCache.Generation(ctx, userID)
		if err != nil {
			s.log.Warn("Failed to read partners cache generation", "error", err, "user_id", userID)
			cacheable = false
		}
		generation = gen
	}

	partners, err := s.loadPartners(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		stored, err := s.partnerCache.Set(ctx, userID, generation, partners, s.cacheTTL)
		if err != nil {
			s.log.Warn("Failed to fill partners cache", "error", err, "user_id", userID)
		} else if !stored {
			s.log.Debug("Partners cache fill skipped after invalidation", "user_id", userID)
		}
	}

	return partners, nil
}

func (s *messageStore) loadPartners(ctx context.Context, userID int64) ([]*domain.ChatPartner, error) {
	ids, err := s.messageRepo.ChatPartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	partners := make([]*domain.ChatPartner, 0, len(ids))
	for _, id := range ids {
		partner := &domain.ChatPartner{ID: id}
		// Профиль мог быть удален, собеседник все равно остается в списке
		if u, ok := byID[id]; ok {
			partner.DisplayName = u.DisplayName
			partner.AvatarURL = u.AvatarURL
		}
		partners = append(partners, partner)
	}

	return partners, nil
}

// Search с пустым запросом возвращает пустой список без обращения к БД.
func (s *messageStore) Search(ctx context.Context, requesterID int64, query string) ([]*domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.User{}, nil
	}

	return s.userRepo.Search(ctx, query, requesterID, s.searchLimit)
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"classroom_chat/internal/domain"
	"classroom_chat/internal/middleware"
	"classroom_chat/internal/service"
	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/logger"
)

// ChatHandler - REST-чтение для списка диалогов: собеседники, история, поиск.
type ChatHandler struct {
	messages   service.MessageStore
	membership service.MembershipResolver
	maxPage    int
	log        logger.Logger
}

func NewChatHandler(messages service.MessageStore, membership service.MembershipResolver, maxPage int, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		messages:   messages,
		membership: membership,
		maxPage:    maxPage,
		log:        log,
	}
}

// GetHistory: GET /messages/history?userID2=&limit=&before=
func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.ErrUnauthenticated)
		return
	}

	otherID, err := strconv.ParseInt(c.Query("userID2"), 10, 64)
	if err != nil || otherID <= 0 {
		_ = c.Error(fmt.Errorf("%w: userID2 must be a positive integer", apperrors.ErrBadRequest))
		return
	}

	beforeID, limit, err := h.pageParams(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	messages, err := h.messages.Between(c.Request.Context(), userID, otherID, beforeID, limit)
	if err != nil {
		h.log.Error("Failed to get history", "error", err, "user_id", userID, "other_user_id", otherID)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetGroupHistory: GET /messages/groups/:id/history?limit=&before=
func (h *ChatHandler) GetGroupHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.ErrUnauthenticated)
		return
	}

	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || groupID <= 0 {
		_ = c.Error(fmt.Errorf("%w: invalid group id", apperrors.ErrBadRequest))
		return
	}

	beforeID, limit, err := h.pageParams(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.membership.CheckMember(c.Request.Context(), groupID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	messages, err := h.messages.ByGroup(c.Request.Context(), groupID, beforeID, limit)
	if err != nil {
		h.log.Error("Failed to get group history", "error", err, "group_id", groupID)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetChats: GET /messages/chats
func (h *ChatHandler) GetChats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.ErrUnauthenticated)
		return
	}

	partners, err := h.messages.ChatPartners(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to get chat partners", "error", err, "user_id", userID)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, partners)
}

// Search: GET /messages/search?query=
func (h *ChatHandler) Search(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		_ = c.Error(apperrors.ErrUnauthenticated)
		return
	}

	users, err := h.messages.Search(c.Request.Context(), userID, c.Query("query"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	// Наружу отдаются только профильные поля
	result := make([]*domain.ChatPartner, 0, len(users))
	for _, u := range users {
		result = append(result, &domain.ChatPartner{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL})
	}

	c.JSON(http.StatusOK, result)
}

// pageParams разбирает limit и before. Без limit возвращается вся история, limit обрезается до maxPage.
func (h *ChatHandler) pageParams(c *gin.Context) (int64, int, error) {
	var beforeID int64
	if raw := c.Query("before"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return 0, 0, fmt.Errorf("%w: before must be a positive integer", apperrors.ErrBadRequest)
		}
		beforeID = v
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, 0, fmt.Errorf("%w: limit must be a positive integer", apperrors.ErrBadRequest)
		}
		limit = v
		if h.maxPage > 0 && limit > h.maxPage {
			limit = h.maxPage
		}
	}

	return beforeID, limit, nil
}

package chat

import (
	"encoding/json"
	"errors"
	"fmt"

	"classroom_chat/internal/domain"
	apperrors "classroom_chat/pkg/errors"
)

// События клиент -> сервер.
const (
	EventSendDirect        = "send-direct"
	EventSendGroup         = "send-group"
	EventFetchHistory      = "fetch-history"
	EventFetchGroupHistory = "fetch-group-history"
)

// События сервер -> клиент.
const (
	EventReceiveDirect = "receive-direct"
	EventReceiveGroup  = "receive-group"
	EventHistory       = "history"
	EventGroupHistory  = "group-history"
	EventError         = "error"
)

// Коды ошибок в событии error.
const (
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeGroupNotFound    = "GROUP_NOT_FOUND"
	ErrCodeNotGroupMember   = "NOT_GROUP_MEMBER"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Envelope - формат кадра в обе стороны: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Event - закрытое множество входящих событий.
type Event interface {
	Name() string
	isEvent()
}

type SendDirect struct {
	ReceiverID int64  `json:"receiver_id"`
	Message    string `json:"message"`
}

type SendGroup struct {
	GroupID int64  `json:"group_id"`
	Message string `json:"message"`
}

type FetchHistory struct {
	OtherUserID int64 `json:"other_user_id"`
}

type FetchGroupHistory struct {
	GroupID int64 `json:"group_id"`
}

func (SendDirect) Name() string        { return EventSendDirect }
func (SendGroup) Name() string         { return EventSendGroup }
func (FetchHistory) Name() string      { return EventFetchHistory }
func (FetchGroupHistory) Name() string { return EventFetchGroupHistory }

func (SendDirect) isEvent()        {}
func (SendGroup) isEvent()         {}
func (FetchHistory) isEvent()      {}
func (FetchGroupHistory) isEvent() {}

// DecodeEvent разбирает входящий кадр. Ошибки оборачивают ErrBadRequest.
// Имя события возвращается даже при ошибке разбора data, чтобы указать его в ответе.
func DecodeEvent(raw []byte) (string, Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("%w: invalid frame: %v", apperrors.ErrBadRequest, err)
	}

	var event Event
	switch env.Event {
	case EventSendDirect:
		var e SendDirect
		if err := decodeData(env.Data, &e); err != nil {
			return env.Event, nil, err
		}
		if e.ReceiverID <= 0 {
			return env.Event, nil, fmt.Errorf("%w: receiver_id is required", apperrors.ErrBadRequest)
		}
		event = e
	case EventSendGroup:
		var e SendGroup
		if err := decodeData(env.Data, &e); err != nil {
			return env.Event, nil, err
		}
		if e.GroupID <= 0 {
			return env.Event, nil, fmt.Errorf("%w: group_id is required", apperrors.ErrBadRequest)
		}
		event = e
	case EventFetchHistory:
		var e FetchHistory
		if err := decodeData(env.Data, &e); err != nil {
			return env.Event, nil, err
		}
		if e.OtherUserID <= 0 {
			return env.Event, nil, fmt.Errorf("%w: other_user_id is required", apperrors.ErrBadRequest)
		}
		event = e
	case EventFetchGroupHistory:
		var e FetchGroupHistory
		if err := decodeData(env.Data, &e); err != nil {
			return env.Event, nil, err
		}
		if e.GroupID <= 0 {
			return env.Event, nil, fmt.Errorf("%w: group_id is required", apperrors.ErrBadRequest)
		}
		event = e
	default:
		return env.Event, nil, fmt.Errorf("%w: unknown event %q", apperrors.ErrBadRequest, env.Event)
	}

	return env.Event, event, nil
}

func knownEvent(name string) bool {
	switch name {
	case EventSendDirect, EventSendGroup, EventFetchHistory, EventFetchGroupHistory:
		return true
	}
	return false
}

func decodeData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: data is required", apperrors.ErrBadRequest)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: invalid data: %v", apperrors.ErrBadRequest, err)
	}
	return nil
}

// ErrorPayload - тело события error.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

type HistoryPayload struct {
	OtherUserID int64                   `json:"other_user_id"`
	Messages    []*domain.DirectMessage `json:"messages"`
}

type GroupHistoryPayload struct {
	GroupID  int64                  `json:"group_id"`
	Messages []*domain.GroupMessage `json:"messages"`
}

func encode(event string, data interface{}) ([]byte, error) {
	return json.Marshal(outboundEnvelope{Event: event, Data: data})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated), errors.Is(err, apperrors.ErrNotAuthenticated):
		return ErrCodeUnauthenticated
	case errors.Is(err, apperrors.ErrGroupNotFound):
		return ErrCodeGroupNotFound
	case errors.Is(err, apperrors.ErrNotGroupMember):
		return ErrCodeNotGroupMember
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return ErrCodeStoreUnavailable
	case errors.Is(err, apperrors.ErrBadRequest):
		return ErrCodeBadRequest
	default:
		return ErrCodeInternalError
	}
}

// Клиенту не отдаем текст внутренних ошибок
func errorMessage(code string, err error) string {
	switch code {
	case ErrCodeStoreUnavailable:
		return "message could not be stored, please retry"
	case ErrCodeInternalError:
		return "internal error"
	default:
		return err.Error()
	}
}

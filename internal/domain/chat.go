package domain

import (
	"time"
)

// DirectMessage неизменяемо после создания.
type DirectMessage struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Body       string    `json:"message"`
	SentAt     time.Time `json:"sent_at"`
}

type GroupMessage struct {
	ID       int64     `json:"id"`
	SenderID int64     `json:"sender_id"`
	GroupID  int64     `json:"group_id"`
	Body     string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

const (
	MessageKindDirect = "direct"
	MessageKindGroup  = "group"
)

// MaxMessageBodyLength - ограничение длины текста сообщения (в байтах).
const MaxMessageBodyLength = 4000

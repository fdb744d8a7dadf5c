package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"classroom_chat/internal/config"
	"classroom_chat/pkg/logger"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Client - websocket-соединение одного пользователя.
// Канал send никогда не закрывается, завершение сигнализируется через done.
type Client struct {
	session *Session
	conn    *websocket.Conn
	send    chan []byte
	config  config.WebSocketConfig

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	log logger.Logger
}

func NewClient(session *Session, conn *websocket.Conn, cfg config.WebSocketConfig, log logger.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		session: session,
		conn:    conn,
		send:    make(chan []byte, cfg.SendBuffer),
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		log:     log.With("conn_id", session.ConnID().String()),
	}
}

func (c *Client) ID() uuid.UUID {
	return c.session.ConnID()
}

func (c *Client) Session() *Session {
	return c.session
}

// Context отменяется при закрытии соединения.
func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Send безопасен для конкурентного вызова и никогда не блокируется.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Close идемпотентен. WritePump отправляет close-кадр и закрывает сокет.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
	})
}

// ReadPump читает кадры и синхронно передает их в handler, сохраняя порядок событий соединения.
// Возвращается при ошибке чтения (в том числе по таймауту pong) и вызывает onClose.
func (c *Client) ReadPump(handler func([]byte), onClose func()) {
	defer func() {
		c.Close()
		c.conn.Close()
		if onClose != nil {
			onClose()
		}
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.session.Touch()
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("WebSocket read error", "error", err)
			} else {
				c.log.Debug("WebSocket closed", "error", err)
			}
			return
		}

		c.session.Touch()
		handler(message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.Close()
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.config.WriteWait))
			return
		}
	}
}

package chat

import (
	"context"
	"errors"
	"fmt"

	"classroom_chat/internal/domain"
	apperrors "classroom_chat/pkg/errors"
	"classroom_chat/pkg/logger"
)

type CredentialVerifier interface {
	Verify(ctx context.Context, rawCredential string) (int64, error)
}

type MessageStore interface {
	CreateDirect(ctx context.Context, senderID, receiverID int64, body string) (*domain.DirectMessage, error)
	CreateGroup(ctx context.Context, senderID, groupID int64, body string) (*domain.GroupMessage, error)
	Between(ctx context.Context, userA, userB int64, beforeID int64, limit int) ([]*domain.DirectMessage, error)
	ByGroup(ctx context.Context, groupID int64, beforeID int64, limit int) ([]*domain.GroupMessage, error)
}

type MembershipResolver interface {
	OtherMembers(ctx context.Context, groupID, excludingUserID int64) ([]int64, error)
	CheckMember(ctx context.Context, groupID, userID int64) error
}

// Coordinator обрабатывает события соединений: сначала сохранение, затем доставка живым получателям.
// Получатели без соединения пропускаются и увидят сообщение при следующей загрузке истории.
type Coordinator struct {
	registry *Registry
	verifier CredentialVerifier
	store    MessageStore
	members  MembershipResolver
	log      logger.Logger
}

func NewCoordinator(registry *Registry, verifier CredentialVerifier, store MessageStore, members MembershipResolver, log logger.Logger) *Coordinator {
	return &Coordinator{
		registry: registry,
		verifier: verifier,
		store:    store,
		members:  members,
		log:      log,
	}
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// Authenticate: Connecting -> Authenticated. При ошибке сессия закрывается, привязка не создается.
func (c *Coordinator) Authenticate(ctx context.Context, session *Session, rawCredential string) (int64, error) {
	userID, err := c.verifier.Verify(ctx, rawCredential)
	if err != nil {
		session.Close()
		if !errors.Is(err, apperrors.ErrUnauthenticated) {
			err = fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
		}
		return 0, err
	}

	if err := session.Authenticate(userID); err != nil {
		session.Close()
		return 0, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}

	return userID, nil
}

// Activate: Authenticated -> Active, привязывает соединение в реестре.
// Вытесненное соединение того же пользователя закрывается.
func (c *Coordinator) Activate(session *Session, conn Conn) error {
	if err := session.Activate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrNotAuthenticated, err)
	}

	userID, _ := session.UserID()
	if prev := c.registry.Bind(userID, conn); prev != nil {
		c.log.Info("Chat connection replaced", "user_id", userID,
			"old_conn_id", prev.ID().String(), "conn_id", conn.ID().String())
		prev.Close()
	}
	ConnectionsActive.Set(float64(c.registry.Count()))

	c.log.Info("Chat connection active", "user_id", userID, "conn_id", conn.ID().String())
	return nil
}

// Disconnect: Active -> Closed. Идемпотентен.
func (c *Coordinator) Disconnect(session *Session) {
	userID, active := session.UserID()
	if !session.Close() {
		return
	}
	if !active {
		return
	}

	if c.registry.Release(userID, session.ConnID()) {
		c.log.Info("Chat connection closed", "user_id", userID, "conn_id", session.ConnID().String())
	}
	ConnectionsActive.Set(float64(c.registry.Count()))
}

// Shutdown закрывает все живые соединения. Привязки снимаются их ReadPump через Disconnect.
func (c *Coordinator) Shutdown() int {
	conns := c.registry.Snapshot()
	for _, conn := range conns {
		conn.Close()
	}
	return len(conns)
}

// Serve активирует клиента и запускает его насосы чтения/записи.
func (c *Coordinator) Serve(client *Client) error {
	session := client.Session()
	if err := c.Activate(session, client); err != nil {
		client.Close()
		return err
	}

	go client.WritePump()
	go client.ReadPump(
		func(raw []byte) { c.Handle(client.Context(), session, client, raw) },
		func() { c.Disconnect(session) },
	)
	return nil
}

// Handle разбирает и обрабатывает один входящий кадр.
// Ошибка возвращается отправителю событием error и никогда не затрагивает другие соединения.
func (c *Coordinator) Handle(ctx context.Context, session *Session, conn Conn, raw []byte) {
	name, event, err := DecodeEvent(raw)
	if err == nil {
		err = c.Dispatch(ctx, session, conn, event)
	}

	label := name
	if !knownEvent(label) {
		label = "unknown"
	}
	if err != nil {
		Events.WithLabelValues(label, resultError).Inc()
		c.replyError(conn, name, err)
		return
	}
	Events.WithLabelValues(label, resultOK).Inc()
}

// Dispatch - единственная точка разбора событий.
func (c *Coordinator) Dispatch(ctx context.Context, session *Session, conn Conn, event Event) error {
	senderID, err := c.resolveSender(session)
	if err != nil {
		return err
	}

	switch e := event.(type) {
	case SendDirect:
		return c.sendDirect(ctx, senderID, e)
	case SendGroup:
		return c.sendGroup(ctx, senderID, e)
	case FetchHistory:
		return c.fetchHistory(ctx, senderID, conn, e)
	case FetchGroupHistory:
		return c.fetchGroupHistory(ctx, senderID, conn, e)
	default:
		return fmt.Errorf("%w: unsupported event %T", apperrors.ErrBadRequest, event)
	}
}

// resolveSender берет идентичность из сессии и проверяет, что привязка еще принадлежит этому соединению.
func (c *Coordinator) resolveSender(session *Session) (int64, error) {
	userID, ok := session.UserID()
	if !ok {
		return 0, apperrors.ErrNotAuthenticated
	}

	bound, ok := c.registry.Lookup(userID)
	if !ok || bound.ID() != session.ConnID() {
		return 0, apperrors.ErrNotAuthenticated
	}

	return userID, nil
}

func (c *Coordinator) sendDirect(ctx context.Context, senderID int64, e SendDirect) error {
	message, err := c.store.CreateDirect(ctx, senderID, e.ReceiverID, e.Message)
	if err != nil {
		c.storeFailed(domain.MessageKindDirect, err, "sender_id", senderID, "receiver_id", e.ReceiverID)
		return err
	}
	MessagesPersisted.WithLabelValues(domain.MessageKindDirect).Inc()

	payload, err := encode(EventReceiveDirect, message)
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventReceiveDirect, err)
	}
	c.push(domain.MessageKindDirect, e.ReceiverID, payload)
	return nil
}

func (c *Coordinator) sendGroup(ctx context.Context, senderID int64, e SendGroup) error {
	// Неизвестная группа или чужой отправитель отклоняются до сохранения
	targets, err := c.members.OtherMembers(ctx, e.GroupID, senderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStoreUnavailable) {
			c.log.Error("Failed to resolve group members", "error", err, "group_id", e.GroupID, "sender_id", senderID)
		}
		return err
	}

	message, err := c.store.CreateGroup(ctx, senderID, e.GroupID, e.Message)
	if err != nil {
		c.storeFailed(domain.MessageKindGroup, err, "sender_id", senderID, "group_id", e.GroupID)
		return err
	}
	MessagesPersisted.WithLabelValues(domain.MessageKindGroup).Inc()

	payload, err := encode(EventReceiveGroup, message)
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventReceiveGroup, err)
	}
	for _, userID := range targets {
		if userID == senderID {
			continue
		}
		c.push(domain.MessageKindGroup, userID, payload)
	}
	return nil
}

func (c *Coordinator) fetchHistory(ctx context.Context, senderID int64, conn Conn, e FetchHistory) error {
	messages, err := c.store.Between(ctx, senderID, e.OtherUserID, 0, 0)
	if err != nil {
		return err
	}

	return c.reply(conn, EventHistory, HistoryPayload{OtherUserID: e.OtherUserID, Messages: messages})
}

func (c *Coordinator) fetchGroupHistory(ctx context.Context, senderID int64, conn Conn, e FetchGroupHistory) error {
	if err := c.members.CheckMember(ctx, e.GroupID, senderID); err != nil {
		return err
	}

	messages, err := c.store.ByGroup(ctx, e.GroupID, 0, 0)
	if err != nil {
		return err
	}

	return c.reply(conn, EventGroupHistory, GroupHistoryPayload{GroupID: e.GroupID, Messages: messages})
}

func (c *Coordinator) storeFailed(kind string, err error, keysAndValues ...interface{}) {
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		return
	}
	StoreFailures.WithLabelValues(kind).Inc()
	c.log.Error("Message was not stored", append([]interface{}{"error", err, "kind", kind}, keysAndValues...)...)
}

// push - доставка без гарантий, сообщение уже сохранено.
func (c *Coordinator) push(kind string, userID int64, payload []byte) {
	conn, ok := c.registry.Lookup(userID)
	if !ok {
		return
	}

	if err := conn.Send(payload); err != nil {
		Pushes.WithLabelValues(kind, resultDropped).Inc()
		c.log.Debug("Live push dropped", "error", err, "user_id", userID, "conn_id", conn.ID().String())
		return
	}
	Pushes.WithLabelValues(kind, resultOK).Inc()
}

func (c *Coordinator) reply(conn Conn, event string, data interface{}) error {
	payload, err := encode(event, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	if err := conn.Send(payload); err != nil {
		c.log.Debug("Reply dropped", "error", err, "event", event, "conn_id", conn.ID().String())
	}
	return nil
}

func (c *Coordinator) replyError(conn Conn, event string, err error) {
	code := errorCode(err)
	if code == ErrCodeInternalError {
		c.log.Error("Chat event failed", "error", err, "event", event, "conn_id", conn.ID().String())
	}

	payload, encErr := encode(EventError, ErrorPayload{
		Code:    code,
		Message: errorMessage(code, err),
		Event:   event,
	})
	if encErr != nil {
		return
	}
	_ = conn.Send(payload)
}

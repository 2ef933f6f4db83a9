package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/moamarket/chat-service/internal/domain"
	"github.com/moamarket/chat-service/internal/metrics"
	"github.com/moamarket/chat-service/internal/store"

	"github.com/gorilla/websocket"
)

type RoomSvc interface {
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
	ListMemberIDs(ctx context.Context, roomID int64) ([]int64, error)
}

type ChatSvc interface {
	Send(ctx context.Context, roomID, senderID int64, t domain.MessageType, content string) (*domain.Message, error)
}

type TokenVerifier interface {
	ParseAndValidate(token string) (int64, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	roomSvc  RoomSvc
	chatSvc  ChatSvc
	users    store.UserDirectory
	tokens   TokenVerifier

	pingEvery time.Duration
}

func NewServer(hub *Hub, roomSvc RoomSvc, chatSvc ChatSvc, users store.UserDirectory, tokens TokenVerifier) *Server {
	return &Server{
		hub:     hub,
		roomSvc: roomSvc,
		chatSvc: chatSvc,
		users:   users,
		tokens:  tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?token=...
// Невалидный токен режет соединение до апгрейда: ни одного полезного кадра
// неаутентифицированному клиенту.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(auth[7:])
		}
	}
	userID, err := s.tokens.ParseAndValidate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newClient(conn, userID)
	s.hub.Register(c)

	go c.writePump(s.pingEvery)
	s.readLoop(r.Context(), c)

	s.hub.Unregister(c)
	c.close()
}

func (s *Server) readLoop(ctx context.Context, c *Client) {
	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.trySend(Message{Type: TypeError, Payload: ErrorPayload{Op: "parse", Message: "invalid frame"}})
			continue
		}

		switch msg.Type {
		case TypeJoinRoom:
			s.handleJoin(ctx, c, msg.Payload)
		case TypeLeaveRoom:
			var p RoomRefPayload
			if decode(msg.Payload, &p) == nil && p.RoomID >= 1 {
				s.hub.LeaveRoom(c, p.RoomID)
			}
		case TypeSendMessage:
			s.handleSend(ctx, c, msg.Payload)
		default:
			// ignore
		}
	}
}

// handleJoin — членство перепроверяется на каждом join. Отказ раньше был
// молчаливым no-op; теперь клиент получает явный error-кадр.
func (s *Server) handleJoin(ctx context.Context, c *Client, payload interface{}) {
	var p RoomRefPayload
	if decode(payload, &p) != nil || p.RoomID < 1 {
		c.trySend(Message{Type: TypeError, Payload: ErrorPayload{Op: TypeJoinRoom, Message: "roomId is required"}})
		return
	}
	ok, err := s.roomSvc.IsMember(ctx, p.RoomID, c.userID)
	if err != nil {
		slog.Error("ws join membership check failed", "room", p.RoomID, "user", c.userID, "err", err)
		c.trySend(Message{Type: TypeError, Payload: ErrorPayload{Op: TypeJoinRoom, Message: "internal error"}})
		return
	}
	if !ok {
		c.trySend(Message{Type: TypeError, Payload: ErrorPayload{Op: TypeJoinRoom, Message: "not a member of the room"}})
		return
	}
	s.hub.JoinRoom(c, p.RoomID)
}

func (s *Server) handleSend(ctx context.Context, c *Client, payload interface{}) {
	var p SendMessagePayload
	if decode(payload, &p) != nil || p.RoomID < 1 {
		c.trySend(Message{Type: TypeSendAck, Payload: SendAckPayload{OK: false, Message: "roomId and content are required"}})
		return
	}

	// live-канал несёт только text/image; appointment собирается REST-ручкой
	t := domain.MessageText
	if p.Type == string(domain.MessageImage) {
		t = domain.MessageImage
	}

	m, err := s.chatSvc.Send(ctx, p.RoomID, c.userID, t, p.Content)
	if err != nil {
		c.trySend(Message{Type: TypeSendAck, Payload: SendAckPayload{Seq: p.Seq, OK: false, Message: sendFailureReason(err)}})
		return
	}

	s.PublishMessage(ctx, m)
	c.trySend(Message{Type: TypeSendAck, Payload: SendAckPayload{Seq: p.Seq, OK: true, MessageID: m.ID}})
}

// PublishMessage фан-аутит уже записанное сообщение: полная запись в канал
// комнаты плюс сигнал «список изменился» в личные каналы обоих участников.
// Используется и live-командой send_message, и REST-ручками.
func (s *Server) PublishMessage(ctx context.Context, m *domain.Message) {
	s.hub.BroadcastRoom(m.RoomID, Message{Type: TypeNewMessage, Payload: s.Wire(ctx, m)})

	memberIDs, err := s.roomSvc.ListMemberIDs(ctx, m.RoomID)
	if err != nil {
		slog.Warn("ws list members for signal failed", "room", m.RoomID, "err", err)
		return
	}
	s.hub.NotifyUsers(memberIDs, Message{Type: TypeChatListUpdated})
}

// Wire собирает запись для подписчиков; nickname best-effort.
func (s *Server) Wire(ctx context.Context, m *domain.Message) WireMessage {
	nickname, err := s.users.Nickname(ctx, m.SenderID)
	if err != nil {
		slog.Debug("nickname lookup failed", "user", m.SenderID, "err", err)
	}
	return WireMessage{
		ID:          m.ID,
		UserID:      m.SenderID,
		Nickname:    nickname,
		Content:     m.Content,
		MessageType: string(m.Type),
		CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func sendFailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrNotMember):
		return "not a member of the room"
	case errors.Is(err, domain.ErrEmptyContent):
		return "message content is empty"
	case errors.Is(err, domain.ErrContentTooLong):
		return "message content is too long"
	default:
		return "failed to send message"
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

// Client — одно соединение (устройство) пользователя. Исходящие кадры идут
// через буферизованный канал; writePump единственный писатель в conn.
type Client struct {
	conn   *websocket.Conn
	userID int64
	send   chan Message
	closed chan struct{}

	joined map[int64]struct{} // guarded by hub.mu
}

func newClient(conn *websocket.Conn, userID int64) *Client {
	return &Client{
		conn:   conn,
		userID: userID,
		send:   make(chan Message, 64),
		closed: make(chan struct{}),
		joined: make(map[int64]struct{}),
	}
}

func (c *Client) trySend(msg Message) {
	select {
	case <-c.closed:
	case c.send <- msg:
	default:
		metrics.WSFramesDropped.Inc()
	}
}

func (c *Client) writePump(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

func (c *Client) close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	_ = c.conn.Close()
}

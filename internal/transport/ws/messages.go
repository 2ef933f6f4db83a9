package ws

// Типы событий live-канала
const (
	// client -> server
	TypeJoinRoom    = "join_room"
	TypeLeaveRoom   = "leave_room"
	TypeSendMessage = "send_message"

	// server -> client
	TypeNewMessage      = "new_message"       // полная запись в канал комнаты
	TypeChatListUpdated = "chat_list_updated" // сигнал без payload в личный канал
	TypeSendAck         = "send_ack"          // подтверждение send_message отправителю
	TypeError           = "error"             // отклонённая команда (в т.ч. join_room)
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type RoomRefPayload struct {
	RoomID int64 `json:"roomId"`
}

type SendMessagePayload struct {
	Seq     int64  `json:"seq,omitempty"` // корреляция ack-а на клиенте
	RoomID  int64  `json:"roomId"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"` // text|image; appointment только через REST
}

type SendAckPayload struct {
	Seq       int64  `json:"seq,omitempty"`
	OK        bool   `json:"ok"`
	MessageID int64  `json:"messageId,omitempty"`
	Message   string `json:"message,omitempty"`
}

type ErrorPayload struct {
	Op      string `json:"op"`
	Message string `json:"message"`
}

// WireMessage — запись, которую видят подписчики канала комнаты. Та же
// форма отдаётся REST-ручкой сообщений.
type WireMessage struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"userId"`
	Nickname    string `json:"nickname"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	CreatedAt   string `json:"createdAt"` // ISO-8601
}

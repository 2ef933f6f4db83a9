package domain

import "time"

type MessageType string

const (
	MessageText        MessageType = "text"
	MessageImage       MessageType = "image"
	MessageAppointment MessageType = "appointment"
)

// NormalizeMessageType приводит клиентский type к поддерживаемому.
// Неизвестные значения считаются text, как в старом протоколе.
func NormalizeMessageType(s string) MessageType {
	switch MessageType(s) {
	case MessageImage:
		return MessageImage
	case MessageAppointment:
		return MessageAppointment
	default:
		return MessageText
	}
}

// Message — неизменяемая запись в ленте комнаты. ID строго растёт в порядке
// записи и служит курсором пагинации и курсором чтения.
type Message struct {
	ID        int64       `db:"id"`
	RoomID    int64       `db:"room_id"`
	SenderID  int64       `db:"sender_id"`
	Type      MessageType `db:"message_type"`
	Content   string      `db:"content"`
	CreatedAt time.Time   `db:"created_at"`
}

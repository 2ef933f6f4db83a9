package domain

import "time"

// Membership — участие пользователя в комнате плюс его курсор чтения.
// LastReadMessageID == nil значит «ничего не прочитано».
type Membership struct {
	RoomID            int64     `db:"room_id"`
	UserID            int64     `db:"user_id"`
	LastReadMessageID *int64    `db:"last_read_message_id"`
	JoinedAt          time.Time `db:"joined_at"`
}

package domain

import "time"

// Room — чат по одному объявлению между двумя участниками.
type Room struct {
	ID        int64     `db:"id"`
	ListingID int64     `db:"listing_id"`
	CreatedAt time.Time `db:"created_at"`
}

// RoomSummary — строка списка «мои чаты»: превью последнего сообщения и
// счётчик непрочитанного.
type RoomSummary struct {
	RoomID        int64
	ListingID     int64
	OtherUserID   int64
	OtherNickname string
	LastMessage   *string
	LastAt        *time.Time
	UnreadCount   int
}

type RoomDetail struct {
	RoomID         int64
	ListingID      int64
	OtherUserID    int64
	OtherNickname  string
	IsListingOwner bool
}

package http

import "github.com/moamarket/chat-service/internal/transport/ws"

type ErrorResponse struct {
	Message string `json:"message"`
}

type CreateRoomRequest struct {
	ListingID int64 `json:"listingId"`
}

type CreateRoomResponse struct {
	RoomID int64 `json:"roomId"`
}

type RoomListItem struct {
	RoomID        int64   `json:"roomId"`
	ListingID     int64   `json:"listingId"`
	OtherUserID   int64   `json:"otherUserId"`
	OtherNickname string  `json:"otherNickname"`
	LastMessage   *string `json:"lastMessage"`
	LastAt        *string `json:"lastAt"` // ISO-8601
	UnreadCount   int     `json:"unreadCount"`
}

type RoomListResponse struct {
	Rooms []RoomListItem `json:"rooms"`
}

type RoomDetailResponse struct {
	RoomID         int64  `json:"roomId"`
	ListingID      int64  `json:"listingId"`
	OtherUserID    int64  `json:"otherUserId"`
	OtherNickname  string `json:"otherNickname"`
	IsListingOwner bool   `json:"isListingOwner"`
	UnreadCount    int    `json:"unreadCount"`
}

type MessagesResponse struct {
	Messages []ws.WireMessage `json:"messages"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

type SendMessageResponse struct {
	MessageID int64 `json:"messageId"`
}

type CreateAppointmentRequest struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Place string `json:"place"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type NotificationCountsResponse struct {
	ChatUnreadCount int `json:"chatUnreadCount"`
}

type ViewResponse struct {
	Counted   bool  `json:"counted"`
	ViewCount int64 `json:"viewCount,omitempty"`
}

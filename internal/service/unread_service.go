package service

import (
	"context"

	"github.com/moamarket/chat-service/internal/store"
)

// UnreadService — курсоры чтения и агрегаты непрочитанного поверх ленты.
type UnreadService struct {
	st store.Store
}

func NewUnreadService(st store.Store) *UnreadService {
	return &UnreadService{st: st}
}

// MarkRead догоняет курсор до текущего максимума комнаты. Частичного
// прочтения не бывает.
func (s *UnreadService) MarkRead(ctx context.Context, roomID, userID int64) error {
	return s.st.MarkRead(ctx, roomID, userID)
}

func (s *UnreadService) UnreadCountForRoom(ctx context.Context, userID, roomID int64) (int, error) {
	return s.st.UnreadCount(ctx, roomID, userID)
}

// UnreadRoomsCount питает бейдж: количество комнат, где последнее сообщение
// чужое и выше курсора. Ленты сообщений при этом не поднимаются.
func (s *UnreadService) UnreadRoomsCount(ctx context.Context, userID int64) (int, error) {
	return s.st.CountRoomsWithUnread(ctx, userID)
}

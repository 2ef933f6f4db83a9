package store

import (
	"context"

	"github.com/moamarket/chat-service/internal/domain"
)

// Store — интерфейс хранилища чата. Реализации: postgres (prod) и memstore
// (dev/tests). Все ошибки «не найдено / не участник» — sentinel-ы из domain.
type Store interface {
	// rooms & memberships
	FindRoomByListingAndMembers(ctx context.Context, listingID, userA, userB int64) (int64, error)
	CreateRoomWithMembers(ctx context.Context, listingID, userA, userB int64) (int64, error)
	GetRoom(ctx context.Context, roomID int64) (*domain.Room, error)
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
	ListMemberIDs(ctx context.Context, roomID int64) ([]int64, error)
	RemoveMember(ctx context.Context, roomID, userID int64) error
	ListRoomSummaries(ctx context.Context, userID int64) ([]domain.RoomSummary, error)
	GetRoomDetail(ctx context.Context, roomID, userID int64) (*domain.RoomDetail, error)

	// message ledger. AppendMessage перепроверяет членство атомарно со
	// вставкой и возвращает domain.ErrNotMember, если участник успел выйти.
	AppendMessage(ctx context.Context, roomID, senderID int64, t domain.MessageType, content string) (*domain.Message, error)
	PageMessages(ctx context.Context, roomID int64, limit int, beforeID int64) ([]domain.Message, error)
	GetMessage(ctx context.Context, id int64) (*domain.Message, error)

	// read cursors / unread
	MarkRead(ctx context.Context, roomID, userID int64) error
	UnreadCount(ctx context.Context, roomID, userID int64) (int, error)
	CountRoomsWithUnread(ctx context.Context, userID int64) (int, error)

	// view counters (двое независимых потребителей dedup-кэша)
	IncrementListingViews(ctx context.Context, listingID int64) (int64, error)
	IncrementCommunityPostViews(ctx context.Context, postID int64) (int64, error)

	Close()
	Ping(ctx context.Context) error
}

// ListingDirectory — коллаборатор «объявления»: кто владелец listing-а.
type ListingDirectory interface {
	OwnerID(ctx context.Context, listingID int64) (int64, error)
}

// UserDirectory — коллаборатор «пользователи»: nickname для wire-записей.
type UserDirectory interface {
	Nickname(ctx context.Context, userID int64) (string, error)
}

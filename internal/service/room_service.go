package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/moamarket/chat-service/internal/domain"
	"github.com/moamarket/chat-service/internal/store"
)

type RoomService struct {
	st       store.Store
	listings store.ListingDirectory
}

func NewRoomService(st store.Store, listings store.ListingDirectory) *RoomService {
	return &RoomService{st: st, listings: listings}
}

// GetOrCreateRoom — комната «покупатель ↔ владелец объявления». Пока оба
// участника в комнате, пара (listing, {A,B}) занимает ровно одну комнату;
// после выхода любого из них повторный контакт создаёт новую.
func (s *RoomService) GetOrCreateRoom(ctx context.Context, listingID, callerID int64) (int64, error) {
	ownerID, err := s.listings.OwnerID(ctx, listingID)
	if err != nil {
		return 0, err
	}
	if ownerID == callerID {
		return 0, domain.ErrSelfChat
	}

	if id, err := s.st.FindRoomByListingAndMembers(ctx, listingID, callerID, ownerID); err == nil {
		return id, nil
	} else if !errors.Is(err, domain.ErrRoomNotFound) {
		return 0, err
	}

	id, err := s.st.CreateRoomWithMembers(ctx, listingID, callerID, ownerID)
	if err != nil {
		return 0, fmt.Errorf("create room: %w", err)
	}
	return id, nil
}

func (s *RoomService) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	return s.st.IsMember(ctx, roomID, userID)
}

func (s *RoomService) ListMemberIDs(ctx context.Context, roomID int64) ([]int64, error) {
	return s.st.ListMemberIDs(ctx, roomID)
}

func (s *RoomService) ListRooms(ctx context.Context, userID int64) ([]domain.RoomSummary, error) {
	return s.st.ListRoomSummaries(ctx, userID)
}

func (s *RoomService) RoomDetail(ctx context.Context, roomID, userID int64) (*domain.RoomDetail, error) {
	return s.st.GetRoomDetail(ctx, roomID, userID)
}

// Leave удаляет только membership вызвавшего: сообщения и второй участник
// не затрагиваются.
func (s *RoomService) Leave(ctx context.Context, roomID, userID int64) error {
	ok, err := s.st.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotMember
	}
	return s.st.RemoveMember(ctx, roomID, userID)
}

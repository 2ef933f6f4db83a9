package service

import (
	"context"
	"errors"
	"testing"

	"github.com/moamarket/chat-service/internal/domain"
	"github.com/moamarket/chat-service/internal/memstore"
)

func TestUnreadFlow(t *testing.T) {
	st := memstore.New()
	st.AddUser(1, "seller")
	st.AddUser(2, "buyer")
	st.AddListing(100, 1)

	rooms := NewRoomService(st, st)
	chat := NewChatService(st, st, 0)
	unread := NewUnreadService(st)
	ctx := context.Background()

	roomID, err := rooms.GetOrCreateRoom(ctx, 100, 2)
	if err != nil {
		t.Fatalf("room: %v", err)
	}
	if _, err := chat.Send(ctx, roomID, 2, domain.MessageText, "ping"); err != nil {
		t.Fatalf("send: %v", err)
	}

	n, err := unread.UnreadCountForRoom(ctx, 1, roomID)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}
	rooms1, err := unread.UnreadRoomsCount(ctx, 1)
	if err != nil {
		t.Fatalf("badge: %v", err)
	}
	if rooms1 != 1 {
		t.Fatalf("expected badge 1, got %d", rooms1)
	}

	if err := unread.MarkRead(ctx, roomID, 1); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, _ = unread.UnreadCountForRoom(ctx, 1, roomID)
	if n != 0 {
		t.Fatalf("expected 0 after mark read, got %d", n)
	}
	rooms1, _ = unread.UnreadRoomsCount(ctx, 1)
	if rooms1 != 0 {
		t.Fatalf("expected badge 0 after mark read, got %d", rooms1)
	}
}

func TestMarkRead_NonMember(t *testing.T) {
	st := memstore.New()
	st.AddUser(1, "seller")
	st.AddUser(2, "buyer")
	st.AddListing(100, 1)

	rooms := NewRoomService(st, st)
	unread := NewUnreadService(st)
	ctx := context.Background()

	roomID, err := rooms.GetOrCreateRoom(ctx, 100, 2)
	if err != nil {
		t.Fatalf("room: %v", err)
	}
	if err := unread.MarkRead(ctx, roomID, 42); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

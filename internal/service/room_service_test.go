package service

import (
	"context"
	"errors"
	"testing"

	"github.com/moamarket/chat-service/internal/domain"
	"github.com/moamarket/chat-service/internal/memstore"
)

func newRoomFixture(t *testing.T) (*RoomService, *memstore.MemStore) {
	t.Helper()
	st := memstore.New()
	st.AddUser(1, "seller")
	st.AddUser(2, "buyer")
	st.AddListing(100, 1)
	return NewRoomService(st, st), st
}

func TestGetOrCreateRoom_ReusesExisting(t *testing.T) {
	svc, _ := newRoomFixture(t)
	ctx := context.Background()

	id1, err := svc.GetOrCreateRoom(ctx, 100, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id2, err := svc.GetOrCreateRoom(ctx, 100, 2)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("repeat call must return the same room: %d vs %d", id1, id2)
	}
}

func TestGetOrCreateRoom_SelfChatForbidden(t *testing.T) {
	svc, _ := newRoomFixture(t)

	if _, err := svc.GetOrCreateRoom(context.Background(), 100, 1); !errors.Is(err, domain.ErrSelfChat) {
		t.Fatalf("expected ErrSelfChat for the listing owner, got %v", err)
	}
}

func TestGetOrCreateRoom_UnknownListing(t *testing.T) {
	svc, _ := newRoomFixture(t)

	if _, err := svc.GetOrCreateRoom(context.Background(), 999, 2); !errors.Is(err, domain.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestLeave_NonMember(t *testing.T) {
	svc, _ := newRoomFixture(t)
	ctx := context.Background()

	roomID, err := svc.GetOrCreateRoom(ctx, 100, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Leave(ctx, roomID, 42); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := svc.Leave(ctx, roomID, 2); err != nil {
		t.Fatalf("member leave: %v", err)
	}
	// повторный leave — уже не участник
	if err := svc.Leave(ctx, roomID, 2); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("expected ErrNotMember on double leave, got %v", err)
	}
}

package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moamarket/chat-service/internal/domain"
)

// MemStore — хранилище в памяти для dev-профиля и тестов. Реализует
// store.Store и оба коллаборатора (ListingDirectory, UserDirectory).
// Ведёт себя как postgres-бекенд, только без durability.
type MemStore struct {
	mu sync.Mutex

	nextRoomID int64
	nextMsgID  int64

	rooms    map[int64]*domain.Room
	members  map[int64]map[int64]*domain.Membership // roomID -> userID -> membership
	messages map[int64][]domain.Message             // roomID -> ascending by id

	users         map[int64]string // userID -> nickname
	listingOwners map[int64]int64  // listingID -> ownerID
	listingViews  map[int64]int64
	postViews     map[int64]int64
}

func New() *MemStore {
	return &MemStore{
		rooms:         make(map[int64]*domain.Room),
		members:       make(map[int64]map[int64]*domain.Membership),
		messages:      make(map[int64][]domain.Message),
		users:         make(map[int64]string),
		listingOwners: make(map[int64]int64),
		listingViews:  make(map[int64]int64),
		postViews:     make(map[int64]int64),
	}
}

func (s *MemStore) Close()                       {}
func (s *MemStore) Ping(_ context.Context) error { return nil }

// --- seed-данные для dev/tests ---

func (s *MemStore) AddUser(id int64, nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = nickname
}

func (s *MemStore) AddListing(id, ownerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listingOwners[id] = ownerID
}

// --- коллабораторы ---

func (s *MemStore) OwnerID(_ context.Context, listingID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.listingOwners[listingID]
	if !ok {
		return 0, domain.ErrListingNotFound
	}
	return owner, nil
}

func (s *MemStore) Nickname(_ context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nick, ok := s.users[userID]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return nick, nil
}

// --- rooms & memberships ---

func (s *MemStore) FindRoomByListingAndMembers(_ context.Context, listingID, userA, userB int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findRoomLocked(listingID, userA, userB)
}

func (s *MemStore) findRoomLocked(listingID, userA, userB int64) (int64, error) {
	for id, r := range s.rooms {
		if r.ListingID != listingID {
			continue
		}
		ms := s.members[id]
		if _, okA := ms[userA]; !okA {
			continue
		}
		if _, okB := ms[userB]; !okB {
			continue
		}
		return id, nil
	}
	return 0, domain.ErrRoomNotFound
}

func (s *MemStore) CreateRoomWithMembers(_ context.Context, listingID, userA, userB int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// идемпотентность конкурирующих вызовов: find-or-create под одним локом
	if id, err := s.findRoomLocked(listingID, userA, userB); err == nil {
		return id, nil
	}

	s.nextRoomID++
	id := s.nextRoomID
	now := time.Now()
	s.rooms[id] = &domain.Room{ID: id, ListingID: listingID, CreatedAt: now}
	s.members[id] = map[int64]*domain.Membership{
		userA: {RoomID: id, UserID: userA, JoinedAt: now},
		userB: {RoomID: id, UserID: userB, JoinedAt: now},
	}
	return id, nil
}

func (s *MemStore) GetRoom(_ context.Context, roomID int64) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) IsMember(_ context.Context, roomID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[roomID][userID]
	return ok, nil
}

func (s *MemStore) ListMemberIDs(_ context.Context, roomID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.members[roomID]
	ids := make([]int64, 0, len(ms))
	for id := range ms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemStore) RemoveMember(_ context.Context, roomID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.members[roomID]
	if _, ok := ms[userID]; !ok {
		return domain.ErrNotMember
	}
	delete(ms, userID)
	return nil
}

func (s *MemStore) ListRoomSummaries(_ context.Context, userID int64) ([]domain.RoomSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.RoomSummary
	for roomID, ms := range s.members {
		me, ok := ms[userID]
		if !ok {
			continue
		}
		sm := domain.RoomSummary{
			RoomID:    roomID,
			ListingID: s.rooms[roomID].ListingID,
		}
		for otherID := range ms {
			if otherID != userID {
				sm.OtherUserID = otherID
				sm.OtherNickname = s.users[otherID]
			}
		}
		msgs := s.messages[roomID]
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			content, at := last.Content, last.CreatedAt
			sm.LastMessage = &content
			sm.LastAt = &at
		}
		sm.UnreadCount = unreadLocked(msgs, me)
		out = append(out, sm)
	}

	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastAt, out[j].LastAt
		switch {
		case li == nil && lj == nil:
			return out[i].RoomID > out[j].RoomID
		case li == nil:
			return false
		case lj == nil:
			return true
		case li.Equal(*lj):
			return out[i].RoomID > out[j].RoomID
		default:
			return li.After(*lj)
		}
	})
	return out, nil
}

func (s *MemStore) GetRoomDetail(_ context.Context, roomID, userID int64) (*domain.RoomDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	ms := s.members[roomID]
	if _, ok := ms[userID]; !ok {
		return nil, domain.ErrRoomNotFound
	}
	d := &domain.RoomDetail{
		RoomID:         roomID,
		ListingID:      r.ListingID,
		IsListingOwner: s.listingOwners[r.ListingID] == userID,
	}
	for otherID := range ms {
		if otherID != userID {
			d.OtherUserID = otherID
			d.OtherNickname = s.users[otherID]
		}
	}
	return d, nil
}

// --- message ledger ---

func (s *MemStore) AppendMessage(_ context.Context, roomID, senderID int64, t domain.MessageType, content string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, domain.ErrRoomNotFound
	}
	if _, ok := s.members[roomID][senderID]; !ok {
		return nil, domain.ErrNotMember
	}

	s.nextMsgID++
	m := domain.Message{
		ID:        s.nextMsgID,
		RoomID:    roomID,
		SenderID:  senderID,
		Type:      t,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.messages[roomID] = append(s.messages[roomID], m)
	return &m, nil
}

func (s *MemStore) PageMessages(_ context.Context, roomID int64, limit int, beforeID int64) ([]domain.Message, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[roomID]
	end := len(msgs)
	if beforeID > 0 {
		// первая позиция с id >= beforeID; сообщения идут по возрастанию id
		end = sort.Search(len(msgs), func(i int) bool { return msgs[i].ID >= beforeID })
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]domain.Message, end-start)
	copy(out, msgs[start:end])
	return out, nil
}

func (s *MemStore) GetMessage(_ context.Context, id int64) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msgs := range s.messages {
		for i := range msgs {
			if msgs[i].ID == id {
				cp := msgs[i]
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrMessageNotFound
}

// --- read cursors / unread ---

func (s *MemStore) MarkRead(_ context.Context, roomID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.members[roomID][userID]
	if !ok {
		return domain.ErrNotMember
	}
	msgs := s.messages[roomID]
	if len(msgs) == 0 {
		me.LastReadMessageID = nil
		return nil
	}
	maxID := msgs[len(msgs)-1].ID
	me.LastReadMessageID = &maxID
	return nil
}

func (s *MemStore) UnreadCount(_ context.Context, roomID, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.members[roomID][userID]
	if !ok {
		return 0, domain.ErrNotMember
	}
	return unreadLocked(s.messages[roomID], me), nil
}

func unreadLocked(msgs []domain.Message, me *domain.Membership) int {
	var cursor int64
	if me.LastReadMessageID != nil {
		cursor = *me.LastReadMessageID
	}
	n := 0
	for i := range msgs {
		if msgs[i].SenderID != me.UserID && msgs[i].ID > cursor {
			n++
		}
	}
	return n
}

func (s *MemStore) CountRoomsWithUnread(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for roomID, ms := range s.members {
		me, ok := ms[userID]
		if !ok {
			continue
		}
		msgs := s.messages[roomID]
		if len(msgs) == 0 {
			continue
		}
		last := msgs[len(msgs)-1]
		var cursor int64
		if me.LastReadMessageID != nil {
			cursor = *me.LastReadMessageID
		}
		if last.SenderID != userID && last.ID > cursor {
			n++
		}
	}
	return n, nil
}

// --- view counters ---

func (s *MemStore) IncrementListingViews(_ context.Context, listingID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listingViews[listingID]++
	return s.listingViews[listingID], nil
}

func (s *MemStore) IncrementCommunityPostViews(_ context.Context, postID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postViews[postID]++
	return s.postViews[postID], nil
}

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moamarket/chat-service/internal/memstore"
	"github.com/moamarket/chat-service/internal/security"
	"github.com/moamarket/chat-service/internal/service"
	"github.com/moamarket/chat-service/internal/transport/ws"
	"github.com/moamarket/chat-service/internal/viewdedup"
)

type apiFixture struct {
	srv    *httptest.Server
	tokens *security.TokenVerifier
	store  *memstore.MemStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	st := memstore.New()
	st.AddUser(1, "seller")
	st.AddUser(2, "buyer")
	st.AddListing(100, 1)

	rooms := service.NewRoomService(st, st)
	chat := service.NewChatService(st, st, 0)
	unread := service.NewUnreadService(st)
	views := service.NewViewService(st, viewdedup.New(), time.Minute)
	tokens := security.NewTokenVerifier("test-secret", "moamarket", time.Hour)

	wsServer := ws.NewServer(ws.NewHub(), rooms, chat, st, tokens)
	h := NewHandler(rooms, chat, unread, views, wsServer)
	srv := httptest.NewServer(NewRouter(h, tokens, wsServer))
	t.Cleanup(srv.Close)

	return &apiFixture{srv: srv, tokens: tokens, store: st}
}

func (f *apiFixture) do(t *testing.T, userID int64, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID > 0 {
		token, err := f.tokens.Mint(userID, time.Now())
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func (f *apiFixture) createRoom(t *testing.T, userID, listingID int64) int64 {
	t.Helper()
	resp := f.do(t, userID, http.MethodPost, "/chat/rooms", CreateRoomRequest{ListingID: listingID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create room: status %d", resp.StatusCode)
	}
	return decodeBody[CreateRoomResponse](t, resp).RoomID
}

func TestAPI_RequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, 0, http.MethodGet, "/chat/rooms", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestAPI_CreateRoom(t *testing.T) {
	f := newAPIFixture(t)

	id1 := f.createRoom(t, 2, 100)
	id2 := f.createRoom(t, 2, 100)
	if id1 != id2 {
		t.Fatalf("repeat create must return the same room: %d vs %d", id1, id2)
	}

	// владелец своего объявления
	resp := f.do(t, 1, http.MethodPost, "/chat/rooms", CreateRoomRequest{ListingID: 100})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for self chat, got %d", resp.StatusCode)
	}

	resp = f.do(t, 2, http.MethodPost, "/chat/rooms", CreateRoomRequest{ListingID: 999})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown listing, got %d", resp.StatusCode)
	}
}

func TestAPI_SendAndListMessages(t *testing.T) {
	f := newAPIFixture(t)
	roomID := f.createRoom(t, 2, 100)
	base := fmt.Sprintf("/chat/rooms/%d", roomID)

	resp := f.do(t, 2, http.MethodPost, base+"/messages", SendMessageRequest{Content: "hello"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: status %d", resp.StatusCode)
	}
	sent := decodeBody[SendMessageResponse](t, resp)
	if sent.MessageID == 0 {
		t.Fatalf("message id missing")
	}

	resp = f.do(t, 1, http.MethodGet, base+"/messages", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	msgs := decodeBody[MessagesResponse](t, resp).Messages
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.ID != sent.MessageID || m.UserID != 2 || m.Nickname != "buyer" || m.Content != "hello" || m.MessageType != "text" {
		t.Fatalf("wire message mismatch: %+v", m)
	}
	if _, err := time.Parse(time.RFC3339, m.CreatedAt); err != nil {
		t.Fatalf("createdAt must be RFC3339: %q", m.CreatedAt)
	}

	// пустой контент
	resp = f.do(t, 2, http.MethodPost, base+"/messages", SendMessageRequest{Content: "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", resp.StatusCode)
	}

	// не участник
	resp = f.do(t, 2, http.MethodGet, "/chat/rooms/999/messages", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign room, got %d", resp.StatusCode)
	}
}

func TestAPI_MessagesPagination(t *testing.T) {
	f := newAPIFixture(t)
	roomID := f.createRoom(t, 2, 100)
	base := fmt.Sprintf("/chat/rooms/%d", roomID)

	for i := 0; i < 5; i++ {
		resp := f.do(t, 2, http.MethodPost, base+"/messages", SendMessageRequest{Content: fmt.Sprintf("m%d", i)})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("send %d: status %d", i, resp.StatusCode)
		}
	}

	resp := f.do(t, 2, http.MethodGet, base+"/messages?limit=2", nil)
	page := decodeBody[MessagesResponse](t, resp).Messages
	if len(page) != 2 || page[0].Content != "m3" || page[1].Content != "m4" {
		t.Fatalf("latest page mismatch: %+v", page)
	}

	resp = f.do(t, 2, http.MethodGet, fmt.Sprintf(base+"/messages?limit=2&beforeId=%d", page[0].ID), nil)
	older := decodeBody[MessagesResponse](t, resp).Messages
	if len(older) != 2 || older[0].Content != "m1" || older[1].Content != "m2" {
		t.Fatalf("cursor page mismatch: %+v", older)
	}

	resp = f.do(t, 2, http.MethodGet, base+"/messages?beforeId=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", resp.StatusCode)
	}
}

func TestAPI_RoomListAndDetail(t *testing.T) {
	f := newAPIFixture(t)
	roomID := f.createRoom(t, 2, 100)

	resp := f.do(t, 2, http.MethodPost, fmt.Sprintf("/chat/rooms/%d/messages", roomID), SendMessageRequest{Content: "hi"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: status %d", resp.StatusCode)
	}

	resp = f.do(t, 1, http.MethodGet, "/chat/rooms", nil)
	rooms := decodeBody[RoomListResponse](t, resp).Rooms
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	r := rooms[0]
	if r.RoomID != roomID || r.OtherUserID != 2 || r.OtherNickname != "buyer" || r.UnreadCount != 1 {
		t.Fatalf("room summary mismatch: %+v", r)
	}
	if r.LastMessage == nil || *r.LastMessage != "hi" || r.LastAt == nil {
		t.Fatalf("preview mismatch: %+v", r)
	}

	resp = f.do(t, 1, http.MethodGet, fmt.Sprintf("/chat/rooms/%d", roomID), nil)
	d := decodeBody[RoomDetailResponse](t, resp)
	if !d.IsListingOwner || d.UnreadCount != 1 || d.OtherNickname != "buyer" {
		t.Fatalf("detail mismatch: %+v", d)
	}
}

func TestAPI_MarkReadAndNotifications(t *testing.T) {
	f := newAPIFixture(t)
	roomID := f.createRoom(t, 2, 100)
	base := fmt.Sprintf("/chat/rooms/%d", roomID)

	resp := f.do(t, 2, http.MethodPost, base+"/messages", SendMessageRequest{Content: "hi"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: status %d", resp.StatusCode)
	}

	resp = f.do(t, 1, http.MethodGet, "/notifications/counts", nil)
	counts := decodeBody[NotificationCountsResponse](t, resp)
	if counts.ChatUnreadCount != 1 {
		t.Fatalf("expected badge 1, got %d", counts.ChatUnreadCount)
	}

	resp = f.do(t, 1, http.MethodPost, base+"/read", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read: status %d", resp.StatusCode)
	}

	resp = f.do(t, 1, http.MethodGet, "/notifications/counts", nil)
	counts = decodeBody[NotificationCountsResponse](t, resp)
	if counts.ChatUnreadCount != 0 {
		t.Fatalf("expected badge 0 after read, got %d", counts.ChatUnreadCount)
	}
}

func TestAPI_LeaveRoom(t *testing.T) {
	f := newAPIFixture(t)
	roomID := f.createRoom(t, 2, 100)
	base := fmt.Sprintf("/chat/rooms/%d", roomID)

	resp := f.do(t, 2, http.MethodPost, base+"/leave", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leave: status %d", resp.StatusCode)
	}
	// ушедший больше не пишет
	resp = f.do(t, 2, http.MethodPost, base+"/messages", SendMessageRequest{Content: "hi"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 after leave, got %d", resp.StatusCode)
	}
	// повторный контакт — новая комната
	id2 := f.createRoom(t, 2, 100)
	if id2 == roomID {
		t.Fatalf("re-contact must create a new room")
	}
}

func TestAPI_Appointments(t *testing.T) {
	f := newAPIFixture(t)
	roomID := f.createRoom(t, 2, 100)
	base := fmt.Sprintf("/chat/rooms/%d/appointments", roomID)
	appt := CreateAppointmentRequest{Date: "2026-09-01", Time: "14:30", Place: "cafe"}

	// только владелец объявления
	resp := f.do(t, 2, http.MethodPost, base, appt)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for the buyer, got %d", resp.StatusCode)
	}

	resp = f.do(t, 1, http.MethodPost, base, appt)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("owner appointment: status %d", resp.StatusCode)
	}

	resp = f.do(t, 1, http.MethodPost, base, CreateAppointmentRequest{Date: "2026-09-01"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete appointment, got %d", resp.StatusCode)
	}

	// встреча едет через общую ленту
	resp = f.do(t, 2, http.MethodGet, fmt.Sprintf("/chat/rooms/%d/messages", roomID), nil)
	msgs := decodeBody[MessagesResponse](t, resp).Messages
	if len(msgs) != 1 || msgs[0].MessageType != "appointment" {
		t.Fatalf("appointment must land in the ledger: %+v", msgs)
	}
}

func TestAPI_ViewCounters(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, 2, http.MethodPost, "/listings/100/views", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view: status %d", resp.StatusCode)
	}
	v := decodeBody[ViewResponse](t, resp)
	if !v.Counted || v.ViewCount != 1 {
		t.Fatalf("first view must count: %+v", v)
	}

	// повтор внутри окна
	resp = f.do(t, 2, http.MethodPost, "/listings/100/views", nil)
	v = decodeBody[ViewResponse](t, resp)
	if v.Counted {
		t.Fatalf("repeat view must be deduplicated: %+v", v)
	}

	// другой пользователь — отдельный зритель
	resp = f.do(t, 1, http.MethodPost, "/listings/100/views", nil)
	v = decodeBody[ViewResponse](t, resp)
	if !v.Counted || v.ViewCount != 2 {
		t.Fatalf("another viewer must count: %+v", v)
	}

	// посты сообщества считаются независимо
	resp = f.do(t, 2, http.MethodPost, "/community/posts/100/views", nil)
	v = decodeBody[ViewResponse](t, resp)
	if !v.Counted || v.ViewCount != 1 {
		t.Fatalf("post counter must be independent: %+v", v)
	}
}

func TestAPI_Healthz(t *testing.T) {
	f := newAPIFixture(t)

	resp, err := http.Get(f.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.StatusCode)
	}
}

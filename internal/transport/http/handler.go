package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/moamarket/chat-service/internal/domain"
	"github.com/moamarket/chat-service/internal/service"
	httpmw "github.com/moamarket/chat-service/internal/transport/http/middleware"
	"github.com/moamarket/chat-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc   *service.RoomService
	chatSvc   *service.ChatService
	unreadSvc *service.UnreadService
	viewSvc   *service.ViewService
	wsSrv     *ws.Server
}

func NewHandler(room *service.RoomService, chat *service.ChatService, unread *service.UnreadService, views *service.ViewService, wsSrv *ws.Server) *Handler {
	return &Handler{
		roomSvc:   room,
		chatSvc:   chat,
		unreadSvc: unread,
		viewSvc:   views,
		wsSrv:     wsSrv,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, op string, err error) {
	status := toHTTP(err)
	if status >= 500 {
		slog.Error("handler."+op, slog.Any("err", err))
	}
	writeJSON(w, status, ErrorResponse{Message: publicMessage(err, status)})
}

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// POST /chat/rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListingID < 1 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "listingId is required"})
		return
	}

	roomID, err := h.roomSvc.GetOrCreateRoom(r.Context(), req.ListingID, userID)
	if err != nil {
		writeErr(w, "CreateRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, CreateRoomResponse{RoomID: roomID})
}

// GET /chat/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	items, err := h.roomSvc.ListRooms(r.Context(), userID)
	if err != nil {
		writeErr(w, "ListRooms", err)
		return
	}
	resp := RoomListResponse{Rooms: make([]RoomListItem, 0, len(items))}
	for _, it := range items {
		var lastAt *string
		if it.LastAt != nil {
			s := it.LastAt.UTC().Format(time.RFC3339)
			lastAt = &s
		}
		resp.Rooms = append(resp.Rooms, RoomListItem{
			RoomID:        it.RoomID,
			ListingID:     it.ListingID,
			OtherUserID:   it.OtherUserID,
			OtherNickname: it.OtherNickname,
			LastMessage:   it.LastMessage,
			LastAt:        lastAt,
			UnreadCount:   it.UnreadCount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /chat/rooms/{roomID}
func (h *Handler) RoomDetail(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	roomID, ok := urlID(r, "roomID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid room id"})
		return
	}

	d, err := h.roomSvc.RoomDetail(r.Context(), roomID, userID)
	if err != nil {
		writeErr(w, "RoomDetail", err)
		return
	}
	unread, err := h.unreadSvc.UnreadCountForRoom(r.Context(), userID, roomID)
	if err != nil {
		writeErr(w, "RoomDetail", err)
		return
	}
	writeJSON(w, http.StatusOK, RoomDetailResponse{
		RoomID:         d.RoomID,
		ListingID:      d.ListingID,
		OtherUserID:    d.OtherUserID,
		OtherNickname:  d.OtherNickname,
		IsListingOwner: d.IsListingOwner,
		UnreadCount:    unread,
	})
}

// GET /chat/rooms/{roomID}/messages?limit=&beforeId=
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	roomID, ok := urlID(r, "roomID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid room id"})
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	var beforeID int64
	if s := r.URL.Query().Get("beforeId"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid beforeId"})
			return
		}
		beforeID = n
	}

	msgs, err := h.chatSvc.History(r.Context(), roomID, userID, limit, beforeID)
	if err != nil {
		writeErr(w, "GetMessages", err)
		return
	}
	resp := MessagesResponse{Messages: make([]ws.WireMessage, 0, len(msgs))}
	for i := range msgs {
		resp.Messages = append(resp.Messages, h.wsSrv.Wire(r.Context(), &msgs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /chat/rooms/{roomID}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	roomID, ok := urlID(r, "roomID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid room id"})
		return
	}
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}

	t := domain.MessageText
	if req.Type == string(domain.MessageImage) {
		t = domain.MessageImage
	}
	m, err := h.chatSvc.Send(r.Context(), roomID, userID, t, req.Content)
	if err != nil {
		writeErr(w, "SendMessage", err)
		return
	}
	h.wsSrv.PublishMessage(r.Context(), m)
	writeJSON(w, http.StatusCreated, SendMessageResponse{MessageID: m.ID})
}

// POST /chat/rooms/{roomID}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	roomID, ok := urlID(r, "roomID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid room id"})
		return
	}

	if err := h.unreadSvc.MarkRead(r.Context(), roomID, userID); err != nil {
		writeErr(w, "MarkRead", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// POST /chat/rooms/{roomID}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	roomID, ok := urlID(r, "roomID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid room id"})
		return
	}

	if err := h.roomSvc.Leave(r.Context(), roomID, userID); err != nil {
		writeErr(w, "LeaveRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "left"})
}

// POST /chat/rooms/{roomID}/appointments
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	roomID, ok := urlID(r, "roomID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid room id"})
		return
	}
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}

	m, err := h.chatSvc.CreateAppointment(r.Context(), roomID, userID, domain.Appointment{
		Date:  req.Date,
		Time:  req.Time,
		Place: req.Place,
	})
	if err != nil {
		writeErr(w, "CreateAppointment", err)
		return
	}
	// встреча — такое же сообщение: канал комнаты + бейджи участников
	h.wsSrv.PublishMessage(r.Context(), m)
	writeJSON(w, http.StatusCreated, SendMessageResponse{MessageID: m.ID})
}

// GET /notifications/counts
func (h *Handler) NotificationCounts(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	n, err := h.unreadSvc.UnreadRoomsCount(r.Context(), userID)
	if err != nil {
		writeErr(w, "NotificationCounts", err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationCountsResponse{ChatUnreadCount: n})
}

// POST /listings/{listingID}/views
func (h *Handler) RegisterListingView(w http.ResponseWriter, r *http.Request) {
	h.registerView(w, r, "listingID", h.viewSvc.RegisterListingView)
}

// POST /community/posts/{postID}/views
func (h *Handler) RegisterCommunityPostView(w http.ResponseWriter, r *http.Request) {
	h.registerView(w, r, "postID", h.viewSvc.RegisterCommunityPostView)
}

func (h *Handler) registerView(w http.ResponseWriter, r *http.Request, param string,
	register func(ctx context.Context, contentID, viewerUserID int64, remoteAddr string) (bool, int64, error)) {

	contentID, ok := urlID(r, param)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
		return
	}
	userID := httpmw.UserIDFromCtx(r.Context())

	counted, viewCount, err := register(r.Context(), contentID, userID, r.RemoteAddr)
	if err != nil {
		writeErr(w, "RegisterView", err)
		return
	}
	writeJSON(w, http.StatusOK, ViewResponse{Counted: counted, ViewCount: viewCount})
}

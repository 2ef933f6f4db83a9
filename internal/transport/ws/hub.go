package ws

import (
	"sync"

	"github.com/moamarket/chat-service/internal/metrics"
)

// Hub держит два вида каналов: broadcast по комнатам и личный канал
// пользователя (все его устройства). Отправка неблокирующая: переполненный
// буфер соединения — кадр дропается, медленный клиент не тормозит остальных.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*Client]struct{} // roomID -> connections
	users map[int64]map[*Client]struct{} // userID -> connections (multi-device)
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[int64]map[*Client]struct{}),
		users: make(map[int64]map[*Client]struct{}),
	}
}

// Register подписывает соединение на личный канал его пользователя.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	us, ok := h.users[c.userID]
	if !ok {
		us = make(map[*Client]struct{})
		h.users[c.userID] = us
	}
	us[c] = struct{}{}
	metrics.WSConnections.Inc()
}

// Unregister снимает соединение со всех каналов.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if us, ok := h.users[c.userID]; ok {
		if _, in := us[c]; in {
			delete(us, c)
			metrics.WSConnections.Dec()
		}
		if len(us) == 0 {
			delete(h.users, c.userID)
		}
	}
	for roomID := range c.joined {
		h.leaveLocked(c, roomID)
	}
}

func (h *Hub) JoinRoom(c *Client, roomID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[*Client]struct{})
		h.rooms[roomID] = rs
	}
	rs[c] = struct{}{}
	c.joined[roomID] = struct{}{}
}

func (h *Hub) LeaveRoom(c *Client, roomID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, roomID)
}

func (h *Hub) leaveLocked(c *Client, roomID int64) {
	if rs, ok := h.rooms[roomID]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(c.joined, roomID)
}

// BroadcastRoom шлёт msg всем подписчикам комнаты, включая отправителя.
func (h *Hub) BroadcastRoom(roomID int64, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[roomID] {
		c.trySend(msg)
	}
}

// NotifyUsers шлёт msg в личные каналы перечисленных пользователей; каждое
// устройство получает свою копию.
func (h *Hub) NotifyUsers(userIDs []int64, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range userIDs {
		for c := range h.users[id] {
			c.trySend(msg)
		}
	}
}

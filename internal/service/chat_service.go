package service

import (
	"context"
	"strings"

	"github.com/moamarket/chat-service/internal/domain"
	"github.com/moamarket/chat-service/internal/metrics"
	"github.com/moamarket/chat-service/internal/store"
)

type ChatService struct {
	st       store.Store
	listings store.ListingDirectory

	maxMessageLen int
}

func NewChatService(st store.Store, listings store.ListingDirectory, maxMessageLen int) *ChatService {
	if maxMessageLen <= 0 {
		maxMessageLen = 4000
	}
	return &ChatService{st: st, listings: listings, maxMessageLen: maxMessageLen}
}

// Send валидирует и дописывает сообщение в ленту комнаты. Членство
// перепроверяется хранилищем атомарно со вставкой.
func (s *ChatService) Send(ctx context.Context, roomID, senderID int64, t domain.MessageType, content string) (*domain.Message, error) {
	switch t {
	case domain.MessageText, domain.MessageImage:
		content = strings.TrimSpace(content)
		if content == "" {
			return nil, domain.ErrEmptyContent
		}
	case domain.MessageAppointment:
		// собирается только через CreateAppointment
	default:
		return nil, domain.ErrInvalidMessageType
	}
	if len(content) > s.maxMessageLen {
		return nil, domain.ErrContentTooLong
	}
	msg, err := s.st.AppendMessage(ctx, roomID, senderID, t, content)
	if err != nil {
		return nil, err
	}
	metrics.MessagesAppended.WithLabelValues(string(t)).Inc()
	return msg, nil
}

// History — membership-gate плюс обратная пагинация; наружу всегда ASC.
func (s *ChatService) History(ctx context.Context, roomID, userID int64, limit int, beforeID int64) ([]domain.Message, error) {
	ok, err := s.st.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotMember
	}
	return s.st.PageMessages(ctx, roomID, limit, beforeID)
}

func (s *ChatService) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	return s.st.GetMessage(ctx, id)
}

// CreateAppointment — встречу предлагает только владелец объявления.
// Контент — JSON {date,time,place}, едет через общую ленту.
func (s *ChatService) CreateAppointment(ctx context.Context, roomID, userID int64, appt domain.Appointment) (*domain.Message, error) {
	appt = appt.Normalize()
	if err := appt.Validate(); err != nil {
		return nil, err
	}

	ok, err := s.st.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotMember
	}

	room, err := s.st.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ownerID, err := s.listings.OwnerID(ctx, room.ListingID)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, domain.ErrNotListingOwner
	}

	content, err := appt.Encode()
	if err != nil {
		return nil, err
	}
	msg, err := s.st.AppendMessage(ctx, roomID, userID, domain.MessageAppointment, content)
	if err != nil {
		return nil, err
	}
	metrics.MessagesAppended.WithLabelValues(string(domain.MessageAppointment)).Inc()
	return msg, nil
}

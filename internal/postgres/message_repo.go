package postgres

import (
	"context"
	"errors"

	"github.com/moamarket/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore реализует store.Store поверх pgxpool.
type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Close()                         { s.db.Close() }
func (s *PGStore) Ping(ctx context.Context) error { return Ping(ctx, s.db) }

// AppendMessage — вставка с перепроверкой членства в том же стейтменте.
// Гонка leave/send закрывается здесь: нет membership — нет строки.
func (s *PGStore) AppendMessage(ctx context.Context, roomID, senderID int64, t domain.MessageType, content string) (*domain.Message, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO chat_messages (room_id, sender_id, message_type, content)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (SELECT 1 FROM chat_room_members WHERE room_id=$1 AND user_id=$2)
		RETURNING id, room_id, sender_id, message_type, content, created_at
	`, roomID, senderID, string(t), content)

	var m domain.Message
	if err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Type, &m.Content, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotMember
		}
		return nil, err
	}
	return &m, nil
}

// PageMessages — обратная курсорная пагинация по id; результат отдаётся по
// возрастанию, готовый к рендеру сверху вниз.
func (s *PGStore) PageMessages(ctx context.Context, roomID int64, limit int, beforeID int64) ([]domain.Message, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	var beforeArg any
	if beforeID > 0 {
		beforeArg = beforeID
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, room_id, sender_id, message_type, content, created_at
		FROM chat_messages
		WHERE room_id = $1 AND ($2::bigint IS NULL OR id < $2)
		ORDER BY id DESC
		LIMIT $3
	`, roomID, beforeArg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Type, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DESC из базы -> ASC наружу
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *PGStore) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	var m domain.Message
	err := s.db.QueryRow(ctx, `
		SELECT id, room_id, sender_id, message_type, content, created_at
		FROM chat_messages WHERE id=$1
	`, id).Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Type, &m.Content, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

// MarkRead двигает курсор на текущий максимум комнаты, не на «сколько
// клиент успел отрисовать».
func (s *PGStore) MarkRead(ctx context.Context, roomID, userID int64) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE chat_room_members
		SET last_read_message_id = (SELECT MAX(id) FROM chat_messages WHERE room_id=$1)
		WHERE room_id=$1 AND user_id=$2
	`, roomID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotMember
	}
	return nil
}

func (s *PGStore) UnreadCount(ctx context.Context, roomID, userID int64) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM chat_messages m
		JOIN chat_room_members me ON me.room_id = m.room_id AND me.user_id = $2
		WHERE m.room_id = $1 AND m.sender_id <> $2
		  AND (me.last_read_message_id IS NULL OR m.id > me.last_read_message_id)
	`, roomID, userID).Scan(&n)
	return n, err
}

// CountRoomsWithUnread — сколько комнат «горят» для бейджа: последнее
// сообщение не от меня и его id выше моего курсора.
func (s *PGStore) CountRoomsWithUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM chat_room_members me
		JOIN LATERAL (
			SELECT id, sender_id FROM chat_messages
			WHERE room_id = me.room_id ORDER BY id DESC LIMIT 1
		) last ON true
		WHERE me.user_id = $1
		  AND last.sender_id <> $1
		  AND (me.last_read_message_id IS NULL OR last.id > me.last_read_message_id)
	`, userID).Scan(&n)
	return n, err
}

func (s *PGStore) IncrementListingViews(ctx context.Context, listingID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		`UPDATE listings SET view_count = view_count + 1 WHERE id=$1 RETURNING view_count`,
		listingID).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrListingNotFound
		}
		return 0, err
	}
	return n, nil
}

func (s *PGStore) IncrementCommunityPostViews(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		`UPDATE community_posts SET view_count = view_count + 1 WHERE id=$1 RETURNING view_count`,
		postID).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrListingNotFound
		}
		return 0, err
	}
	return n, nil
}

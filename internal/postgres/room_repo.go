package postgres

import (
	"context"
	"errors"

	"github.com/moamarket/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Часть Store про комнаты и членство. Схема: chat_rooms, chat_room_members
// (см. schema.sql).

func (s *PGStore) FindRoomByListingAndMembers(ctx context.Context, listingID, userA, userB int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		SELECT r.id FROM chat_rooms r
		JOIN chat_room_members m1 ON m1.room_id = r.id AND m1.user_id = $1
		JOIN chat_room_members m2 ON m2.room_id = r.id AND m2.user_id = $2
		WHERE r.listing_id = $3
		LIMIT 1
	`, userA, userB, listingID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrRoomNotFound
		}
		return 0, err
	}
	return id, nil
}

// CreateRoomWithMembers — комната и оба membership в одной транзакции.
// Advisory-lock по (listing, pair) схлопывает конкурирующие создания: вторая
// транзакция дождётся первой и увидит уже существующую комнату.
func (s *PGStore) CreateRoomWithMembers(ctx context.Context, listingID, userA, userB int64) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text || ':' || $3::text, 0))`,
		listingID, lo, hi); err != nil {
		return 0, err
	}

	// перепроверка под локом
	var id int64
	err = tx.QueryRow(ctx, `
		SELECT r.id FROM chat_rooms r
		JOIN chat_room_members m1 ON m1.room_id = r.id AND m1.user_id = $1
		JOIN chat_room_members m2 ON m2.room_id = r.id AND m2.user_id = $2
		WHERE r.listing_id = $3
		LIMIT 1
	`, userA, userB, listingID).Scan(&id)
	if err == nil {
		return id, tx.Commit(ctx)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO chat_rooms (listing_id) VALUES ($1) RETURNING id`,
		listingID).Scan(&id); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO chat_room_members (room_id, user_id) VALUES ($1, $2), ($1, $3)`,
		id, userA, userB); err != nil {
		return 0, err
	}

	return id, tx.Commit(ctx)
}

func (s *PGStore) GetRoom(ctx context.Context, roomID int64) (*domain.Room, error) {
	var rm domain.Room
	err := s.db.QueryRow(ctx,
		`SELECT id, listing_id, created_at FROM chat_rooms WHERE id=$1`,
		roomID).Scan(&rm.ID, &rm.ListingID, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (s *PGStore) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_room_members WHERE room_id=$1 AND user_id=$2)`,
		roomID, userID).Scan(&exists)
	return exists, err
}

func (s *PGStore) ListMemberIDs(ctx context.Context, roomID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id FROM chat_room_members WHERE room_id=$1 ORDER BY user_id`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RemoveMember удаляет только membership: комната и сообщения остаются.
func (s *PGStore) RemoveMember(ctx context.Context, roomID, userID int64) error {
	cmd, err := s.db.Exec(ctx,
		`DELETE FROM chat_room_members WHERE room_id=$1 AND user_id=$2`,
		roomID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotMember
	}
	return nil
}

func (s *PGStore) ListRoomSummaries(ctx context.Context, userID int64) ([]domain.RoomSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.listing_id,
		       o.user_id,
		       COALESCE(u.nickname, ''),
		       last.content, last.created_at,
		       (SELECT COUNT(*) FROM chat_messages msg
		         WHERE msg.room_id = r.id AND msg.sender_id <> $1
		           AND (me.last_read_message_id IS NULL OR msg.id > me.last_read_message_id))
		FROM chat_rooms r
		JOIN chat_room_members me ON me.room_id = r.id AND me.user_id = $1
		JOIN chat_room_members o  ON o.room_id = r.id AND o.user_id <> $1
		LEFT JOIN users u ON u.id = o.user_id
		LEFT JOIN LATERAL (
			SELECT content, created_at FROM chat_messages
			WHERE room_id = r.id ORDER BY id DESC LIMIT 1
		) last ON true
		ORDER BY last.created_at DESC NULLS LAST, r.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomSummary
	for rows.Next() {
		var sm domain.RoomSummary
		if err := rows.Scan(&sm.RoomID, &sm.ListingID, &sm.OtherUserID,
			&sm.OtherNickname, &sm.LastMessage, &sm.LastAt, &sm.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *PGStore) GetRoomDetail(ctx context.Context, roomID, userID int64) (*domain.RoomDetail, error) {
	var d domain.RoomDetail
	var ownerID int64
	err := s.db.QueryRow(ctx, `
		SELECT r.id, r.listing_id, o.user_id, COALESCE(u.nickname, ''), l.user_id
		FROM chat_rooms r
		JOIN chat_room_members me ON me.room_id = r.id AND me.user_id = $1
		JOIN chat_room_members o  ON o.room_id = r.id AND o.user_id <> $1
		JOIN listings l ON l.id = r.listing_id
		LEFT JOIN users u ON u.id = o.user_id
		WHERE r.id = $2
		LIMIT 1
	`, userID, roomID).Scan(&d.RoomID, &d.ListingID, &d.OtherUserID, &d.OtherNickname, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	d.IsListingOwner = ownerID == userID
	return &d, nil
}

// --- коллабораторы поверх тех же таблиц ---

type ListingDir struct {
	db *pgxpool.Pool
}

func NewListingDir(db *pgxpool.Pool) *ListingDir { return &ListingDir{db: db} }

func (d *ListingDir) OwnerID(ctx context.Context, listingID int64) (int64, error) {
	var id int64
	err := d.db.QueryRow(ctx, `SELECT user_id FROM listings WHERE id=$1`, listingID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrListingNotFound
		}
		return 0, err
	}
	return id, nil
}

type UserDir struct {
	db *pgxpool.Pool
}

func NewUserDir(db *pgxpool.Pool) *UserDir { return &UserDir{db: db} }

func (d *UserDir) Nickname(ctx context.Context, userID int64) (string, error) {
	var nick string
	err := d.db.QueryRow(ctx, `SELECT nickname FROM users WHERE id=$1`, userID).Scan(&nick)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", err
	}
	return nick, nil
}

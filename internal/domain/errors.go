package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrListingNotFound = errors.New("listing not found")
	ErrUserNotFound    = errors.New("user not found")

	ErrNotMember       = errors.New("user is not a member of the room")
	ErrSelfChat        = errors.New("cannot open a chat on your own listing")
	ErrNotListingOwner = errors.New("only the listing owner can create an appointment")

	ErrEmptyContent       = errors.New("message content is empty")
	ErrContentTooLong     = errors.New("message content is too long")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrInvalidAppointment = errors.New("appointment requires date, time and place")

	ErrUnauthenticated = errors.New("authentication required")
)

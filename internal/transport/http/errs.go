package http

import (
	"errors"
	"net/http"

	"github.com/moamarket/chat-service/internal/domain"
)

// toHTTP — единое отображение sentinel-ошибок на статусы.
// NotFound → 404, Forbidden → 403, InvalidInput → 400, Unauthenticated → 401.
func toHTTP(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotMember),
		errors.Is(err, domain.ErrSelfChat),
		errors.Is(err, domain.ErrNotListingOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrContentTooLong),
		errors.Is(err, domain.ErrInvalidMessageType),
		errors.Is(err, domain.ErrInvalidAppointment):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage — на 5xx наружу уходит нейтральный текст, детали в логе.
func publicMessage(err error, status int) string {
	if status >= 500 {
		return "internal server error"
	}
	return err.Error()
}

package security

import (
	"fmt"
	"time"

	"github.com/moamarket/chat-service/internal/domain"

	"github.com/golang-jwt/jwt"
)

// Токены подписывает auth-коллаборатор; этот сервис только проверяет их
// общим секретом. Используется SigningMethodHS256.
type TokenVerifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokenVerifier(secret, issuer string, ttl time.Duration) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

type AccessClaims struct {
	jwt.StandardClaims
}

// Mint выпускает токен с sub=userID (dev-профиль и тесты; в проде этим
// занимается auth-сервис с тем же секретом).
func (v *TokenVerifier) Mint(userID int64, now time.Time) (string, error) {
	claims := AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(userID),
			Issuer:    v.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(v.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(v.secret)
}

// ParseAndValidate возвращает userID из sub или domain.ErrUnauthenticated.
func (v *TokenVerifier) ParseAndValidate(tokenStr string) (int64, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthenticated
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrUnauthenticated
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return 0, domain.ErrUnauthenticated
	}

	var id int64
	if _, err := fmt.Sscan(claims.Subject, &id); err != nil || id <= 0 {
		return 0, domain.ErrUnauthenticated
	}
	return id, nil
}

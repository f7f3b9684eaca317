package security

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wopiproxy/config"
	"wopiproxy/internal/model"
)

// Claims binds a signed access token to a session id. The signature alone is
// never trusted as authorization — callers must still look the session up
// in the session store before honoring the token.
type Claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// JWTTokenService implements ports.TokenService with HS512-signed tokens.
type JWTTokenService struct {
	secretKey []byte
}

func NewJWTTokenService(cfg config.TokenConfig) *JWTTokenService {
	return &JWTTokenService{secretKey: []byte(cfg.SecretKey)}
}

func (s *JWTTokenService) Issue(ctx context.Context, sessionID string, ttlSeconds int64) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlSeconds) * time.Second)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

func (s *JWTTokenService) SessionID(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", model.ErrInvalidToken
	}

	return claims.SessionID, nil
}

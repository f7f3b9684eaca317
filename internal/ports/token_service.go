package ports

import "context"

// TokenService (C5) issues and validates stateless access tokens bound to a
// session id. Tokens are cross-checked against the session store's row as
// the source of truth — a valid signature alone is not sufficient.
type TokenService interface {
	Issue(ctx context.Context, sessionID string, ttlSeconds int64) (string, error)
	SessionID(ctx context.Context, token string) (string, error)
}

package ports

import (
	"context"

	"wopiproxy/internal/model"
)

// SessionStore is the C4 persistence contract for the session/lock state
// machine. Lock transitions (SetLock/RefreshLock/Unlock) must be
// linearizable with respect to concurrent callers on the same session.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByFileID(ctx context.Context, fileID string) (*model.Session, error)

	// GetByToken looks up the session that was issued the given access
	// token. access_token is unique across all sessions (spec.md §3).
	GetByToken(ctx context.Context, token string) (*model.Session, error)

	List(ctx context.Context, tenantID string) ([]*model.Session, error)
	Delete(ctx context.Context, id string) error

	// DeleteExpired deletes every session whose expires_at has passed,
	// returning how many were removed and how many of those held a lock
	// (and so had that lock implicitly released).
	DeleteExpired(ctx context.Context) (expiredCount, lockReleasedCount int64, err error)

	// CountExpired reports what DeleteExpired would do without doing it,
	// for cleanup's dry_run mode.
	CountExpired(ctx context.Context) (expiredCount, lockReleasedCount int64, err error)

	// Touch updates last_accessed_at, and if markFirstGetFile is true and this
	// is the session's first successful GetFile, records that fact.
	Touch(ctx context.Context, id string, markFirstGetFile bool) (firstGetFile bool, err error)

	// SetLock atomically transitions Unlocked -> Locked(lockID) or, if the
	// session is already locked with lockID, refreshes its expiry.
	// Returns *model.LockMismatchError if locked under a different lock id.
	SetLock(ctx context.Context, sessionID, lockID string, ttl int64) (*model.Session, error)

	// RefreshLock extends an existing lock's expiry. Returns
	// *model.LockMismatchError if the current lock does not match lockID.
	RefreshLock(ctx context.Context, sessionID, lockID string, ttl int64) (*model.Session, error)

	// Unlock transitions Locked(lockID) -> Unlocked. Returns
	// *model.LockMismatchError if the current lock does not match lockID.
	Unlock(ctx context.Context, sessionID, lockID string) (*model.Session, error)

	// GetLock returns the current lock id, or "" if unlocked/expired.
	GetLock(ctx context.Context, sessionID string) (string, error)
}

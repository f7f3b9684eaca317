package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"wopiproxy/config"
	"wopiproxy/internal/model"
)

// SessionRepository implements ports.SessionStore (C4). Lock transitions run
// inside a transaction that row-locks the session with SELECT ... FOR UPDATE
// before inspecting or mutating lock state, so two concurrent Lock/Unlock
// calls on the same session serialize rather than racing on a read-then-write
// round trip.
type SessionRepository struct {
	db *config.Database
}

func NewSessionRepository(db *config.Database) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, file_id, tenant_id, storage_id, path, account, user_id, user_name,
			origin_connection_id, origin_page_id, permissions, access_token, expires_at, last_accessed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now(), now())`,
		s.ID, s.FileID, s.TenantID, s.StorageID, s.Path, s.Account, s.UserID, s.UserName,
		s.OriginConnectionID, s.OriginPageID, s.Permissions, s.AccessToken, s.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("[SessionRepository] create: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := r.db.GetContext(ctx, &s, `SELECT * FROM sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[SessionRepository] get by id: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) GetByFileID(ctx context.Context, fileID string) (*model.Session, error) {
	var s model.Session
	err := r.db.GetContext(ctx, &s, `SELECT * FROM sessions WHERE file_id = $1`, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[SessionRepository] get by file id: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session
	err := r.db.GetContext(ctx, &s, `SELECT * FROM sessions WHERE access_token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[SessionRepository] get by token: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) List(ctx context.Context, tenantID string) ([]*model.Session, error) {
	var sessions []*model.Session
	query := `SELECT * FROM sessions WHERE expires_at > now()`
	args := []interface{}{}
	if tenantID != "" {
		query += ` AND tenant_id = $1`
		args = append(args, tenantID)
	}
	query += ` ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("[SessionRepository] list: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id string, markFirstGetFile bool) (bool, error) {
	if !markFirstGetFile {
		_, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_accessed_at = now() WHERE id = $1`, id)
		if err != nil {
			return false, fmt.Errorf("[SessionRepository] touch: %w", err)
		}
		return false, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("[SessionRepository] touch: begin tx: %w", err)
	}
	defer tx.Rollback()

	var alreadyDone bool
	err = tx.GetContext(ctx, &alreadyDone, `SELECT first_get_file_done FROM sessions WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, model.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("[SessionRepository] touch: lock row: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE sessions SET last_accessed_at = now(), first_get_file_done = true WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("[SessionRepository] touch: update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("[SessionRepository] touch: commit: %w", err)
	}

	return !alreadyDone, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("[SessionRepository] delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (expiredCount, lockReleasedCount int64, err error) {
	var lockIDs []string
	err = r.db.SelectContext(ctx, &lockIDs, `DELETE FROM sessions WHERE expires_at < now() RETURNING lock_id`)
	if err != nil {
		return 0, 0, fmt.Errorf("[SessionRepository] delete expired: %w", err)
	}
	return countLockHolders(lockIDs)
}

// CountExpired reports what DeleteExpired would remove, without removing it,
// for the Management API's cleanup dry_run mode.
func (r *SessionRepository) CountExpired(ctx context.Context) (expiredCount, lockReleasedCount int64, err error) {
	var lockIDs []string
	err = r.db.SelectContext(ctx, &lockIDs, `SELECT lock_id FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, 0, fmt.Errorf("[SessionRepository] count expired: %w", err)
	}
	return countLockHolders(lockIDs)
}

func countLockHolders(lockIDs []string) (total, held int64, err error) {
	total = int64(len(lockIDs))
	for _, id := range lockIDs {
		if id != "" {
			held++
		}
	}
	return total, held, nil
}

// withLockedSession runs fn with the session row locked for the duration of
// the transaction, committing fn's returned session back to the row.
func (r *SessionRepository) withLockedSession(ctx context.Context, sessionID string, fn func(tx *sqlx.Tx, s *model.Session) (*model.Session, error)) (*model.Session, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("[SessionRepository] begin tx: %w", err)
	}
	defer tx.Rollback()

	var s model.Session
	err = tx.GetContext(ctx, &s, `SELECT * FROM sessions WHERE id = $1 FOR UPDATE`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[SessionRepository] lock session row: %w", err)
	}

	updated, err := fn(tx, &s)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET lock_id = $1, lock_expires_at = $2, updated_at = now() WHERE id = $3`,
		updated.LockID, updated.LockExpiresAt, sessionID)
	if err != nil {
		return nil, fmt.Errorf("[SessionRepository] update lock state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("[SessionRepository] commit: %w", err)
	}
	return updated, nil
}

func (r *SessionRepository) SetLock(ctx context.Context, sessionID, lockID string, ttl int64) (*model.Session, error) {
	return r.withLockedSession(ctx, sessionID, func(tx *sqlx.Tx, s *model.Session) (*model.Session, error) {
		now := time.Now()
		if s.Locked(now) && s.LockID != lockID {
			return nil, &model.LockMismatchError{Current: s.LockID}
		}

		expires := now.Add(time.Duration(ttl) * time.Second)
		s.LockID = lockID
		s.LockExpiresAt = &expires
		return s, nil
	})
}

func (r *SessionRepository) RefreshLock(ctx context.Context, sessionID, lockID string, ttl int64) (*model.Session, error) {
	return r.withLockedSession(ctx, sessionID, func(tx *sqlx.Tx, s *model.Session) (*model.Session, error) {
		now := time.Now()
		if !s.Locked(now) {
			return nil, &model.LockMismatchError{Current: ""}
		}
		if s.LockID != lockID {
			return nil, &model.LockMismatchError{Current: s.LockID}
		}

		expires := now.Add(time.Duration(ttl) * time.Second)
		s.LockExpiresAt = &expires
		return s, nil
	})
}

func (r *SessionRepository) Unlock(ctx context.Context, sessionID, lockID string) (*model.Session, error) {
	return r.withLockedSession(ctx, sessionID, func(tx *sqlx.Tx, s *model.Session) (*model.Session, error) {
		now := time.Now()
		if !s.Locked(now) {
			return nil, &model.LockMismatchError{Current: ""}
		}
		if s.LockID != lockID {
			return nil, &model.LockMismatchError{Current: s.LockID}
		}

		s.LockID = ""
		s.LockExpiresAt = nil
		return s, nil
	})
}

func (r *SessionRepository) GetLock(ctx context.Context, sessionID string) (string, error) {
	s, err := r.GetByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !s.Locked(time.Now()) {
		return "", nil
	}
	return s.LockID, nil
}

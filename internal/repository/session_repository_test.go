package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wopiproxy/config"
	"wopiproxy/internal/model"
	"wopiproxy/internal/repository"
)

func newMockSessionRepo(t *testing.T) (*repository.SessionRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "postgres")
	return repository.NewSessionRepository(&config.Database{DB: sqlxDB}), mock
}

func sessionRow(id string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "file_id", "tenant_id", "storage_id", "path", "account", "user_id", "user_name",
		"origin_connection_id", "origin_page_id", "permissions", "access_token", "lock_id", "lock_expires_at",
		"first_get_file_done", "expires_at", "last_accessed_at", "created_at", "updated_at",
	}).AddRow(
		id, "file-1", "tenant-1", "storage-1", "a/b.xlsx", "acct", "user-1", "User One",
		"", "", []byte(`{}`), "token-x", "", nil,
		false, time.Now().Add(time.Hour), time.Now(), time.Now(), time.Now(),
	)
}

func TestSessionRepository_SetLock_AcquiresWhenUnlocked(t *testing.T) {
	repo, mock := newMockSessionRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM sessions WHERE id = \\$1 FOR UPDATE").
		WithArgs("session-1").
		WillReturnRows(sessionRow("session-1"))
	mock.ExpectExec("UPDATE sessions SET lock_id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := repo.SetLock(context.Background(), "session-1", "lock-A", 1800)
	assert.NoError(t, err)
	assert.Equal(t, "lock-A", s.LockID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_SetLock_ConflictsOnDifferentLock(t *testing.T) {
	repo, mock := newMockSessionRepo(t)

	rows := sqlmock.NewRows([]string{
		"id", "file_id", "tenant_id", "storage_id", "path", "account", "user_id", "user_name",
		"origin_connection_id", "origin_page_id", "permissions", "access_token", "lock_id", "lock_expires_at",
		"first_get_file_done", "expires_at", "last_accessed_at", "created_at", "updated_at",
	}).AddRow(
		"session-1", "file-1", "tenant-1", "storage-1", "a/b.xlsx", "acct", "user-1", "User One",
		"", "", []byte(`{}`), "token-x", "lock-A", time.Now().Add(30*time.Minute),
		false, time.Now().Add(time.Hour), time.Now(), time.Now(), time.Now(),
	)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM sessions WHERE id = \\$1 FOR UPDATE").
		WithArgs("session-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := repo.SetLock(context.Background(), "session-1", "lock-B", 1800)
	assert.Error(t, err)

	mismatch, ok := model.AsLockMismatch(err)
	require.True(t, ok)
	assert.Equal(t, "lock-A", mismatch.CurrentLock())
}

func TestSessionRepository_Unlock_SucceedsWhenLockMatches(t *testing.T) {
	repo, mock := newMockSessionRepo(t)

	rows := sqlmock.NewRows([]string{
		"id", "file_id", "tenant_id", "storage_id", "path", "account", "user_id", "user_name",
		"origin_connection_id", "origin_page_id", "permissions", "access_token", "lock_id", "lock_expires_at",
		"first_get_file_done", "expires_at", "last_accessed_at", "created_at", "updated_at",
	}).AddRow(
		"session-1", "file-1", "tenant-1", "storage-1", "a/b.xlsx", "acct", "user-1", "User One",
		"", "", []byte(`{}`), "token-x", "lock-A", time.Now().Add(30*time.Minute),
		false, time.Now().Add(time.Hour), time.Now(), time.Now(), time.Now(),
	)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM sessions WHERE id = \\$1 FOR UPDATE").
		WithArgs("session-1").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE sessions SET lock_id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := repo.Unlock(context.Background(), "session-1", "lock-A")
	assert.NoError(t, err)
	assert.Empty(t, s.LockID)
	assert.Nil(t, s.LockExpiresAt)
}

func TestSessionRepository_GetByToken_ReturnsMatchingSession(t *testing.T) {
	repo, mock := newMockSessionRepo(t)

	mock.ExpectQuery("SELECT \\* FROM sessions WHERE access_token = \\$1").
		WithArgs("token-x").
		WillReturnRows(sessionRow("session-1"))

	s, err := repo.GetByToken(context.Background(), "token-x")
	assert.NoError(t, err)
	assert.Equal(t, "session-1", s.ID)
	assert.Equal(t, "token-x", s.AccessToken)
}

func TestSessionRepository_GetByToken_NotFound(t *testing.T) {
	repo, mock := newMockSessionRepo(t)

	mock.ExpectQuery("SELECT \\* FROM sessions WHERE access_token = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionRepository_DeleteExpired_CountsLockHolders(t *testing.T) {
	repo, mock := newMockSessionRepo(t)

	mock.ExpectQuery("DELETE FROM sessions WHERE expires_at < now\\(\\) RETURNING lock_id").
		WillReturnRows(sqlmock.NewRows([]string{"lock_id"}).AddRow("lock-A").AddRow(""))

	expired, released, err := repo.DeleteExpired(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(2), expired)
	assert.Equal(t, int64(1), released)
}

func TestSessionRepository_CountExpired_DoesNotDelete(t *testing.T) {
	repo, mock := newMockSessionRepo(t)

	mock.ExpectQuery("SELECT lock_id FROM sessions WHERE expires_at < now\\(\\)").
		WillReturnRows(sqlmock.NewRows([]string{"lock_id"}).AddRow(""))

	expired, released, err := repo.CountExpired(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), expired)
	assert.Equal(t, int64(0), released)
}

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wopiproxy/config"
	"wopiproxy/internal/model"
	"wopiproxy/internal/repository"
)

func newMockTenantRepo(t *testing.T) (*repository.TenantRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "postgres")
	return repository.NewTenantRepository(&config.Database{DB: sqlxDB}), mock
}

func tenantRow(id, hash string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "active", "editor_mode", "editor_url", "callback_url", "callback_auth", "api_token_hash", "created_at", "updated_at",
	}).AddRow(id, "acme", true, "pool", "", "https://acme.example/callback", "Bearer tenant-secret", hash, time.Now(), time.Now())
}

func TestTenantRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockTenantRepo(t)

	mock.ExpectQuery("SELECT \\* FROM tenants WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTenantRepository_GetByAPIToken_ComparesHashes(t *testing.T) {
	repo, mock := newMockTenantRepo(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-token"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM tenants").
		WillReturnRows(tenantRow("tenant-1", string(hash)))

	got, err := repo.GetByAPIToken(context.Background(), "secret-token")
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", got.ID)
}

func TestTenantRepository_GetByAPIToken_NoMatch(t *testing.T) {
	repo, mock := newMockTenantRepo(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-token"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM tenants").
		WillReturnRows(tenantRow("tenant-1", string(hash)))

	_, err = repo.GetByAPIToken(context.Background(), "wrong-token")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTenantRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newMockTenantRepo(t)

	mock.ExpectExec("DELETE FROM tenants WHERE id = \\$1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

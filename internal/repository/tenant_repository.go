package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"wopiproxy/config"
	"wopiproxy/internal/model"
)

// TenantRepository implements ports.TenantRegistry over the relational store.
type TenantRepository struct {
	db *config.Database
}

func NewTenantRepository(db *config.Database) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.db.GetContext(ctx, &t, `SELECT * FROM tenants WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[TenantRepository] get by id: %w", err)
	}
	return &t, nil
}

// GetByAPIToken scans tenants and compares the raw token against each
// bcrypt hash, since the hash cannot be reversed into a lookup key.
func (r *TenantRepository) GetByAPIToken(ctx context.Context, rawToken string) (*model.Tenant, error) {
	var tenants []model.Tenant
	if err := r.db.SelectContext(ctx, &tenants, `SELECT * FROM tenants`); err != nil {
		return nil, fmt.Errorf("[TenantRepository] list for token lookup: %w", err)
	}

	for i := range tenants {
		if bcrypt.CompareHashAndPassword([]byte(tenants[i].APITokenHash), []byte(rawToken)) == nil {
			return &tenants[i], nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *TenantRepository) Create(ctx context.Context, t *model.Tenant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, active, editor_mode, editor_url, callback_url, callback_auth, api_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		t.ID, t.Name, t.Active, t.EditorMode, t.EditorURL, t.CallbackURL, t.CallbackAuth, t.APITokenHash)
	if err != nil {
		return fmt.Errorf("[TenantRepository] create: %w", err)
	}
	return nil
}

func (r *TenantRepository) List(ctx context.Context) ([]*model.Tenant, error) {
	var tenants []*model.Tenant
	if err := r.db.SelectContext(ctx, &tenants, `SELECT * FROM tenants ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("[TenantRepository] list: %w", err)
	}
	return tenants, nil
}

func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("[TenantRepository] delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

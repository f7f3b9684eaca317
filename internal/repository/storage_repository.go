package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wopiproxy/config"
	"wopiproxy/internal/model"
)

// StorageRepository implements ports.StorageRegistry over the relational store.
type StorageRepository struct {
	db *config.Database
}

func NewStorageRepository(db *config.Database) *StorageRepository {
	return &StorageRepository{db: db}
}

func (r *StorageRepository) GetByID(ctx context.Context, tenantID, storageID string) (*model.Storage, error) {
	var s model.Storage
	err := r.db.GetContext(ctx, &s, `SELECT * FROM storages WHERE id = $1 AND tenant_id = $2`, storageID, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[StorageRepository] get by id: %w", err)
	}
	return &s, nil
}

func (r *StorageRepository) List(ctx context.Context, tenantID string) ([]*model.Storage, error) {
	var storages []*model.Storage
	err := r.db.SelectContext(ctx, &storages, `SELECT * FROM storages WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("[StorageRepository] list: %w", err)
	}
	return storages, nil
}

func (r *StorageRepository) Create(ctx context.Context, s *model.Storage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO storages (id, tenant_id, name, protocol, root_path, endpoint, bucket, region, access_key, secret_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`,
		s.ID, s.TenantID, s.Name, s.Protocol, s.RootPath, s.Endpoint, s.Bucket, s.Region, s.AccessKey, s.SecretKey)
	if err != nil {
		return fmt.Errorf("[StorageRepository] create: %w", err)
	}
	return nil
}

func (r *StorageRepository) Delete(ctx context.Context, tenantID, storageID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM storages WHERE id = $1 AND tenant_id = $2`, storageID, tenantID)
	if err != nil {
		return fmt.Errorf("[StorageRepository] delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

package ports

import (
	"context"

	"wopiproxy/internal/model"
)

// TenantRegistry resolves and administers tenants (C2).
type TenantRegistry interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
	GetByAPIToken(ctx context.Context, rawToken string) (*model.Tenant, error)
	Create(ctx context.Context, t *model.Tenant) error
	List(ctx context.Context) ([]*model.Tenant, error)
	Delete(ctx context.Context, id string) error
}

// StorageRegistry resolves and administers per-tenant storage endpoints (C3).
type StorageRegistry interface {
	GetByID(ctx context.Context, tenantID, storageID string) (*model.Storage, error)
	List(ctx context.Context, tenantID string) ([]*model.Storage, error)
	Create(ctx context.Context, s *model.Storage) error
	Delete(ctx context.Context, tenantID, storageID string) error
}

package ports

import (
	"context"

	"wopiproxy/internal/model"
)

// AuditLog persists a record of every WOPI and administrative command (C9).
type AuditLog interface {
	Record(ctx context.Context, entry *model.CommandLogEntry) error
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*model.CommandLogEntry, error)
}

package repository

import (
	"context"
	"fmt"

	"wopiproxy/config"
	"wopiproxy/internal/model"
)

// AuditRepository implements ports.AuditLog (C9) over the relational store.
type AuditRepository struct {
	db *config.Database
}

func NewAuditRepository(db *config.Database) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry *model.CommandLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO command_log (tenant_id, account, user_id, command, details, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		entry.TenantID, entry.Account, entry.UserID, entry.Command, entry.Details)
	if err != nil {
		return fmt.Errorf("[AuditRepository] record: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*model.CommandLogEntry, error) {
	var entries []*model.CommandLogEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM command_log WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("[AuditRepository] list by tenant: %w", err)
	}
	return entries, nil
}

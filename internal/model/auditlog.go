package model

import "time"

// CommandLogEntry records a single WOPI or administrative command for audit
// purposes (C9). Details holds command-specific context as a JSON blob.
type CommandLogEntry struct {
	ID        int64     `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Account   string    `db:"account" json:"account"`
	UserID    string    `db:"user_id" json:"user_id"`
	Command   string    `db:"command" json:"command"`
	Details   string    `db:"details" json:"details,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

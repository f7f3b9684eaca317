package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Permissions gates which WOPI operations a session's access token may perform.
// It is stored as a JSON column, since the set of permission flags is small
// and fixed and does not warrant its own table.
type Permissions struct {
	ReadOnly              bool `json:"read_only"`
	UserCanWrite          bool `json:"user_can_write"`
	RestrictedWebViewOnly bool `json:"restricted_web_view_only"`
}

func (p Permissions) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Permissions) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported scan type for Permissions: %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Session binds a file_id, under a tenant's storage, to an editing user for
// the lifetime of a WOPI editing interaction. Lock fields model the WOPI
// lock state machine: Unlocked when LockID is empty, Locked(LockID, LockExpiresAt)
// otherwise. A lock whose LockExpiresAt has passed is treated as unlocked.
type Session struct {
	ID                 string      `db:"id" json:"id"`
	FileID             string      `db:"file_id" json:"file_id"`
	TenantID           string      `db:"tenant_id" json:"tenant_id"`
	StorageID          string      `db:"storage_id" json:"storage_id"`
	Path               string      `db:"path" json:"path"`
	Account            string      `db:"account" json:"account"`
	UserID             string      `db:"user_id" json:"user_id"`
	UserName           string      `db:"user_name" json:"user_name"`
	OriginConnectionID string      `db:"origin_connection_id" json:"origin_connection_id,omitempty"`
	OriginPageID       string      `db:"origin_page_id" json:"origin_page_id,omitempty"`
	Permissions        Permissions `db:"permissions" json:"permissions"`
	// AccessToken is the token issued for this session at creation time.
	// It is the authority the WOPI preamble cross-checks the presented
	// token against (spec.md §4.6 step 3) — a valid signature alone only
	// proves the token was issued by this process, not that it names this
	// session's file_id. Unique across all sessions (spec.md §3).
	AccessToken      string     `db:"access_token" json:"-"`
	LockID           string     `db:"lock_id" json:"lock_id,omitempty"`
	LockExpiresAt    *time.Time `db:"lock_expires_at" json:"lock_expires_at,omitempty"`
	FirstGetFileDone bool       `db:"first_get_file_done" json:"-"`
	ExpiresAt        time.Time  `db:"expires_at" json:"expires_at"`
	LastAccessedAt   time.Time  `db:"last_accessed_at" json:"last_accessed_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Locked reports whether the session currently holds a non-expired lock.
func (s *Session) Locked(now time.Time) bool {
	return s.LockID != "" && s.LockExpiresAt != nil && s.LockExpiresAt.After(now)
}

// Expired reports whether the session itself has outlived its TTL.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

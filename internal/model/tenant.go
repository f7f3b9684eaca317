package model

import "time"

// EditorMode controls which WOPI client a tenant's sessions are bound to.
type EditorMode string

const (
	EditorModePool     EditorMode = "pool"
	EditorModeOwn      EditorMode = "own"
	EditorModeDisabled EditorMode = "disabled"
)

// Tenant isolates storages, sessions and callback configuration per customer.
// Active and EditorMode are independent switches: Active gates the tenant
// out of existence entirely (TenantDisabled), while EditorMode=disabled
// only withholds an editor URL from an otherwise-active tenant (EditorDisabled).
type Tenant struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Active       bool       `db:"active" json:"active"`
	EditorMode   EditorMode `db:"editor_mode" json:"editor_mode"`
	EditorURL    string     `db:"editor_url" json:"editor_url,omitempty"`
	CallbackURL  string     `db:"callback_url" json:"callback_url,omitempty"`
	// CallbackAuth is sent as the Authorization header on every outbound
	// callback POST (spec.md §4.7's "tenant auth"). Opaque to this process —
	// it is whatever scheme the tenant's callback receiver expects
	// ("Bearer <token>", "Basic <creds>", a custom scheme, ...).
	CallbackAuth string `db:"callback_auth" json:"-"`
	APITokenHash string     `db:"api_token_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Disabled reports whether this tenant may open any new session.
func (t *Tenant) Disabled() bool {
	return !t.Active
}

// EffectiveEditorURL resolves the WOPI client base URL this tenant's
// sessions should be pointed at, given the process-wide pool default.
func (t *Tenant) EffectiveEditorURL(poolDefault string) string {
	if t.EditorMode == EditorModeOwn && t.EditorURL != "" {
		return t.EditorURL
	}
	return poolDefault
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"wopiproxy/internal/model"
	"wopiproxy/internal/ports"
)

const maxCreateRetries = 3

// SessionManager implements the C6 session lifecycle: create, close and
// periodic cleanup of expired sessions, orchestrating the tenant registry,
// storage registry, token service and session store.
type SessionManager struct {
	tenants   ports.TenantRegistry
	storages  ports.StorageRegistry
	sessions  ports.SessionStore
	tokens    ports.TokenService
	audit     ports.AuditLog
	callbacks ports.CallbackDispatcher

	ttl            time.Duration
	proxyBase      string
	poolEditorBase string
}

func NewSessionManager(
	tenants ports.TenantRegistry,
	storages ports.StorageRegistry,
	sessions ports.SessionStore,
	tokens ports.TokenService,
	audit ports.AuditLog,
	callbacks ports.CallbackDispatcher,
	ttl time.Duration,
	proxyBase string,
	poolEditorBase string,
) *SessionManager {
	return &SessionManager{
		tenants:        tenants,
		storages:       storages,
		sessions:       sessions,
		tokens:         tokens,
		audit:          audit,
		callbacks:      callbacks,
		ttl:            ttl,
		proxyBase:      proxyBase,
		poolEditorBase: poolEditorBase,
	}
}

// NewSessionParams describes the editing interaction a session is opened for.
type NewSessionParams struct {
	TenantID           string
	StorageID          string
	Path               string
	Account            string
	UserID             string
	UserName           string
	OriginConnectionID string
	OriginPageID       string
	WantEdit           bool
}

// OpenedSession is what the Management API returns from a successful create.
type OpenedSession struct {
	SessionID   string
	FileID      string
	EditorURL   string
	ExpiresAt   time.Time
	AccessToken string
}

// Create resolves the tenant and storage, normalizes permissions, allocates
// a session and token, and composes the editor URL the client embeds in an
// iframe. Session and file ids are generated as independent UUIDs; on a
// primary key conflict (an astronomically unlikely UUID collision) ids are
// regenerated and creation is retried up to three times.
func (m *SessionManager) Create(ctx context.Context, p NewSessionParams) (*OpenedSession, error) {
	tenant, err := m.tenants.GetByID(ctx, p.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Disabled() {
		return nil, model.ErrTenantDisabled
	}

	if _, err := m.storages.GetByID(ctx, p.TenantID, p.StorageID); err != nil {
		return nil, err
	}

	permissions := model.Permissions{}
	if p.WantEdit && tenant.EditorMode != model.EditorModeDisabled {
		permissions.UserCanWrite = true
	}

	var s *model.Session
	var lastErr error

	for attempt := 0; attempt <= maxCreateRetries; attempt++ {
		id := uuid.NewString()
		token, tokenErr := m.tokens.Issue(ctx, id, int64(m.ttl.Seconds()))
		if tokenErr != nil {
			return nil, fmt.Errorf("[SessionManager] issuing access token: %w", tokenErr)
		}

		s = &model.Session{
			ID:                 id,
			FileID:             uuid.NewString(),
			TenantID:           p.TenantID,
			StorageID:          p.StorageID,
			Path:               p.Path,
			Account:            p.Account,
			UserID:             p.UserID,
			UserName:           p.UserName,
			OriginConnectionID: p.OriginConnectionID,
			OriginPageID:       p.OriginPageID,
			Permissions:        permissions,
			AccessToken:        token,
			ExpiresAt:          time.Now().Add(m.ttl),
		}

		err = m.sessions.Create(ctx, s)
		if err == nil {
			break
		}
		if !errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("[SessionManager] create session: %w", err)
		}
		lastErr = err
	}
	if err != nil {
		return nil, fmt.Errorf("[SessionManager] create session: exhausted retries: %w", lastErr)
	}

	editorMode := tenant.EditorMode
	if editorMode == model.EditorModeDisabled {
		return nil, model.ErrEditorDisabled
	}
	editorBase := tenant.EffectiveEditorURL(m.poolEditorBase)
	editorURL := m.composeEditorURL(editorBase, s.FileID, s.AccessToken)

	if err := m.audit.Record(ctx, &model.CommandLogEntry{
		TenantID: tenant.ID,
		Account:  p.Account,
		UserID:   p.UserID,
		Command:  "session_created",
	}); err != nil {
		log.Printf("[SessionManager] audit write failed, continuing: %v", err)
	}
	m.dispatchCallback(ctx, tenant, s, "session_created", nil)

	return &OpenedSession{
		SessionID:   s.ID,
		FileID:      s.FileID,
		EditorURL:   editorURL,
		ExpiresAt:   s.ExpiresAt,
		AccessToken: s.AccessToken,
	}, nil
}

func (m *SessionManager) composeEditorURL(editorBase, fileID, token string) string {
	wopiSrc := m.proxyBase + "/wopi/files/" + fileID
	values := url.Values{}
	values.Set("WOPISrc", wopiSrc)
	values.Set("access_token", token)
	separator := "?"
	if strings.Contains(editorBase, "?") {
		separator = "&"
	}
	return editorBase + separator + values.Encode()
}

func (m *SessionManager) dispatchCallback(ctx context.Context, tenant *model.Tenant, s *model.Session, event string, extra map[string]any) {
	if tenant.CallbackURL == "" || s.OriginConnectionID == "" {
		return
	}

	payload := map[string]any{
		"origin_connection_id": s.OriginConnectionID,
		"origin_page_id":       s.OriginPageID,
		"event":                event,
		"session_id":           s.ID,
		"file_path":            s.Path,
	}
	for k, v := range extra {
		payload[k] = v
	}

	if err := m.callbacks.Enqueue(ctx, ports.CallbackEvent{
		TenantID:    tenant.ID,
		CallbackURL: tenant.CallbackURL + "/wopi/callback",
		Auth:        tenant.CallbackAuth,
		Payload:     payload,
	}); err != nil {
		log.Printf("[SessionManager] callback not queued, continuing: %v", err)
	}
}

// Touch records that a session was just used, and optionally marks its
// first successful GetFile (used to gate the document_opened callback).
func (m *SessionManager) Touch(ctx context.Context, sessionID string, markFirstGetFile bool) (bool, error) {
	return m.sessions.Touch(ctx, sessionID, markFirstGetFile)
}

func (m *SessionManager) SetLock(ctx context.Context, sessionID, lockID string, ttlSeconds int64) (*model.Session, error) {
	return m.sessions.SetLock(ctx, sessionID, lockID, ttlSeconds)
}

func (m *SessionManager) RefreshLock(ctx context.Context, sessionID, lockID string, ttlSeconds int64) (*model.Session, error) {
	return m.sessions.RefreshLock(ctx, sessionID, lockID, ttlSeconds)
}

func (m *SessionManager) Unlock(ctx context.Context, sessionID, lockID string) (*model.Session, error) {
	return m.sessions.Unlock(ctx, sessionID, lockID)
}

func (m *SessionManager) GetLock(ctx context.Context, sessionID string) (string, error) {
	return m.sessions.GetLock(ctx, sessionID)
}

// EmitEvent records an audit entry and dispatches the matching callback for
// a WOPI-observable event against the given session. Audit write failures
// and callbacks that cannot be queued are logged and never surfaced to the
// caller, since emitting an event must never fail the WOPI request that
// triggered it; failed deliveries are logged by the dispatcher.
func (m *SessionManager) EmitEvent(ctx context.Context, s *model.Session, command string, extra map[string]any) {
	if err := m.audit.Record(ctx, &model.CommandLogEntry{
		TenantID: s.TenantID,
		Account:  s.Account,
		UserID:   s.UserID,
		Command:  command,
	}); err != nil {
		log.Printf("[SessionManager] audit write failed, continuing: %v", err)
	}

	tenant, err := m.tenants.GetByID(ctx, s.TenantID)
	if err != nil {
		return
	}
	m.dispatchCallback(ctx, tenant, s, command, extra)
}

func (m *SessionManager) Close(ctx context.Context, sessionID string) error {
	s, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("[SessionManager] close session: %w", err)
	}

	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("[SessionManager] close session: %w", err)
	}

	if err := m.audit.Record(ctx, &model.CommandLogEntry{
		TenantID: s.TenantID,
		Account:  s.Account,
		UserID:   s.UserID,
		Command:  "session_closed",
	}); err != nil {
		log.Printf("[SessionManager] audit write failed, continuing: %v", err)
	}
	return nil
}

// Cleanup purges expired sessions, returning how many were removed and how
// many of those held a lock at the time (spec.md §4.5). With dryRun it only
// counts what a real run would do. Callers typically run this on a periodic
// ticker.
func (m *SessionManager) Cleanup(ctx context.Context, dryRun bool) (expiredCount, lockReleasedCount int64, err error) {
	if dryRun {
		expiredCount, lockReleasedCount, err = m.sessions.CountExpired(ctx)
	} else {
		expiredCount, lockReleasedCount, err = m.sessions.DeleteExpired(ctx)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("[SessionManager] cleanup: %w", err)
	}
	return expiredCount, lockReleasedCount, nil
}

func (m *SessionManager) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	return m.sessions.GetByID(ctx, sessionID)
}

func (m *SessionManager) List(ctx context.Context, tenantID string) ([]*model.Session, error) {
	return m.sessions.List(ctx, tenantID)
}

// ResolveForFile implements the WOPI handler's common preamble (§4.6):
//  1. validate the token's signature — an unparseable or unverifiable token
//     fails with ErrInvalidToken.
//  2. load the session addressed by file_id — a miss fails with ErrNotFound.
//  3. cross-check session.access_token == the presented token and
//     session.expires_at > now — the stored row is the authority, a valid
//     signature alone is not enough. A mismatched token fails with
//     ErrTokenMismatch (e.g. tenant A's token presented against tenant B's
//     file_id); a matching but stale token fails with ErrSessionExpired.
func (m *SessionManager) ResolveForFile(ctx context.Context, fileID, accessToken string) (*model.Session, error) {
	if _, err := m.tokens.SessionID(ctx, accessToken); err != nil {
		return nil, model.ErrInvalidToken
	}

	s, err := m.sessions.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if s.AccessToken != accessToken {
		return nil, model.ErrTokenMismatch
	}
	if s.Expired(time.Now()) {
		return nil, model.ErrSessionExpired
	}

	return s, nil
}

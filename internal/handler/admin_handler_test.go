package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wopiproxy/internal/handler"
	"wopiproxy/internal/model"
)

const testAdminToken = "super-secret-admin-token"

func setupAdminHandler(t *testing.T) (*chi.Mux, *fakeTenants, *fakeStorages, *fakeSessions) {
	tenants := new(fakeTenants)
	storages := new(fakeStorages)
	sessions := newFakeSessions()

	ah := handler.NewAdminHandler(tenants, storages, sessions, testAdminToken)
	r := chi.NewRouter()
	ah.Mount(r)

	return r, tenants, storages, sessions
}

func TestAdminHandler_RejectsMissingToken(t *testing.T) {
	r, _, _, _ := setupAdminHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/tenants/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminHandler_CreateTenant_MintsAndHashesAPIToken(t *testing.T) {
	r, tenants, _, _ := setupAdminHandler(t)

	var created *model.Tenant
	tenants.On("Create", mock.Anything, mock.AnythingOfType("*model.Tenant")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*model.Tenant) }).
		Return(nil)

	body, _ := json.Marshal(map[string]any{
		"name": "acme", "editor_mode": "pool",
		"callback_base_url": "https://acme.example/callback", "callback_auth": "Bearer tenant-secret",
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/tenants/", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, "https://acme.example/callback", created.CallbackURL)
	assert.Equal(t, "Bearer tenant-secret", created.CallbackAuth)
	assert.NotEmpty(t, created.APITokenHash)

	var resp struct {
		Tenant   model.Tenant `json:"tenant"`
		APIToken string       `json:"api_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.APIToken)
	assert.NotEqual(t, resp.APIToken, created.APITokenHash)
}

func TestAdminHandler_DeleteTenant_RefusesWithLiveSessions(t *testing.T) {
	r, tenants, _, sessions := setupAdminHandler(t)

	sessions.byFileID["file-1"] = &model.Session{ID: "session-1", FileID: "file-1", TenantID: "tenant-1"}
	tenants.On("Delete", mock.Anything, "tenant-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/admin/tenants/tenant-1", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminHandler_DeleteTenant_SucceedsWithNoSessions(t *testing.T) {
	r, tenants, _, _ := setupAdminHandler(t)

	tenants.On("Delete", mock.Anything, "tenant-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/admin/tenants/tenant-1", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminHandler_CreateStorage_ScopedToTenant(t *testing.T) {
	r, _, storages, _ := setupAdminHandler(t)

	var created *model.Storage
	storages.On("Create", mock.Anything, mock.AnythingOfType("*model.Storage")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*model.Storage) }).
		Return(nil)

	body, _ := json.Marshal(map[string]any{"name": "primary", "protocol": "s3", "bucket": "docs"})
	req := httptest.NewRequest(http.MethodPost, "/admin/tenants/tenant-1/storages/", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, "tenant-1", created.TenantID)
	assert.Equal(t, model.Protocol("s3"), created.Protocol)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"wopiproxy/internal/model"
	"wopiproxy/internal/ports"
	"wopiproxy/internal/util"
)

// AdminHandler implements the §4.9.1 instance-level administrative surface
// for tenant and storage CRUD, protected by a single shared admin token
// rather than per-tenant auth (there is no tenant yet when one is being created).
type AdminHandler struct {
	tenants  ports.TenantRegistry
	storages ports.StorageRegistry
	sessions ports.SessionStore
	token    string
}

func NewAdminHandler(tenants ports.TenantRegistry, storages ports.StorageRegistry, sessions ports.SessionStore, adminToken string) *AdminHandler {
	return &AdminHandler{tenants: tenants, storages: storages, sessions: sessions, token: adminToken}
}

func (h *AdminHandler) Mount(r chi.Router) {
	r.Route("/admin/tenants", func(r chi.Router) {
		r.Use(h.requireAdminToken)
		r.Post("/", h.CreateTenant)
		r.Get("/", h.ListTenants)
		r.Delete("/{tenant_id}", h.DeleteTenant)

		r.Route("/{tenant_id}/storages", func(r chi.Router) {
			r.Post("/", h.CreateStorage)
			r.Get("/", h.ListStorages)
			r.Delete("/{storage_id}", h.DeleteStorage)
		})
	})
}

func (h *AdminHandler) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" || bearerToken(r) != h.token {
			util.HandleError(w, "invalid admin token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createTenantRequest struct {
	Name            string `json:"name"`
	Active          *bool  `json:"active"`
	EditorMode      string `json:"editor_mode"`
	EditorURL       string `json:"editor_url"`
	CallbackBaseURL string `json:"callback_base_url"`
	CallbackAuth    string `json:"callback_auth"`
}

// apiTokenLength is the character length of a freshly minted tenant api_token.
const apiTokenLength = 48

// CreateTenant godoc
// @Summary Register a tenant
// @Description Mints a fresh api_token server-side and returns it once; only its bcrypt hash is stored.
// @Tags Admin
// @Accept json
// @Produce json
// @Param Authorization header string true "Admin token" default(Bearer <admin_token>)
// @Param body body createTenantRequest true "Tenant parameters"
// @Success 200 {object} map[string]any
// @Router /admin/tenants [post]
func (h *AdminHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var body createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		util.HandleError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	rawToken, err := util.GenerateToken(apiTokenLength)
	if err != nil {
		util.HandleError(w, "generating api token", http.StatusInternalServerError)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawToken), bcrypt.DefaultCost)
	if err != nil {
		util.HandleError(w, "hashing api token", http.StatusInternalServerError)
		return
	}

	active := true
	if body.Active != nil {
		active = *body.Active
	}

	t := &model.Tenant{
		ID:           uuid.NewString(),
		Name:         body.Name,
		Active:       active,
		EditorMode:   model.EditorMode(body.EditorMode),
		EditorURL:    body.EditorURL,
		CallbackURL:  body.CallbackBaseURL,
		CallbackAuth: body.CallbackAuth,
		APITokenHash: string(hash),
	}

	if err := h.tenants.Create(r.Context(), t); err != nil {
		util.HandleError(w, "creating tenant", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tenant": t, "api_token": rawToken})
}

// ListTenants godoc
// @Summary List tenants
// @Tags Admin
// @Produce json
// @Param Authorization header string true "Admin token" default(Bearer <admin_token>)
// @Success 200 {array} model.Tenant
// @Router /admin/tenants [get]
func (h *AdminHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		util.HandleError(w, "listing tenants", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// DeleteTenant godoc
// @Summary Remove a tenant
// @Description Refused with 409 while the tenant still has live sessions.
// @Tags Admin
// @Param Authorization header string true "Admin token" default(Bearer <admin_token>)
// @Param tenant_id path string true "Tenant id"
// @Success 200
// @Failure 409 {object} map[string]any
// @Router /admin/tenants/{tenant_id} [delete]
func (h *AdminHandler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tenant_id")

	live, err := h.sessions.List(r.Context(), id)
	if err != nil {
		util.HandleError(w, "checking for live sessions", http.StatusInternalServerError)
		return
	}
	if len(live) > 0 {
		util.HandleError(w, "tenant has live sessions", http.StatusConflict)
		return
	}

	if err := h.tenants.Delete(r.Context(), id); err != nil {
		writeManagementError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type createStorageRequest struct {
	Name      string `json:"name"`
	Protocol  string `json:"protocol"`
	RootPath  string `json:"root_path"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// CreateStorage godoc
// @Summary Register a storage node under a tenant
// @Tags Admin
// @Accept json
// @Produce json
// @Param Authorization header string true "Admin token" default(Bearer <admin_token>)
// @Param tenant_id path string true "Tenant id"
// @Param body body createStorageRequest true "Storage parameters"
// @Success 200 {object} map[string]any
// @Router /admin/tenants/{tenant_id}/storages [post]
func (h *AdminHandler) CreateStorage(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")

	var body createStorageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		util.HandleError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	s := &model.Storage{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      body.Name,
		Protocol:  model.Protocol(body.Protocol),
		RootPath:  body.RootPath,
		Endpoint:  body.Endpoint,
		Bucket:    body.Bucket,
		Region:    body.Region,
		AccessKey: body.AccessKey,
		SecretKey: body.SecretKey,
	}

	if err := h.storages.Create(r.Context(), s); err != nil {
		util.HandleError(w, "creating storage", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": s.ID})
}

// ListStorages godoc
// @Summary List a tenant's storage nodes
// @Tags Admin
// @Produce json
// @Param Authorization header string true "Admin token" default(Bearer <admin_token>)
// @Param tenant_id path string true "Tenant id"
// @Success 200 {array} model.Storage
// @Router /admin/tenants/{tenant_id}/storages [get]
func (h *AdminHandler) ListStorages(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")

	storages, err := h.storages.List(r.Context(), tenantID)
	if err != nil {
		util.HandleError(w, "listing storages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, storages)
}

// DeleteStorage godoc
// @Summary Remove a storage node
// @Tags Admin
// @Param Authorization header string true "Admin token" default(Bearer <admin_token>)
// @Param tenant_id path string true "Tenant id"
// @Param storage_id path string true "Storage id"
// @Success 200
// @Router /admin/tenants/{tenant_id}/storages/{storage_id} [delete]
func (h *AdminHandler) DeleteStorage(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	storageID := chi.URLParam(r, "storage_id")

	if err := h.storages.Delete(r.Context(), tenantID, storageID); err != nil {
		writeManagementError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

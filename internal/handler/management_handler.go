package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wopiproxy/internal/model"
	"wopiproxy/internal/ports"
	"wopiproxy/internal/service"
	"wopiproxy/internal/util"
)

// ManagementHandler implements C10: the REST surface for session lifecycle
// management, authenticated via a tenant's API token.
type ManagementHandler struct {
	sessions *service.SessionManager
	tenants  ports.TenantRegistry
}

func NewManagementHandler(sessions *service.SessionManager, tenants ports.TenantRegistry) *ManagementHandler {
	return &ManagementHandler{sessions: sessions, tenants: tenants}
}

func (h *ManagementHandler) Mount(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Use(h.requireTenantToken)
		r.Post("/create", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/close", h.Close)
		r.Post("/cleanup", h.Cleanup)
	})
}

type tenantContextKey struct{}

// requireTenantToken resolves the tenant owning the bearer token and stores
// it on the request context for downstream handlers.
func (h *ManagementHandler) requireTenantToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			util.HandleError(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		tenant, err := h.tenants.GetByAPIToken(r.Context(), token)
		if err != nil {
			util.HandleError(w, "invalid tenant token", http.StatusUnauthorized)
			return
		}

		ctx := contextWithTenant(r.Context(), tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

type createSessionRequest struct {
	StorageID          string `json:"storage_id"`
	Path               string `json:"file_path"`
	Account            string `json:"account"`
	User               string `json:"user"`
	Edit               bool   `json:"edit"`
	OriginConnectionID string `json:"origin_connection_id"`
	OriginPageID       string `json:"origin_page_id"`
}

// Create godoc
// @Summary Open an editing session for a file
// @Description Resolves the tenant's storage, mints an access token, and returns an editor URL.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param Authorization header string true "Tenant API token" default(Bearer <api_token>)
// @Param body body createSessionRequest true "Session parameters"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]any
// @Router /sessions/create [post]
func (h *ManagementHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())

	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		util.HandleError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	opened, err := h.sessions.Create(r.Context(), service.NewSessionParams{
		TenantID:           tenant.ID,
		StorageID:          body.StorageID,
		Path:               body.Path,
		Account:            body.Account,
		UserName:           body.User,
		WantEdit:           body.Edit,
		OriginConnectionID: body.OriginConnectionID,
		OriginPageID:       body.OriginPageID,
	})
	if err != nil {
		writeManagementError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": opened.SessionID,
		"file_id":    opened.FileID,
		"editor_url": opened.EditorURL,
		"expires_at": opened.ExpiresAt,
	})
}

// Get godoc
// @Summary Fetch a session by id
// @Tags Sessions
// @Produce json
// @Param Authorization header string true "Tenant API token" default(Bearer <api_token>)
// @Param id path string true "Session id"
// @Success 200 {object} model.Session
// @Failure 404 {object} map[string]any
// @Router /sessions/{id} [get]
func (h *ManagementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeManagementError(w, err)
		return
	}
	if s.TenantID != tenantFromContext(r.Context()).ID {
		util.HandleError(w, "session not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// List godoc
// @Summary List a tenant's sessions
// @Tags Sessions
// @Produce json
// @Param Authorization header string true "Tenant API token" default(Bearer <api_token>)
// @Success 200 {array} model.Session
// @Router /sessions [get]
func (h *ManagementHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())

	sessions, err := h.sessions.List(r.Context(), tenant.ID)
	if err != nil {
		writeManagementError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Close godoc
// @Summary Close a session
// @Description Deletes the session, releasing any lock it held.
// @Tags Sessions
// @Param Authorization header string true "Tenant API token" default(Bearer <api_token>)
// @Param id path string true "Session id"
// @Success 200
// @Failure 404 {object} map[string]any
// @Router /sessions/{id}/close [post]
func (h *ManagementHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeManagementError(w, err)
		return
	}
	if s.TenantID != tenantFromContext(r.Context()).ID {
		util.HandleError(w, "session not found", http.StatusNotFound)
		return
	}

	if err := h.sessions.Close(r.Context(), id); err != nil {
		writeManagementError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Cleanup godoc
// @Summary Purge expired sessions
// @Description With dry_run=true, only counts what a real run would remove.
// @Tags Sessions
// @Produce json
// @Param Authorization header string true "Tenant API token" default(Bearer <api_token>)
// @Param dry_run query bool false "Count without deleting"
// @Success 200 {object} map[string]any
// @Router /sessions/cleanup [post]
func (h *ManagementHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	expiredCount, lockReleasedCount, err := h.sessions.Cleanup(r.Context(), dryRun)
	if err != nil {
		writeManagementError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"expired_count":       expiredCount,
		"lock_released_count": lockReleasedCount,
	})
}

func writeManagementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		util.HandleError(w, "not found", http.StatusNotFound)
	case errors.Is(err, model.ErrTenantDisabled):
		util.HandleError(w, "tenant disabled", http.StatusForbidden)
	case errors.Is(err, model.ErrEditorDisabled):
		util.HandleError(w, "editor disabled for tenant", http.StatusForbidden)
	default:
		util.HandleError(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

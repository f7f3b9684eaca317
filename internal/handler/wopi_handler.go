package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wopiproxy/internal/model"
	"wopiproxy/internal/ports"
	"wopiproxy/internal/service"
	"wopiproxy/internal/storage"
	"wopiproxy/internal/util"
)

const lockTTLSeconds = 30 * 60

// presignedGetTTL bounds how long a redirected GetFile URL stays valid.
const presignedGetTTL = 5 * time.Minute

// WOPIHandler implements C7: CheckFileInfo, GetFile, PutFile, and the
// Lock/Unlock/RefreshLock/GetLock family dispatched by X-WOPI-Override.
type WOPIHandler struct {
	sessions *service.SessionManager
	storages ports.StorageRegistry
	nodes    *storage.Resolver
}

func NewWOPIHandler(sessions *service.SessionManager, storages ports.StorageRegistry, nodes *storage.Resolver) *WOPIHandler {
	return &WOPIHandler{sessions: sessions, storages: storages, nodes: nodes}
}

func (h *WOPIHandler) Mount(r chi.Router) {
	r.Get("/wopi/files/{file_id}", h.CheckFileInfo)
	r.Get("/wopi/files/{file_id}/contents", h.GetFile)
	r.Post("/wopi/files/{file_id}/contents", h.PutFile)
	r.Post("/wopi/files/{file_id}", h.FileOperation)
}

// preamble implements the common request validation in §4.6: verify the
// token, load the session by file_id, and cross-check the two agree.
func (h *WOPIHandler) preamble(w http.ResponseWriter, r *http.Request) (*model.Session, bool) {
	fileID := chi.URLParam(r, "file_id")
	token := r.URL.Query().Get("access_token")

	s, err := h.sessions.ResolveForFile(r.Context(), fileID, token)
	if err != nil {
		util.WriteWOPIError(w, err)
		return nil, false
	}
	return s, true
}

func (h *WOPIHandler) resolveNode(r *http.Request, s *model.Session) (ports.StorageNode, *model.Storage, error) {
	st, err := h.storages.GetByID(r.Context(), s.TenantID, s.StorageID)
	if err != nil {
		return nil, nil, err
	}
	node, err := h.nodes.NodeFor(st)
	if err != nil {
		return nil, nil, err
	}
	return node, st, nil
}

func versionString(info ports.FileInfo, caps model.Capabilities) string {
	if caps.Versioning && info.Version != "" {
		return info.Version
	}
	return "v" + strconv.FormatInt(info.LastModified.Unix(), 10)
}

// CheckFileInfo — GET /wopi/files/{file_id}
func (h *WOPIHandler) CheckFileInfo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.preamble(w, r)
	if !ok {
		return
	}

	node, st, err := h.resolveNode(r, s)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	info, err := node.Stat(r.Context(), st, s.Path)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		util.WriteWOPIError(w, err)
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		info = ports.FileInfo{Size: 0}
	}

	identity := s.UserName
	if identity == "" {
		identity = s.Account
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"BaseFileName":%q,"Size":%d,"OwnerId":%q,"UserId":%q,"UserFriendlyName":%q,"Version":%q,"UserCanWrite":%t,"UserCanNotWriteRelative":true,"SupportsLocks":true,"SupportsUpdate":true}`,
		basename(s.Path), info.Size, s.TenantID, identity, identity, versionString(info, node.Capabilities()), s.Permissions.UserCanWrite)

	h.sessions.Touch(r.Context(), s.ID, false)
}

func basename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// GetFile — GET /wopi/files/{file_id}/contents
func (h *WOPIHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.preamble(w, r)
	if !ok {
		return
	}

	node, st, err := h.resolveNode(r, s)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	if node.Capabilities().PresignedURLs {
		if presigner, ok := node.(ports.PresignedNode); ok {
			url, presignErr := presigner.PresignGet(r.Context(), st, s.Path, presignedGetTTL)
			if presignErr == nil {
				wasFirst, _ := h.sessions.Touch(r.Context(), s.ID, true)
				if wasFirst {
					h.sessions.EmitEvent(r.Context(), s, "document_opened", nil)
				}
				http.Redirect(w, r, url, http.StatusFound)
				return
			}
		}
	}

	body, err := node.Open(r.Context(), st, s.Path)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}
	defer body.Close()

	caps := node.Capabilities()
	if caps.Versioning {
		if info, statErr := node.Stat(r.Context(), st, s.Path); statErr == nil {
			w.Header().Set("X-WOPI-ItemVersion", versionString(info, caps))
		}
	}

	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)

	wasFirst, _ := h.sessions.Touch(r.Context(), s.ID, true)
	if wasFirst {
		h.sessions.EmitEvent(r.Context(), s, "document_opened", nil)
	}
}

// PutFile — POST /wopi/files/{file_id}/contents
func (h *WOPIHandler) PutFile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.preamble(w, r)
	if !ok {
		return
	}

	if !s.Permissions.UserCanWrite {
		util.WriteNotAuthorized(w)
		return
	}

	node, st, err := h.resolveNode(r, s)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	presented := r.Header.Get("X-WOPI-Lock")
	current, err := h.sessions.GetLock(r.Context(), s.ID)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	if current == "" && presented == "" {
		info, statErr := node.Stat(r.Context(), st, s.Path)
		if statErr == nil && info.Size != 0 {
			w.Header().Set("X-WOPI-Lock", "")
			w.WriteHeader(http.StatusConflict)
			return
		}
		if statErr != nil && !errors.Is(statErr, model.ErrNotFound) {
			util.WriteWOPIError(w, statErr)
			return
		}
	} else if current != presented {
		w.Header().Set("X-WOPI-Lock", current)
		w.WriteHeader(http.StatusConflict)
		return
	}

	info, err := node.Write(r.Context(), st, s.Path, r.Body, r.ContentLength)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	w.Header().Set("X-WOPI-ItemVersion", versionString(info, node.Capabilities()))
	w.WriteHeader(http.StatusOK)

	h.sessions.Touch(r.Context(), s.ID, false)
	h.sessions.EmitEvent(r.Context(), s, "document_saved", nil)
}

// FileOperation dispatches the Lock/Unlock/RefreshLock/GetLock family via
// X-WOPI-Override — POST /wopi/files/{file_id}.
func (h *WOPIHandler) FileOperation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.preamble(w, r)
	if !ok {
		return
	}

	switch r.Header.Get("X-WOPI-Override") {
	case "LOCK":
		h.lock(w, r, s)
	case "UNLOCK":
		h.unlock(w, r, s)
	case "REFRESH_LOCK":
		h.refreshLock(w, r, s)
	case "GET_LOCK":
		h.getLock(w, r, s)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (h *WOPIHandler) lock(w http.ResponseWriter, r *http.Request, s *model.Session) {
	lockID := r.Header.Get("X-WOPI-Lock")

	_, err := h.sessions.SetLock(r.Context(), s.ID, lockID, lockTTLSeconds)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	w.Header().Set("X-WOPI-Lock", lockID)
	w.WriteHeader(http.StatusOK)
	h.sessions.EmitEvent(r.Context(), s, "lock_acquired", nil)
}

func (h *WOPIHandler) unlock(w http.ResponseWriter, r *http.Request, s *model.Session) {
	lockID := r.Header.Get("X-WOPI-Lock")

	_, err := h.sessions.Unlock(r.Context(), s.ID, lockID)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	h.sessions.EmitEvent(r.Context(), s, "lock_released", nil)
}

func (h *WOPIHandler) refreshLock(w http.ResponseWriter, r *http.Request, s *model.Session) {
	lockID := r.Header.Get("X-WOPI-Lock")

	_, err := h.sessions.RefreshLock(r.Context(), s.ID, lockID, lockTTLSeconds)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	w.Header().Set("X-WOPI-Lock", lockID)
	w.WriteHeader(http.StatusOK)
}

func (h *WOPIHandler) getLock(w http.ResponseWriter, r *http.Request, s *model.Session) {
	current, err := h.sessions.GetLock(r.Context(), s.ID)
	if err != nil {
		util.WriteWOPIError(w, err)
		return
	}

	w.Header().Set("X-WOPI-Lock", current)
	w.WriteHeader(http.StatusOK)
}

package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "smartkyc/pkg/domainerrors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	UID       string `json:"uid"`
	Email     string `json:"email"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "email and password required"))
		return
	}

	session, err := h.gate.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: session.ID,
		UID:       session.Principal.UID,
		Email:     session.Principal.Email,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	principal, err := h.bootstrap.CreateAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"uid":   principal.UID,
		"email": principal.Email,
	})
}

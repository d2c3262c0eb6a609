package handlers

import (
	"courier-service/internal/api/dto"
	"courier-service/internal/services"
	"net/http"

	"github.com/gorilla/mux"
)

type AuthHandler struct {
	Svc *services.Service
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *AuthHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req dto.SwitchUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Svc.SwitchUser(r.Context(), req.SessionID, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Logout always succeeds; closing an unknown session is a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.Svc.Logout(req.SessionID)
	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	tab, err := h.Svc.CurrentSession(mux.Vars(r)["sessionId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tab)
}

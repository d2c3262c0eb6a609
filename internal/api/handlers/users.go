package handlers

import (
	"courier-service/internal/api/dto"
	"courier-service/internal/domain"
	"courier-service/internal/services"
	"net/http"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	Svc *services.Service
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

// Get looks a user up by login handle (user_id), not by storage id.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Svc.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.Svc.CreateUser(r.Context(), services.CreateUserRequest{
		UserID:      req.UserID,
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Role:        domain.Role(req.Role),
		Wilayah:     req.Wilayah,
		Area:        req.Area,
		LokasiKerja: req.LokasiKerja,
		Phone:       req.Phone,
		Status:      req.Status,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := domain.UserPatch{
		Name:        req.Name,
		Wilayah:     req.Wilayah,
		Area:        req.Area,
		LokasiKerja: req.LokasiKerja,
		Phone:       req.Phone,
		Status:      req.Status,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	u, err := h.Svc.UpdateUser(r.Context(), mux.Vars(r)["id"], patch, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

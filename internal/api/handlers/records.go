package handlers

import (
	"courier-service/internal/api/dto"
	"courier-service/internal/domain"
	"courier-service/internal/services"
	"net/http"

	"github.com/gorilla/mux"
)

type ActivityHandler struct {
	Svc *services.Service
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	acts, err := h.Svc.ListActivities(r.Context(), r.URL.Query().Get("kurirId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, acts)
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Svc.CreateActivity(r.Context(), services.CreateActivityRequest{
		KurirID:      req.KurirID,
		KurirName:    req.KurirName,
		ActivityType: req.ActivityType,
		Description:  req.Description,
		Lokasi:       req.Lokasi,
		Status:       req.Status,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, a)
}

type AttendanceHandler struct {
	Svc *services.Service
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.ListAttendance(r.Context(), r.URL.Query().Get("kurirId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rows)
}

func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Svc.CreateAttendance(r.Context(), services.CreateAttendanceRequest{
		KurirID:     req.KurirID,
		KurirName:   req.KurirName,
		Tanggal:     req.Tanggal,
		JamMasuk:    req.JamMasuk,
		JamKeluar:   req.JamKeluar,
		LokasiAbsen: req.LokasiAbsen,
		FotoAbsen:   req.FotoAbsen,
		Status:      req.Status,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, a)
}

type ApprovalHandler struct {
	Svc *services.Service
}

func (h *ApprovalHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Svc.ListApprovals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reqs)
}

func (h *ApprovalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Svc.ListPendingApprovals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reqs)
}

func (h *ApprovalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateApprovalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Svc.CreateApproval(r.Context(), services.CreateApprovalRequest{
		RequesterID:   req.RequesterID,
		RequesterName: req.RequesterName,
		RequestType:   req.RequestType,
		TargetAdminID: req.TargetAdminID,
		RequestData:   req.RequestData,
		CurrentData:   req.CurrentData,
		Notes:         req.Notes,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, a)
}

func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req dto.DecideApprovalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.Svc.DecideApproval(r.Context(), mux.Vars(r)["id"], domain.Decision{
		Status:     req.Status,
		ApprovedBy: req.ApprovedBy,
		Notes:      req.Notes,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

package handlers

import (
	"context"
	"courier-service/internal/api/dto"
	"courier-service/internal/apperr"
	"courier-service/internal/session"
	"courier-service/internal/workflow"
	"net/http"

	"github.com/gorilla/mux"
)

// WorkflowHandler serves the five step views of a courier's day under
// /api/workflow/{sessionId}. It owns no state; every call goes to the
// session's Store. Only sessions open in the registry get a Store.
type WorkflowHandler struct {
	Workflows *workflow.Manager
	Sessions  *session.Registry
}

func (h *WorkflowHandler) store(r *http.Request) (*workflow.Store, error) {
	sid := mux.Vars(r)["sessionId"]
	if sid == "" {
		return nil, apperr.Validation("session id is required")
	}
	if _, err := h.Sessions.Get(sid); err != nil {
		return nil, err
	}
	return h.Workflows.Get(r.Context(), sid)
}

// respond runs AutoProgress after a successful mutation and writes the new state.
func (h *WorkflowHandler) respond(ctx context.Context, w http.ResponseWriter, r *http.Request, st *workflow.Store, status int) {
	_, advanced, err := st.AutoProgress(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, status, dto.NewWorkflowResponse(st.Snapshot(), advanced))
}

func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewWorkflowResponse(st.Snapshot(), false))
}

func (h *WorkflowHandler) SaveInput(w http.ResponseWriter, r *http.Request) {
	var req dto.DailyInputRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := st.SaveDailyInput(r.Context(), req.TotalPackages, req.CODPackages, req.NonCODPackages); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(r.Context(), w, r, st, http.StatusOK)
}

func (h *WorkflowHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req dto.ScanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg, added, err := st.AddScannedPackage(r.Context(), req.TrackingNumber, req.IsCOD)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !added {
		writeError(w, r, apperr.Conflict("package already scanned"))
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.ScanResponse{
		Package: pkg,
		State:   dto.NewWorkflowResponse(st.Snapshot(), false),
	})
}

func (h *WorkflowHandler) RemoveScan(w http.ResponseWriter, r *http.Request) {
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := st.RemoveScannedPackage(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewWorkflowResponse(st.Snapshot(), false))
}

func (h *WorkflowHandler) CompleteScan(w http.ResponseWriter, r *http.Request) {
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !st.CanProceedToDelivery() {
		writeError(w, r, apperr.Validation("scan at least one package first"))
		return
	}
	if err := st.StartDelivery(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(r.Context(), w, r, st, http.StatusOK)
}

func (h *WorkflowHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	var req dto.DeliveredRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := st.MarkAsDelivered(r.Context(), mux.Vars(r)["id"], req.RecipientName, req.ProofPhoto); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(r.Context(), w, r, st, http.StatusOK)
}

func (h *WorkflowHandler) MarkPending(w http.ResponseWriter, r *http.Request) {
	var req dto.PendingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := st.MarkAsPending(r.Context(), mux.Vars(r)["id"], req.Reason); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(r.Context(), w, r, st, http.StatusOK)
}

func (h *WorkflowHandler) ReturnPending(w http.ResponseWriter, r *http.Request) {
	var req dto.ReturnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	n, err := st.ReturnAllPendingToWarehouse(r.Context(), req.LeaderName, req.ReturnPhoto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_, advanced, err := st.AutoProgress(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ReturnResponse{
		Returned: n,
		State:    dto.NewWorkflowResponse(st.Snapshot(), advanced),
	})
}

func (h *WorkflowHandler) Performance(w http.ResponseWriter, r *http.Request) {
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.PerformanceResponse{
		SessionID: st.SessionID(),
		Summary:   st.Summary(),
	})
}

func (h *WorkflowHandler) Reset(w http.ResponseWriter, r *http.Request) {
	st, err := h.store(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := st.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewWorkflowResponse(st.Snapshot(), false))
}

package handlers

import (
	"courier-service/internal/api/dto"
	"courier-service/internal/domain"
	"courier-service/internal/services"
	"net/http"

	"github.com/gorilla/mux"
)

// PackageHandler exposes the shipment records behind /api/packages.
type PackageHandler struct {
	Svc *services.Service
}

func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Svc.ListShipments(r.Context(), r.URL.Query().Get("kurirId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pkgs)
}

func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePackageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Svc.CreateShipment(r.Context(), services.CreateShipmentRequest{
		ResiNumber:     req.ResiNumber,
		KurirID:        req.KurirID,
		KurirName:      req.KurirName,
		Pengirim:       req.Pengirim,
		Penerima:       req.Penerima,
		AlamatPengirim: req.AlamatPengirim,
		AlamatPenerima: req.AlamatPenerima,
		Status:         req.Status,
		TanggalPickup:  req.TanggalPickup,
		Berat:          req.Berat,
		NilaiCOD:       req.NilaiCOD,
		Catatan:        req.Catatan,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, s)
}

func (h *PackageHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePackageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Svc.UpdateShipment(r.Context(), mux.Vars(r)["id"], domain.ShipmentPatch{
		Status:            req.Status,
		Catatan:           req.Catatan,
		FotoBuktiTerkirim: req.FotoBuktiTerkirim,
		TanggalTerkirim:   req.TanggalTerkirim,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s)
}

package services

import (
	"context"
	"courier-service/internal/apperr"
	"courier-service/internal/domain"
	"courier-service/internal/realtime"
	"fmt"
	"strings"
	"time"
)

type CreateShipmentRequest struct {
	ResiNumber     string
	KurirID        string
	KurirName      string
	Pengirim       string
	Penerima       string
	AlamatPengirim string
	AlamatPenerima string
	Status         string
	TanggalPickup  *time.Time
	Berat          float64
	NilaiCOD       float64
	Catatan        string
}

// ShipmentEvent is the payload of package_updated.
type ShipmentEvent struct {
	PackageID string `json:"packageId"`
	Status    string `json:"status"`
	KurirID   string `json:"kurirId"`
}

func (s *Service) ListShipments(ctx context.Context, kurirID string) ([]*domain.Shipment, error) {
	out, err := s.Repos.Shipments.ListShipments(ctx, strings.TrimSpace(kurirID))
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	return out, nil
}

func (s *Service) CreateShipment(ctx context.Context, req CreateShipmentRequest, actor string) (*domain.Shipment, error) {
	status := req.Status
	if status == "" {
		status = domain.ShipmentPickup
	}
	if !domain.ValidShipmentStatus(status) {
		return nil, apperr.Validation(fmt.Sprintf("invalid status_pengiriman %q", status))
	}
	if req.Berat < 0 || req.NilaiCOD < 0 {
		return nil, apperr.Validation("berat and nilai_cod cannot be negative")
	}

	now := s.now().UTC()
	sh := &domain.Shipment{
		ID:             s.newID(),
		ResiNumber:     strings.TrimSpace(req.ResiNumber),
		KurirID:        req.KurirID,
		KurirName:      req.KurirName,
		Pengirim:       req.Pengirim,
		Penerima:       req.Penerima,
		AlamatPengirim: req.AlamatPengirim,
		AlamatPenerima: req.AlamatPenerima,
		Status:         status,
		TanggalPickup:  req.TanggalPickup,
		Berat:          req.Berat,
		NilaiCOD:       req.NilaiCOD,
		Catatan:        req.Catatan,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if sh.Status == domain.ShipmentDelivered {
		sh.TanggalTerkirim = &now
	}

	if err := s.Repos.Shipments.CreateShipment(ctx, sh); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	s.Events.Broadcast(realtime.TypePackageCreated, sh, actor)
	return sh, nil
}

func (s *Service) UpdateShipment(ctx context.Context, id string, patch domain.ShipmentPatch, actor string) (*domain.Shipment, error) {
	if patch.Status != nil && !domain.ValidShipmentStatus(*patch.Status) {
		return nil, apperr.Validation(fmt.Sprintf("invalid status_pengiriman %q", *patch.Status))
	}

	sh, err := s.Repos.Shipments.UpdateShipment(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}

	s.Events.Broadcast(realtime.TypePackageUpdated, ShipmentEvent{
		PackageID: sh.ID,
		Status:    sh.Status,
		KurirID:   sh.KurirID,
	}, actor)
	return sh, nil
}

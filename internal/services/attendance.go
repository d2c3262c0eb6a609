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

type CreateAttendanceRequest struct {
	KurirID     string
	KurirName   string
	Tanggal     string
	JamMasuk    string
	JamKeluar   string
	LokasiAbsen string
	FotoAbsen   string
	Status      string
}

// AttendanceEvent is the payload of attendance_created.
type AttendanceEvent struct {
	KurirID   string `json:"kurirId"`
	KurirName string `json:"kurirName"`
	CheckIn   string `json:"checkIn,omitempty"`
}

func (s *Service) ListAttendance(ctx context.Context, kurirID string) ([]*domain.Attendance, error) {
	out, err := s.Repos.Attendance.ListAttendance(ctx, strings.TrimSpace(kurirID))
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return out, nil
}

// CreateAttendance records a day's attendance. Tanggal defaults to today and
// total hours are computed when both check-in and check-out are given.
func (s *Service) CreateAttendance(ctx context.Context, req CreateAttendanceRequest, actor string) (*domain.Attendance, error) {
	now := s.now().UTC()

	tanggal := strings.TrimSpace(req.Tanggal)
	if tanggal == "" {
		tanggal = now.Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, tanggal); err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid tanggal %q", req.Tanggal))
	}

	status := req.Status
	if status == "" {
		status = domain.AttendancePresent
	}
	if !domain.ValidAttendanceStatus(status) {
		return nil, apperr.Validation(fmt.Sprintf("invalid status %q", status))
	}

	a := &domain.Attendance{
		ID:          s.newID(),
		KurirID:     req.KurirID,
		KurirName:   req.KurirName,
		Tanggal:     tanggal,
		JamMasuk:    req.JamMasuk,
		JamKeluar:   req.JamKeluar,
		LokasiAbsen: req.LokasiAbsen,
		FotoAbsen:   req.FotoAbsen,
		Status:      status,
		CreatedAt:   now,
	}

	if a.JamMasuk != "" && a.JamKeluar != "" {
		hours, err := domain.WorkedHours(a.JamMasuk, a.JamKeluar)
		if err != nil {
			return nil, apperr.Validation(err.Error()).Wrap(err)
		}
		a.TotalJam = &hours
	}

	if err := s.Repos.Attendance.CreateAttendance(ctx, a); err != nil {
		return nil, fmt.Errorf("create attendance: %w", err)
	}

	s.Events.Broadcast(realtime.TypeAttendanceCreated, AttendanceEvent{
		KurirID:   a.KurirID,
		KurirName: a.KurirName,
		CheckIn:   a.JamMasuk,
	}, actor)
	return a, nil
}

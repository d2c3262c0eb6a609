package dto

import "encoding/json"

type CreateActivityRequest struct {
	KurirID      string `json:"kurir_id" validate:"required"`
	KurirName    string `json:"kurir_name" validate:"required"`
	ActivityType string `json:"activity_type" validate:"required"`
	Description  string `json:"description"`
	Lokasi       string `json:"lokasi"`
	Status       string `json:"status"`
}

type CreateAttendanceRequest struct {
	KurirID     string `json:"kurir_id" validate:"required"`
	KurirName   string `json:"kurir_name" validate:"required"`
	Tanggal     string `json:"tanggal"`
	JamMasuk    string `json:"jam_masuk"`
	JamKeluar   string `json:"jam_keluar"`
	LokasiAbsen string `json:"lokasi_absen"`
	FotoAbsen   string `json:"foto_absen"`
	Status      string `json:"status" validate:"omitempty,oneof=hadir terlambat izin sakit alpha"`
}

type CreateApprovalRequest struct {
	RequesterID   string          `json:"requester_id" validate:"required"`
	RequesterName string          `json:"requester_name" validate:"required"`
	RequestType   string          `json:"request_type" validate:"required"`
	TargetAdminID string          `json:"target_admin_id"`
	RequestData   json.RawMessage `json:"request_data" validate:"required"`
	CurrentData   json.RawMessage `json:"current_data"`
	Notes         string          `json:"notes"`
}

type DecideApprovalRequest struct {
	Status     string  `json:"status" validate:"required,oneof=approved rejected"`
	ApprovedBy string  `json:"approved_by"`
	Notes      *string `json:"notes"`
}

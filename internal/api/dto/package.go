package dto

import "time"

type CreatePackageRequest struct {
	ResiNumber     string     `json:"resi_number" validate:"required,max=64"`
	KurirID        string     `json:"kurir_id" validate:"required"`
	KurirName      string     `json:"kurir_name" validate:"required"`
	Pengirim       string     `json:"pengirim" validate:"required"`
	Penerima       string     `json:"penerima" validate:"required"`
	AlamatPengirim string     `json:"alamat_pengirim" validate:"required"`
	AlamatPenerima string     `json:"alamat_penerima" validate:"required"`
	Status         string     `json:"status_pengiriman" validate:"omitempty,oneof=pickup dalam_perjalanan terkirim pending dikembalikan"`
	TanggalPickup  *time.Time `json:"tanggal_pickup"`
	Berat          float64    `json:"berat" validate:"gte=0"`
	NilaiCOD       float64    `json:"nilai_cod" validate:"gte=0"`
	Catatan        string     `json:"catatan"`
}

type UpdatePackageRequest struct {
	Status            *string    `json:"status_pengiriman" validate:"omitempty,oneof=pickup dalam_perjalanan terkirim pending dikembalikan"`
	Catatan           *string    `json:"catatan"`
	FotoBuktiTerkirim *string    `json:"foto_bukti_terkirim"`
	TanggalTerkirim   *time.Time `json:"tanggal_terkirim"`
}

type UploadPhotoResponse struct {
	Success  bool   `json:"success"`
	PhotoURL string `json:"photoUrl"`
	Message  string `json:"message"`
}

type DeleteFileRequest struct {
	FilePath string `json:"filePath" validate:"required"`
}

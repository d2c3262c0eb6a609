package domain

import "time"

// Delivery status values stored on a Shipment.
const (
	ShipmentPickup    = "pickup"
	ShipmentInTransit = "dalam_perjalanan"
	ShipmentDelivered = "terkirim"
	ShipmentPending   = "pending"
	ShipmentReturned  = "dikembalikan"
)

// ValidShipmentStatus reports whether s is a known delivery status.
func ValidShipmentStatus(s string) bool {
	switch s {
	case ShipmentPickup, ShipmentInTransit, ShipmentDelivered, ShipmentPending, ShipmentReturned:
		return true
	}
	return false
}

// Represents a persisted package record tracked by the back office.
// Unlike the per-session workflow Package, a Shipment is shared by every
// dashboard and identified by its resi (waybill) number.
type Shipment struct {
	ID                string     `json:"id"`
	ResiNumber        string     `json:"resi_number"`
	KurirID           string     `json:"kurir_id"`
	KurirName         string     `json:"kurir_name"`
	Pengirim          string     `json:"pengirim"`
	Penerima          string     `json:"penerima"`
	AlamatPengirim    string     `json:"alamat_pengirim"`
	AlamatPenerima    string     `json:"alamat_penerima"`
	Status            string     `json:"status_pengiriman"`
	TanggalPickup     *time.Time `json:"tanggal_pickup,omitempty"`
	TanggalTerkirim   *time.Time `json:"tanggal_terkirim,omitempty"`
	Berat             float64    `json:"berat"`
	NilaiCOD          float64    `json:"nilai_cod"`
	Catatan           string     `json:"catatan,omitempty"`
	FotoBuktiTerkirim string     `json:"foto_bukti_terkirim,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsCOD reports whether the shipment collects payment on delivery.
func (s Shipment) IsCOD() bool { return s.NilaiCOD > 0 }

// ShipmentPatch carries the mutable shipment fields; nil means unchanged.
type ShipmentPatch struct {
	Status            *string
	Catatan           *string
	FotoBuktiTerkirim *string
	TanggalTerkirim   *time.Time
}

// Apply copies the set fields of p onto s.
// Moving a shipment to the delivered status stamps TanggalTerkirim when unset.
func (p ShipmentPatch) Apply(s *Shipment, now time.Time) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Catatan != nil {
		s.Catatan = *p.Catatan
	}
	if p.FotoBuktiTerkirim != nil {
		s.FotoBuktiTerkirim = *p.FotoBuktiTerkirim
	}
	if p.TanggalTerkirim != nil {
		t := *p.TanggalTerkirim
		s.TanggalTerkirim = &t
	}
	if s.Status == ShipmentDelivered && s.TanggalTerkirim == nil {
		t := now
		s.TanggalTerkirim = &t
	}
}

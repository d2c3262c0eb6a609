package domain

import "time"

type Role string

const (
	RoleMasterAdmin Role = "master_admin"
	RoleAdmin       Role = "admin"
	RolePIC         Role = "pic"
	RoleKurir       Role = "kurir"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMasterAdmin, RoleAdmin, RolePIC, RoleKurir:
		return true
	}
	return false
}

const (
	UserStatusActive   = "aktif"
	UserStatusInactive = "nonaktif"
)

// Represents an account that can sign in to the dashboards.
// UserID is the human-facing login handle; ID is the storage key.
type User struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Wilayah      string    `json:"wilayah,omitempty"`
	Area         string    `json:"area,omitempty"`
	LokasiKerja  string    `json:"lokasi_kerja,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserPatch carries the mutable user fields; nil means unchanged.
type UserPatch struct {
	Name        *string
	Role        *Role
	Wilayah     *string
	Area        *string
	LokasiKerja *string
	Phone       *string
	Status      *string
}

// Apply copies the set fields of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Wilayah != nil {
		u.Wilayah = *p.Wilayah
	}
	if p.Area != nil {
		u.Area = *p.Area
	}
	if p.LokasiKerja != nil {
		u.LokasiKerja = *p.LokasiKerja
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
}

package dto

type CreateUserRequest struct {
	UserID      string `json:"user_id" validate:"required,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Name        string `json:"name" validate:"required,max=120"`
	Role        string `json:"role" validate:"required,oneof=master_admin admin pic kurir"`
	Wilayah     string `json:"wilayah"`
	Area        string `json:"area"`
	LokasiKerja string `json:"lokasi_kerja"`
	Phone       string `json:"phone"`
	Status      string `json:"status" validate:"omitempty,oneof=aktif nonaktif"`
}

type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Role        *string `json:"role" validate:"omitempty,oneof=master_admin admin pic kurir"`
	Wilayah     *string `json:"wilayah"`
	Area        *string `json:"area"`
	LokasiKerja *string `json:"lokasi_kerja"`
	Phone       *string `json:"phone"`
	Status      *string `json:"status" validate:"omitempty,oneof=aktif nonaktif"`
}

package domain

import "time"

// Represents one logged courier action (pickup, delivery, return, ...).
type KurirActivity struct {
	ID           string    `json:"id"`
	KurirID      string    `json:"kurir_id"`
	KurirName    string    `json:"kurir_name"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description,omitempty"`
	Lokasi       string    `json:"lokasi,omitempty"`
	Waktu        time.Time `json:"waktu"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	AttendancePresent = "hadir"
	AttendanceLate    = "terlambat"
	AttendanceLeave   = "izin"
	AttendanceSick    = "sakit"
	AttendanceAbsent  = "alpha"
)

// ValidAttendanceStatus reports whether s is a known attendance status.
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceLeave, AttendanceSick, AttendanceAbsent:
		return true
	}
	return false
}

// Represents a courier's attendance for a single day.
// JamMasuk and JamKeluar are wall-clock times formatted as HH:MM[:SS].
type Attendance struct {
	ID          string    `json:"id"`
	KurirID     string    `json:"kurir_id"`
	KurirName   string    `json:"kurir_name"`
	Tanggal     string    `json:"tanggal"`
	JamMasuk    string    `json:"jam_masuk,omitempty"`
	JamKeluar   string    `json:"jam_keluar,omitempty"`
	LokasiAbsen string    `json:"lokasi_absen,omitempty"`
	FotoAbsen   string    `json:"foto_absen,omitempty"`
	Status      string    `json:"status"`
	TotalJam    *float64  `json:"total_jam,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkedHours returns the hours between check-in and check-out, rounded to
// two decimals. A check-out earlier than check-in is treated as crossing midnight.
func WorkedHours(jamMasuk, jamKeluar string) (float64, error) {
	in, err := parseClock(jamMasuk)
	if err != nil {
		return 0, fmt.Errorf("worked hours: check-in: %w", err)
	}
	out, err := parseClock(jamKeluar)
	if err != nil {
		return 0, fmt.Errorf("worked hours: check-out: %w", err)
	}

	d := out - in
	if d < 0 {
		d += 24 * time.Hour
	}
	return math.Round(d.Hours()*100) / 100, nil
}

func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q", s)
}

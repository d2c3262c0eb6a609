package repositories

import (
	"context"
	"courier-service/internal/domain"
	"courier-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

type UserSeed struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Wilayah     string `json:"wilayah"`
	Area        string `json:"area"`
	LokasiKerja string `json:"lokasi_kerja"`
	Phone       string `json:"phone"`
}

type ShipmentSeed struct {
	ResiNumber     string  `json:"resi_number"`
	KurirUserID    string  `json:"kurir_user_id"`
	Pengirim       string  `json:"pengirim"`
	Penerima       string  `json:"penerima"`
	AlamatPengirim string  `json:"alamat_pengirim"`
	AlamatPenerima string  `json:"alamat_penerima"`
	Berat          float64 `json:"berat"`
	NilaiCOD       float64 `json:"nilai_cod"`
}

type SeedFile struct {
	Users    []UserSeed     `json:"users"`
	Packages []ShipmentSeed `json:"packages"`
}

// SeedResult counts the records written; existing records are skipped.
type SeedResult struct {
	Users     int
	Shipments int
}

// SeedFromJSON populates the stores with demo accounts and packages.
// Passwords are bcrypt-hashed before storage. Re-running is harmless:
// records whose unique keys already exist are left untouched.
func SeedFromJSON(ctx context.Context, repos ports.Repositories, jsonPath string) (SeedResult, error) {
	var res SeedResult

	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return res, fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data SeedFile
	if err := json.Unmarshal(bytes, &data); err != nil {
		return res, fmt.Errorf("seed: parse json: %w", err)
	}

	for i, u := range data.Users {
		if strings.TrimSpace(u.UserID) == "" || strings.TrimSpace(u.Email) == "" {
			return res, fmt.Errorf("seed: user at index %d: user_id and email are required", i+1)
		}
		if !domain.Role(u.Role).Valid() {
			return res, fmt.Errorf("seed: user at index %d: invalid role %q", i+1, u.Role)
		}
		if u.Password == "" {
			return res, fmt.Errorf("seed: user at index %d: password cannot be empty", i+1)
		}
	}

	// bcrypt dominates seeding time; hash in parallel.
	hashes := make([]string, len(data.Users))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, u := range data.Users {
		g.Go(func() error {
			h, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("seed: hash password for %q: %w", u.UserID, err)
			}
			hashes[i] = string(h)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	now := time.Now().UTC()
	kurirNames := make(map[string]*domain.User, len(data.Users))

	for i, s := range data.Users {
		u := &domain.User{
			ID:           uuid.NewString(),
			UserID:       s.UserID,
			Email:        strings.ToLower(strings.TrimSpace(s.Email)),
			PasswordHash: hashes[i],
			Name:         s.Name,
			Role:         domain.Role(s.Role),
			Wilayah:      s.Wilayah,
			Area:         s.Area,
			LokasiKerja:  s.LokasiKerja,
			Phone:        s.Phone,
			Status:       domain.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := repos.Users.CreateUser(ctx, u)
		switch {
		case err == nil:
			res.Users++
		case errors.Is(err, ports.ErrConflict):
			existing, err := repos.Users.GetUserByUserID(ctx, s.UserID)
			if err != nil {
				return res, fmt.Errorf("seed: load existing user %q: %w", s.UserID, err)
			}
			u = existing
		default:
			return res, fmt.Errorf("seed: %w", err)
		}
		kurirNames[u.UserID] = u
	}

	for i, s := range data.Packages {
		kurir, ok := kurirNames[s.KurirUserID]
		if !ok {
			return res, fmt.Errorf("seed: package at index %d: unknown kurir_user_id %q", i+1, s.KurirUserID)
		}
		if strings.TrimSpace(s.ResiNumber) == "" {
			return res, fmt.Errorf("seed: package at index %d: resi_number cannot be empty", i+1)
		}

		pickup := now
		sh := &domain.Shipment{
			ID:             uuid.NewString(),
			ResiNumber:     strings.TrimSpace(s.ResiNumber),
			KurirID:        kurir.UserID,
			KurirName:      kurir.Name,
			Pengirim:       s.Pengirim,
			Penerima:       s.Penerima,
			AlamatPengirim: s.AlamatPengirim,
			AlamatPenerima: s.AlamatPenerima,
			Status:         domain.ShipmentPickup,
			TanggalPickup:  &pickup,
			Berat:          s.Berat,
			NilaiCOD:       s.NilaiCOD,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err := repos.Shipments.CreateShipment(ctx, sh)
		switch {
		case err == nil:
			res.Shipments++
		case errors.Is(err, ports.ErrConflict):
		default:
			return res, fmt.Errorf("seed: %w", err)
		}
	}

	return res, nil
}

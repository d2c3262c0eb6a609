package services

import (
	"context"
	"courier-service/internal/apperr"
	"courier-service/internal/domain"
	"fmt"
	"io"
	"strings"
)

// MaxPhotoBytes caps uploaded delivery photos.
const MaxPhotoBytes = 5 << 20

type UploadPhotoRequest struct {
	PackageID   string
	UserID      string
	ContentType string
	Body        io.Reader
}

type UploadPhotoResult struct {
	PhotoURL string           `json:"photoUrl"`
	Package  *domain.Shipment `json:"package"`
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadDeliveryPhoto stores the proof-of-delivery photo and marks the
// package as delivered with the photo URL attached.
func (s *Service) UploadDeliveryPhoto(ctx context.Context, req UploadPhotoRequest, actor string) (UploadPhotoResult, error) {
	if s.Photos == nil {
		return UploadPhotoResult{}, fmt.Errorf("upload delivery photo: no photo store configured")
	}
	if strings.TrimSpace(req.PackageID) == "" {
		return UploadPhotoResult{}, apperr.Validation("packageId is required")
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return UploadPhotoResult{}, apperr.Validation("only image files are allowed")
	}

	// Fail before uploading so no orphan photo is stored.
	if _, err := s.Repos.Shipments.GetShipment(ctx, req.PackageID); err != nil {
		return UploadPhotoResult{}, fmt.Errorf("upload delivery photo: %w", err)
	}

	owner := strings.TrimSpace(req.UserID)
	if owner == "" {
		owner = "anonymous"
	}
	ext, ok := photoExtensions[req.ContentType]
	if !ok {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s/delivery-%s-%d%s", owner, req.PackageID, s.now().UnixMilli(), ext)

	url, err := s.Photos.Upload(ctx, name, req.ContentType, req.Body)
	if err != nil {
		return UploadPhotoResult{}, fmt.Errorf("upload delivery photo: %w", err)
	}

	status := domain.ShipmentDelivered
	sh, err := s.UpdateShipment(ctx, req.PackageID, domain.ShipmentPatch{
		Status:            &status,
		FotoBuktiTerkirim: &url,
	}, actor)
	if err != nil {
		return UploadPhotoResult{}, fmt.Errorf("upload delivery photo: %w", err)
	}

	return UploadPhotoResult{PhotoURL: url, Package: sh}, nil
}

// DeletePhoto removes a stored photo by object name.
func (s *Service) DeletePhoto(ctx context.Context, name string) error {
	if s.Photos == nil {
		return fmt.Errorf("delete photo: no photo store configured")
	}
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("filePath is required")
	}
	if err := s.Photos.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

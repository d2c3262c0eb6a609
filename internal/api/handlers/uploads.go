package handlers

import (
	"courier-service/internal/api/dto"
	"courier-service/internal/apperr"
	"courier-service/internal/services"
	"errors"
	"net/http"
)

// multipartOverhead is the slack allowed on top of the photo for form fields
// and part headers.
const multipartOverhead = 64 << 10

type UploadHandler struct {
	Svc *services.Service
}

// DeliveryPhoto accepts a multipart form with the fields photo, packageId and
// userId.
func (h *UploadHandler) DeliveryPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoBytes+multipartOverhead)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, apperr.Validation("file too large, max 5MB"))
			return
		}
		writeError(w, r, apperr.Validation("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, r, apperr.Validation("no photo uploaded"))
		return
	}
	defer file.Close()

	if header.Size > services.MaxPhotoBytes {
		writeError(w, r, apperr.Validation("file too large, max 5MB"))
		return
	}

	res, err := h.Svc.UploadDeliveryPhoto(r.Context(), services.UploadPhotoRequest{
		PackageID:   r.FormValue("packageId"),
		UserID:      r.FormValue("userId"),
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.UploadPhotoResponse{
		Success:  true,
		PhotoURL: res.PhotoURL,
		Message:  "photo uploaded and package marked as delivered",
	})
}

func (h *UploadHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Svc.DeletePhoto(r.Context(), req.FilePath); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true, "message": "file deleted"})
}

package ports

import (
	"context"
	"io"
)

// Port: object storage for delivery and attendance photos.
type PhotoStore interface {
	// Store the object under name and return its public URL.
	Upload(ctx context.Context, name string, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

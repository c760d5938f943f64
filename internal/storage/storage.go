package storage

import (
	"context"
	"errors"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// UploadTarget is a short-lived location a client may PUT a file to. The
// Ref is what the client later hands back to attach the upload.
type UploadTarget struct {
	Ref       string    `json:"ref"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ObjectStorage is the blob store holding avatars and images. The core only
// keeps opaque references into it.
type ObjectStorage interface {
	GenerateUploadTarget(ctx context.Context) (*UploadTarget, error)
	ResolveURL(ctx context.Context, ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

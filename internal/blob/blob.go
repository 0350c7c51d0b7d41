// Package blob stores uploaded images and resolves storage ids to URLs.
package blob

import (
	"context"
	"errors"
	"regexp"
)

// MaxUploadBytes caps a single upload (10MB).
const MaxUploadBytes = 10 << 20

var (
	ErrInvalidToken = errors.New("blob: invalid or expired upload token")
	ErrNotFound     = errors.New("blob: not found")
	ErrTooLarge     = errors.New("blob: file too large")
)

var idPattern = regexp.MustCompile(`^[0-9a-f-]{36}$`)

// validID rejects anything that is not a storage id we issued, so ids can
// be used as file and object names directly.
func validID(id string) bool {
	return idPattern.MatchString(id)
}

// Upload is a short-lived grant to upload one blob.
type Upload struct {
	URL       string `json:"uploadUrl"`
	StorageID string `json:"storageId"`
}

// Store is the blob store seen by the services.
type Store interface {
	// NewUpload issues an upload URL for a fresh storage id.
	NewUpload(ctx context.Context) (Upload, error)
	// URL resolves a storage id. ok is false when no such blob exists.
	URL(ctx context.Context, id string) (url string, ok bool, err error)
}

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSStore issues V4 signed URLs against a Cloud Storage bucket. Clients
// upload directly to GCS; the server only signs.
type GCSStore struct {
	client      *storage.Client
	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
}

// NewGCSStore builds a client from a service account key file, or from
// application default credentials when credentialsFile is empty.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, uploadTTL, downloadTTL time.Duration) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSStore{
		client:      client,
		bucket:      bucket,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
	}, nil
}

var _ io.Closer = (*GCSStore)(nil)

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) NewUpload(ctx context.Context) (Upload, error) {
	id := uuid.NewString()
	url, err := s.client.Bucket(s.bucket).SignedURL(id, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "PUT",
		Expires: time.Now().Add(s.uploadTTL),
	})
	if err != nil {
		return Upload{}, fmt.Errorf("sign upload url: %w", err)
	}
	return Upload{URL: url, StorageID: id}, nil
}

func (s *GCSStore) URL(ctx context.Context, id string) (string, bool, error) {
	if !validID(id) {
		return "", false, nil
	}
	handle := s.client.Bucket(s.bucket)
	if _, err := handle.Object(id).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat object %s: %w", id, err)
	}
	url, err := handle.SignedURL(id, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(s.downloadTTL),
	})
	if err != nil {
		return "", false, fmt.Errorf("sign download url: %w", err)
	}
	return url, true, nil
}

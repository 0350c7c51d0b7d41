package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const uploadAudience = "blob-upload"

// LocalStore keeps blobs on disk under Dir and hands out JWT-signed
// upload URLs that point back at this server.
type LocalStore struct {
	dir       string
	secret    []byte
	baseURL   string
	uploadTTL time.Duration
	now       func() time.Time
}

// NewLocalStore creates dir if needed. baseURL is the public origin of
// the API, e.g. "http://localhost:8080".
func NewLocalStore(dir string, secret []byte, baseURL string, uploadTTL time.Duration) (*LocalStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("blob: signing secret is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create blob directory %s: %w", dir, err)
	}
	return &LocalStore{
		dir:       dir,
		secret:    secret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		uploadTTL: uploadTTL,
		now:       time.Now,
	}, nil
}

type meta struct {
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *LocalStore) NewUpload(ctx context.Context) (Upload, error) {
	id := uuid.NewString()
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Audience:  jwt.ClaimStrings{uploadAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.uploadTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Upload{}, fmt.Errorf("sign upload token: %w", err)
	}
	return Upload{
		URL:       s.baseURL + "/api/blobs/upload/" + token,
		StorageID: id,
	}, nil
}

// VerifyUpload returns the storage id granted by token.
func (s *LocalStore) VerifyUpload(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(uploadAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !validID(claims.Subject) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Put stores the body under the id granted by token. Reading stops at
// MaxUploadBytes.
func (s *LocalStore) Put(ctx context.Context, token, contentType string, body io.Reader) (string, error) {
	id, err := s.VerifyUpload(token)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(s.metaPath(id)); err == nil {
		// token already used
		return "", ErrInvalidToken
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(body, MaxUploadBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	if n > MaxUploadBytes {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The meta sidecar is created exclusively and claims the id; the blob
	// itself only appears once its meta is in place.
	if err := s.claim(id, meta{ContentType: contentType, Size: n, CreatedAt: s.now()}); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		os.Remove(s.metaPath(id))
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return id, nil
}

func (s *LocalStore) claim(id string, m meta) error {
	f, err := os.OpenFile(s.metaPath(id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if errors.Is(err, fs.ErrExist) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("claim blob: %w", err)
	}
	err = json.NewEncoder(f).Encode(m)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(s.metaPath(id))
		return fmt.Errorf("write blob meta: %w", err)
	}
	return nil
}

// Open returns the blob content and its content type.
func (s *LocalStore) Open(ctx context.Context, id string) (io.ReadCloser, string, error) {
	if !validID(id) {
		return nil, "", ErrNotFound
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	contentType := "application/octet-stream"
	if raw, err := os.ReadFile(s.metaPath(id)); err == nil {
		var m meta
		if json.Unmarshal(raw, &m) == nil && m.ContentType != "" {
			contentType = m.ContentType
		}
	}
	return f, contentType, nil
}

func (s *LocalStore) URL(ctx context.Context, id string) (string, bool, error) {
	if !validID(id) {
		return "", false, nil
	}
	_, err := os.Stat(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.baseURL + "/api/blobs/" + id, true, nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, id)
}

func (s *LocalStore) metaPath(id string) string {
	return s.path(id) + ".json"
}

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
	"github.com/lekhapadi/lekhapadi-backend/pkg/storage/gcs"
)

// Store persists binary artifacts and addresses them by public URL.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Get(ctx context.Context, url string) ([]byte, error)
	Delete(ctx context.Context, url string) error
}

// UniqueName builds a collision-resistant object name such as
// "signed_8c1f...pdf" that keeps a readable prefix and extension.
func UniqueName(prefix, ext string) string {
	prefix = sanitize(prefix)
	if prefix == "" {
		prefix = "document"
	}
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	name := prefix + "_" + uuid.NewString()
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// ExtensionOf returns the lowercased extension of a file name without the dot.
func ExtensionOf(fileName string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
}

func sanitize(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '/' || r == '.':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

type objectStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) error
	Download(ctx context.Context, bucket, object string, maxBytes int64) ([]byte, error)
	DeleteObject(ctx context.Context, bucket, object string) error
	PublicURL(bucket, object string) string
	ObjectFromURL(raw string) (bucket, object string, ok bool)
}

// GCSStore keeps artifacts in a Cloud Storage bucket.
type GCSStore struct {
	client   objectStore
	bucket   string
	maxBytes int64
}

// NewGCSStore wires the store to the bucket; maxBytes bounds downloads.
func NewGCSStore(client objectStore, bucket string, maxBytes int64) (*GCSStore, error) {
	if client == nil {
		return nil, errors.New("gcs client required")
	}
	return &GCSStore{client: client, bucket: bucket, maxBytes: maxBytes}, nil
}

func (s *GCSStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "artifact is empty")
	}
	if err := s.client.Upload(ctx, s.bucket, name, contentType, data); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeStorage, err, "upload artifact")
	}
	return s.client.PublicURL(s.bucket, name), nil
}

func (s *GCSStore) Get(ctx context.Context, url string) ([]byte, error) {
	object, err := s.objectOf(url)
	if err != nil {
		return nil, err
	}
	data, err := s.client.Download(ctx, s.bucket, object, s.maxBytes)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "artifact missing from storage")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "download artifact")
	}
	return data, nil
}

func (s *GCSStore) Delete(ctx context.Context, url string) error {
	object, err := s.objectOf(url)
	if err != nil {
		return err
	}
	if err := s.client.DeleteObject(ctx, s.bucket, object); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete artifact")
	}
	return nil
}

// objectOf resolves url to an object name, refusing anything outside the
// configured bucket.
func (s *GCSStore) objectOf(url string) (string, error) {
	bucket, object, ok := s.client.ObjectFromURL(url)
	if !ok || bucket != s.bucket || object == "" {
		return "", pkgerrors.New(pkgerrors.CodeStorage, fmt.Sprintf("artifact url %q is not managed by this service", url))
	}
	return object, nil
}

// Package gcs stores agency documents in a Google Cloud Storage bucket.
// Uploads never pass through the API server, clients PUT directly against
// a short-lived signed URL.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"backoffice/internal/domain/files"
)

// DefaultSignedURLTTL is how long an upload URL stays usable.
const DefaultSignedURLTTL = 15 * time.Minute

// Store implements files.ObjectStore on a single bucket.
type Store struct {
	client *storage.Client
	bucket string
	ttl    time.Duration
}

var _ files.ObjectStore = (*Store)(nil)

// NewStore wraps an already authenticated client. The client carries the
// signing identity, so no extra credentials are needed here.
func NewStore(client *storage.Client, bucket string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		ttl:    DefaultSignedURLTTL,
	}
}

// SignedPutURL issues a V4 signed URL the client uploads the object to.
// The Content-Type is part of the signature, the upload must send the
// same value.
func (s *Store) SignedPutURL(_ context.Context, objectKey, contentType string) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(objectKey, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      "PUT",
		Expires:     time.Now().Add(s.ttl),
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("sign upload url: %w", err)
	}
	return url, nil
}

// Delete removes the object. A missing object is not an error, the row
// may have been created without the upload ever completing.
func (s *Store) Delete(ctx context.Context, objectKey string) error {
	err := s.client.Bucket(s.bucket).Object(objectKey).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete object %s: %w", objectKey, err)
	}
	return nil
}

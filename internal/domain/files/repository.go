package files

import (
	"context"
	"time"

	"backoffice/internal/core/id"
)

// Repository persists asset metadata.
type Repository interface {
	Get(ctx context.Context, assetID id.ID) (*Asset, error)
	Create(ctx context.Context, asset *Asset) error
	SetStatus(ctx context.Context, assetID id.ID, status string) error
	Delete(ctx context.Context, assetID id.ID) error

	// UsedBytes sums the sizes of every asset of the agency, pending rows
	// included since they reserve quota.
	UsedBytes(ctx context.Context, agencyID string) (int64, error)

	// ExpiredPending returns pending assets created before the cutoff.
	ExpiredPending(ctx context.Context, agencyID string, cutoff time.Time) ([]Asset, error)
}

// ObjectStore abstracts the bucket the agency documents live in.
type ObjectStore interface {
	// SignedPutURL issues a short-lived URL the client PUTs the object to.
	SignedPutURL(ctx context.Context, objectKey, contentType string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

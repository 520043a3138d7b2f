// Package files manages uploaded document metadata and the per-agency
// storage quota.
package files

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
)

// Asset lifecycle states. A pending row was issued an upload URL but the
// client never confirmed the upload; pending rows older than the TTL are
// garbage-collected.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// PendingTTL is how long an unconfirmed upload reserves quota.
const PendingTTL = 24 * time.Hour

// Asset is the metadata row for one stored object. Ownership is exclusive:
// exactly one of BookingID, ClientID or ServiceID is set.
type Asset struct {
	ID       id.ID  `json:"id" db:"id"`
	AgencyID string `json:"agencyId" db:"agency_id"`

	BookingID *id.ID `json:"bookingId,omitempty" db:"booking_id"`
	ClientID  *id.ID `json:"clientId,omitempty" db:"client_id"`
	ServiceID *id.ID `json:"serviceId,omitempty" db:"service_id"`

	FileName    string `json:"fileName" db:"file_name"`
	ContentType string `json:"contentType" db:"content_type"`
	SizeBytes   int64  `json:"sizeBytes" db:"size_bytes"`
	ObjectKey   string `json:"objectKey" db:"object_key"`
	Status      string `json:"status" db:"status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
}

func (a *Asset) Validate(ctx context.Context) error {
	owners := 0
	if a.BookingID != nil {
		owners++
	}
	if a.ClientID != nil {
		owners++
	}
	if a.ServiceID != nil {
		owners++
	}
	if owners != 1 {
		return apperror.NewValidation("asset must belong to exactly one of booking, client or service").
			WithDetail("owners", owners)
	}
	if a.FileName == "" {
		return apperror.NewValidation("file name is required").
			WithDetail("field", "fileName")
	}
	if a.SizeBytes <= 0 {
		return apperror.NewValidation("file size must be positive").
			WithDetail("field", "sizeBytes")
	}
	return nil
}

package receipts

import (
	"context"

	"backoffice/internal/core/id"
)

// Repository persists receipts.
type Repository interface {
	Get(ctx context.Context, receiptID id.ID) (*Receipt, error)
	Create(ctx context.Context, receipt *Receipt) error
	Delete(ctx context.Context, receiptID id.ID) error
	ListByBooking(ctx context.Context, bookingID id.ID) ([]Receipt, error)

	// CountReferencingPayments returns how many client payments point at
	// the receipt. Used to block deletion of referenced receipts.
	CountReferencingPayments(ctx context.Context, receiptID id.ID) (int64, error)
}

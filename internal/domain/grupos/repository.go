package grupos

import (
	"context"

	"backoffice/internal/core/id"
)

// GroupRepository reads group and passenger rows.
type GroupRepository interface {
	GetGroup(ctx context.Context, groupID id.ID) (*TravelGroup, error)

	// GetPassengers resolves passenger IDs within a group. Passengers that
	// do not exist or belong to another group are simply absent from the
	// result; callers compare lengths to detect scope violations.
	GetPassengers(ctx context.Context, groupID id.ID, passengerIDs []id.ID) ([]Passenger, error)

	ListGroupPassengers(ctx context.Context, groupID id.ID) ([]Passenger, error)

	// ServiceBookings maps each service ID to the booking that owns it.
	ServiceBookings(ctx context.Context, serviceIDs []id.ID) (map[id.ID]id.ID, error)
}

// PaymentRepository persists client payments and their audit trail.
type PaymentRepository interface {
	GetPayments(ctx context.Context, paymentIDs []id.ID) ([]ClientPayment, error)

	// ListPending returns all PENDIENTE payments for a (booking, client)
	// pair, oldest due date first.
	ListPending(ctx context.Context, bookingID, clientID id.ID) ([]ClientPayment, error)

	CreatePayment(ctx context.Context, payment *ClientPayment) error

	// SetStatus transitions one payment. The settle fields are only
	// written for PAGADA transitions.
	SetStatus(ctx context.Context, payment *ClientPayment) error

	CreateAudit(ctx context.Context, audit *PaymentAudit) error
}

// TemplateRepository reads payment templates with their items.
type TemplateRepository interface {
	GetTemplate(ctx context.Context, templateID id.ID) (*PaymentTemplate, error)
}

// Package grupos implements group travel products: passengers, installment
// plans and the bulk collection of pending payments.
package grupos

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// PaymentStatus is the lifecycle state of a client payment.
type PaymentStatus string

const (
	StatusPendiente PaymentStatus = "PENDIENTE"
	StatusPagada    PaymentStatus = "PAGADA"
	StatusCancelada PaymentStatus = "CANCELADA"
)

// TravelGroup is a group-travel product with shared departures. A locked
// group rejects every bulk mutation.
type TravelGroup struct {
	ID        id.ID      `json:"id" db:"id"`
	AgencyID  string     `json:"agencyId" db:"agency_id"`
	Name      string     `json:"name" db:"name"`
	StartDate *time.Time `json:"startDate,omitempty" db:"start_date"`
	Locked    bool       `json:"locked" db:"locked"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Passenger links a person travelling with a group to the booking and
// client rows that carry their money.
type Passenger struct {
	ID        id.ID  `json:"id" db:"id"`
	GroupID   id.ID  `json:"groupId" db:"group_id"`
	BookingID id.ID  `json:"bookingId" db:"booking_id"`
	ClientID  id.ID  `json:"clientId" db:"client_id"`
	FullName  string `json:"fullName" db:"full_name"`
}

// ClientPayment is one installment owed by a client against a booking.
type ClientPayment struct {
	ID        id.ID  `json:"id" db:"id"`
	AgencyID  string `json:"agencyId" db:"agency_id"`
	BookingID id.ID  `json:"bookingId" db:"booking_id"`
	ClientID  id.ID  `json:"clientId" db:"client_id"`
	ServiceID *id.ID `json:"serviceId,omitempty" db:"service_id"`

	Amount   types.Money   `json:"amount" db:"amount"`
	Currency string        `json:"currency" db:"currency"`
	DueDate  time.Time     `json:"dueDate" db:"due_date"`
	Status   PaymentStatus `json:"status" db:"status"`

	PaidAt    *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	PaidBy    string     `json:"paidBy,omitempty" db:"paid_by"`
	ReceiptID *id.ID     `json:"receiptId,omitempty" db:"receipt_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
}

func (p *ClientPayment) Validate(ctx context.Context) error {
	if id.IsNil(p.BookingID) || id.IsNil(p.ClientID) {
		return apperror.NewValidation("payment requires a booking and a client")
	}
	if p.Amount.IsZero() || p.Amount.IsNegative() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if p.Currency == "" {
		return apperror.NewValidation("payment currency is required").
			WithDetail("field", "currency")
	}
	return nil
}

// PaymentAudit is an append-only record of one status transition. Rows are
// never mutated or deleted.
type PaymentAudit struct {
	ID         id.ID         `json:"id" db:"id"`
	PaymentID  id.ID         `json:"paymentId" db:"payment_id"`
	FromStatus PaymentStatus `json:"fromStatus" db:"from_status"`
	ToStatus   PaymentStatus `json:"toStatus" db:"to_status"`
	ChangedBy  string        `json:"changedBy" db:"changed_by"`
	ChangedAt  time.Time     `json:"changedAt" db:"changed_at"`
	Note       string        `json:"note,omitempty" db:"note"`
}

// PaymentTemplate is an agency-scoped named installment plan. Items store
// day offsets rather than absolute dates; a generation run copies the
// values, so later template edits never touch already generated plans.
type PaymentTemplate struct {
	ID        id.ID          `json:"id" db:"id"`
	AgencyID  string         `json:"agencyId" db:"agency_id"`
	Name      string         `json:"name" db:"name"`
	Items     []TemplateItem `json:"items" db:"-"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// TemplateItem is one relative installment of a template.
type TemplateItem struct {
	DueInDays int         `json:"dueInDays" db:"due_in_days"`
	Amount    types.Money `json:"amount" db:"amount"`
	Currency  string      `json:"currency" db:"currency"`
	ServiceID *id.ID      `json:"serviceId,omitempty" db:"service_id"`
}

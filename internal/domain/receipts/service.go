package receipts

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain/money"
	"backoffice/pkg/logger"
)

// Service manages receipt issuance and reversal-safe deletion.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Issue creates a receipt. Called by booking collection flows and by the
// bulk collection engine, which runs it inside its own transaction.
func (s *Service) Issue(ctx context.Context, receipt *Receipt) error {
	if receipt.AgencyID == "" {
		receipt.AgencyID = appctx.GetAgencyID(ctx)
	}
	receipt.Currency = money.Normalize(receipt.Currency)
	if receipt.PaymentFeeCurrency != "" {
		receipt.PaymentFeeCurrency = money.Normalize(receipt.PaymentFeeCurrency)
	}
	if err := receipt.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(receipt.ID) {
		receipt.ID = id.New()
	}
	if receipt.IssueDate.IsZero() {
		receipt.IssueDate = time.Now().UTC()
	}
	receipt.CreatedAt = time.Now().UTC()
	if receipt.CreatedBy == "" {
		receipt.CreatedBy = appctx.GetUserID(ctx)
	}

	if err := s.repo.Create(ctx, receipt); err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}

	logger.Info(ctx, "receipt issued",
		"receipt_id", receipt.ID,
		"booking_id", receipt.BookingID,
		"amount", receipt.Amount.String(),
		"currency", receipt.Currency)
	return nil
}

// Get retrieves a receipt after an agency-scope check.
func (s *Service) Get(ctx context.Context, receiptID id.ID) (*Receipt, error) {
	receipt, err := s.repo.Get(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListByBooking returns the receipts issued against a booking.
func (s *Service) ListByBooking(ctx context.Context, bookingID id.ID) ([]Receipt, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

// Delete removes a receipt that no client payment references. Referenced
// receipts must first have their payments reverted to PENDIENTE.
func (s *Service) Delete(ctx context.Context, receiptID id.ID) error {
	receipt, err := s.repo.Get(ctx, receiptID)
	if err != nil {
		return err
	}
	if err := s.checkScope(ctx, receipt); err != nil {
		return err
	}

	refs, err := s.repo.CountReferencingPayments(ctx, receiptID)
	if err != nil {
		return fmt.Errorf("count referencing payments: %w", err)
	}
	if refs > 0 {
		return apperror.NewConflict(apperror.CodeReceiptReferenced, "Receipt is referenced by client payments").
			WithSolution("Revertí primero las cuotas cobradas con este recibo.").
			WithDetail("receipt_id", receiptID).
			WithDetail("payment_count", refs)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, receiptID)
	})
}

func (s *Service) checkScope(ctx context.Context, receipt *Receipt) error {
	agencyID := appctx.GetAgencyID(ctx)
	if agencyID != "" && receipt.AgencyID != agencyID {
		return apperror.NewForbidden("receipt belongs to another agency").
			WithDetail("receipt_id", receipt.ID)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/receipts"
)

// ReceiptRepo implements receipts.Repository.
type ReceiptRepo struct {
	txManager *TxManager
	cols      []string
}

var _ receipts.Repository = (*ReceiptRepo)(nil)

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txManager *TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		txManager: txManager,
		cols:      ExtractDBColumns[receipts.Receipt](),
	}
}

// Get retrieves a receipt with its service links.
func (r *ReceiptRepo) Get(ctx context.Context, receiptID id.ID) (*receipts.Receipt, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("receipts").
		Where(squirrel.Eq{"id": receiptID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var receipt receipts.Receipt
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &receipt, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("receipt", receiptID)
	}
	if err != nil {
		return nil, fmt.Errorf("query receipt: %w", err)
	}

	if err := r.loadServiceIDs(ctx, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Create inserts the receipt row and its service links.
func (r *ReceiptRepo) Create(ctx context.Context, receipt *receipts.Receipt) error {
	sql, args, err := builder().
		Insert("receipts").
		SetMap(StructToMap(receipt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	for _, serviceID := range receipt.ServiceIDs {
		linkSQL := `INSERT INTO receipt_services (receipt_id, service_id) VALUES ($1, $2)`
		if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, linkSQL, receipt.ID, serviceID); err != nil {
			return fmt.Errorf("insert receipt service link: %w", err)
		}
	}
	return nil
}

// Delete removes a receipt and its service links.
func (r *ReceiptRepo) Delete(ctx context.Context, receiptID id.ID) error {
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM receipt_services WHERE receipt_id = $1`, receiptID); err != nil {
		return fmt.Errorf("delete receipt service links: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM receipts WHERE id = $1`, receiptID)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("receipt", receiptID)
	}
	return nil
}

// ListByBooking returns the receipts of a booking, newest first.
func (r *ReceiptRepo) ListByBooking(ctx context.Context, bookingID id.ID) ([]receipts.Receipt, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("receipts").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("issue_date DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var list []receipts.Receipt
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	for i := range list {
		if err := r.loadServiceIDs(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// CountReferencingPayments counts client payments pointing at a receipt.
func (r *ReceiptRepo) CountReferencingPayments(ctx context.Context, receiptID id.ID) (int64, error) {
	var count int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT count(*) FROM client_payments WHERE receipt_id = $1`, receiptID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count referencing payments: %w", err)
	}
	return count, nil
}

func (r *ReceiptRepo) loadServiceIDs(ctx context.Context, receipt *receipts.Receipt) error {
	rows, err := r.txManager.GetQuerier(ctx).Query(ctx,
		`SELECT service_id FROM receipt_services WHERE receipt_id = $1`, receipt.ID)
	if err != nil {
		return fmt.Errorf("query receipt services: %w", err)
	}
	defer rows.Close()

	receipt.ServiceIDs = nil
	for rows.Next() {
		var serviceID id.ID
		if err := rows.Scan(&serviceID); err != nil {
			return fmt.Errorf("scan receipt service: %w", err)
		}
		receipt.ServiceIDs = append(receipt.ServiceIDs, serviceID)
	}
	return rows.Err()
}

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
	"backoffice/internal/domain/grupos"
)

// GroupRepo implements grupos.GroupRepository.
type GroupRepo struct {
	txManager *TxManager
	groupCols []string
	paxCols   []string
}

var _ grupos.GroupRepository = (*GroupRepo)(nil)

// NewGroupRepo creates a new group repository.
func NewGroupRepo(txManager *TxManager) *GroupRepo {
	return &GroupRepo{
		txManager: txManager,
		groupCols: ExtractDBColumns[grupos.TravelGroup](),
		paxCols:   ExtractDBColumns[grupos.Passenger](),
	}
}

// GetGroup retrieves a travel group by ID.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID id.ID) (*grupos.TravelGroup, error) {
	sql, args, err := builder().
		Select(r.groupCols...).
		From("travel_groups").
		Where(squirrel.Eq{"id": groupID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var group grupos.TravelGroup
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &group, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("travel group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("query travel group: %w", err)
	}
	return &group, nil
}

// GetPassengers resolves passenger IDs within a group.
func (r *GroupRepo) GetPassengers(ctx context.Context, groupID id.ID, passengerIDs []id.ID) ([]grupos.Passenger, error) {
	sql, args, err := builder().
		Select(r.paxCols...).
		From("group_passengers").
		Where(squirrel.Eq{"group_id": groupID, "id": passengerIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var passengers []grupos.Passenger
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &passengers, sql, args...); err != nil {
		return nil, fmt.Errorf("query passengers: %w", err)
	}
	return passengers, nil
}

// ListGroupPassengers returns every passenger of a group.
func (r *GroupRepo) ListGroupPassengers(ctx context.Context, groupID id.ID) ([]grupos.Passenger, error) {
	sql, args, err := builder().
		Select(r.paxCols...).
		From("group_passengers").
		Where(squirrel.Eq{"group_id": groupID}).
		OrderBy("full_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var passengers []grupos.Passenger
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &passengers, sql, args...); err != nil {
		return nil, fmt.Errorf("query group passengers: %w", err)
	}
	return passengers, nil
}

// ServiceBookings maps service IDs to their owning bookings.
func (r *GroupRepo) ServiceBookings(ctx context.Context, serviceIDs []id.ID) (map[id.ID]id.ID, error) {
	sql, args, err := builder().
		Select("id", "booking_id").
		From("services").
		Where(squirrel.Eq{"id": serviceIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query service bookings: %w", err)
	}
	defer rows.Close()

	out := make(map[id.ID]id.ID, len(serviceIDs))
	for rows.Next() {
		var serviceID, bookingID id.ID
		if err := rows.Scan(&serviceID, &bookingID); err != nil {
			return nil, fmt.Errorf("scan service booking: %w", err)
		}
		out[serviceID] = bookingID
	}
	return out, rows.Err()
}

// PaymentRepo implements grupos.PaymentRepository.
type PaymentRepo struct {
	txManager   *TxManager
	paymentCols []string
}

var _ grupos.PaymentRepository = (*PaymentRepo)(nil)

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txManager *TxManager) *PaymentRepo {
	return &PaymentRepo{
		txManager:   txManager,
		paymentCols: ExtractDBColumns[grupos.ClientPayment](),
	}
}

// GetPayments loads payments by ID.
func (r *PaymentRepo) GetPayments(ctx context.Context, paymentIDs []id.ID) ([]grupos.ClientPayment, error) {
	sql, args, err := builder().
		Select(r.paymentCols...).
		From("client_payments").
		Where(squirrel.Eq{"id": paymentIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var payments []grupos.ClientPayment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	return payments, nil
}

// ListPending returns PENDIENTE payments of a (booking, client) pair.
func (r *PaymentRepo) ListPending(ctx context.Context, bookingID, clientID id.ID) ([]grupos.ClientPayment, error) {
	sql, args, err := builder().
		Select(r.paymentCols...).
		From("client_payments").
		Where(squirrel.Eq{
			"booking_id": bookingID,
			"client_id":  clientID,
			"status":     grupos.StatusPendiente,
		}).
		OrderBy("due_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var payments []grupos.ClientPayment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("query pending payments: %w", err)
	}
	return payments, nil
}

// CreatePayment inserts an installment row.
func (r *PaymentRepo) CreatePayment(ctx context.Context, payment *grupos.ClientPayment) error {
	sql, args, err := builder().
		Insert("client_payments").
		SetMap(StructToMap(payment)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert client payment: %w", err)
	}
	return nil
}

// SetStatus transitions a payment, writing the settle columns with it.
func (r *PaymentRepo) SetStatus(ctx context.Context, payment *grupos.ClientPayment) error {
	sql, args, err := builder().
		Update("client_payments").
		Set("status", payment.Status).
		Set("paid_at", payment.PaidAt).
		Set("paid_by", payment.PaidBy).
		Set("receipt_id", payment.ReceiptID).
		Where(squirrel.Eq{"id": payment.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("client payment", payment.ID)
	}
	return nil
}

// CreateAudit appends one status transition record.
func (r *PaymentRepo) CreateAudit(ctx context.Context, audit *grupos.PaymentAudit) error {
	sql, args, err := builder().
		Insert("client_payment_audits").
		SetMap(StructToMap(audit)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment audit: %w", err)
	}
	return nil
}

// TemplateRepo implements grupos.TemplateRepository.
type TemplateRepo struct {
	txManager *TxManager
}

var _ grupos.TemplateRepository = (*TemplateRepo)(nil)

// NewTemplateRepo creates a new template repository.
func NewTemplateRepo(txManager *TxManager) *TemplateRepo {
	return &TemplateRepo{txManager: txManager}
}

// GetTemplate loads a template with its items, ordered by offset.
func (r *TemplateRepo) GetTemplate(ctx context.Context, templateID id.ID) (*grupos.PaymentTemplate, error) {
	sql, args, err := builder().
		Select("id", "agency_id", "name", "created_at").
		From("payment_templates").
		Where(squirrel.Eq{"id": templateID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var tpl grupos.PaymentTemplate
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &tpl, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("payment template", templateID)
	}
	if err != nil {
		return nil, fmt.Errorf("query payment template: %w", err)
	}

	itemsSQL := `
		SELECT due_in_days, amount, currency, service_id
		FROM payment_template_items
		WHERE template_id = $1
		ORDER BY due_in_days
	`
	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, itemsSQL, templateID)
	if err != nil {
		return nil, fmt.Errorf("query template items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item grupos.TemplateItem
		if err := rows.Scan(&item.DueInDays, &item.Amount, &item.Currency, &item.ServiceID); err != nil {
			return nil, fmt.Errorf("scan template item: %w", err)
		}
		tpl.Items = append(tpl.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/services"
)

// ServiceRepo implements services.Repository.
type ServiceRepo struct {
	txManager *TxManager
	cols      []string
}

var _ services.Repository = (*ServiceRepo)(nil)

// NewServiceRepo creates a new service repository.
func NewServiceRepo(txManager *TxManager) *ServiceRepo {
	return &ServiceRepo{
		txManager: txManager,
		cols:      ExtractDBColumns[services.Service](),
	}
}

// GetBooking loads the minimal booking projection.
func (r *ServiceRepo) GetBooking(ctx context.Context, bookingID id.ID) (*services.Booking, error) {
	var booking services.Booking
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &booking,
		`SELECT id, agency_id, client_id FROM bookings WHERE id = $1`, bookingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("booking", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("query booking: %w", err)
	}
	return &booking, nil
}

// GetService retrieves a service by ID.
func (r *ServiceRepo) GetService(ctx context.Context, serviceID id.ID) (*services.Service, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("services").
		Where(squirrel.Eq{"id": serviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var svc services.Service
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &svc, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("service", serviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("query service: %w", err)
	}
	return &svc, nil
}

// ListByBooking returns the services of a booking in creation order.
func (r *ServiceRepo) ListByBooking(ctx context.Context, bookingID id.ID) ([]services.Service, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("services").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var list []services.Service
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("query booking services: %w", err)
	}
	return list, nil
}

// CreateService inserts a service.
func (r *ServiceRepo) CreateService(ctx context.Context, service *services.Service) error {
	sql, args, err := builder().
		Insert("services").
		SetMap(StructToMap(service)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

// UpdateService overwrites a service row.
func (r *ServiceRepo) UpdateService(ctx context.Context, service *services.Service) error {
	data := StructToMap(service)
	delete(data, "id")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	sql, args, err := builder().
		Update("services").
		SetMap(data).
		Where(squirrel.Eq{"id": service.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("service", service.ID)
	}
	return nil
}

// ConfigRepo implements services.ConfigRepository.
type ConfigRepo struct {
	txManager *TxManager
	cols      []string
}

var _ services.ConfigRepository = (*ConfigRepo)(nil)

// NewConfigRepo creates a new agency config repository.
func NewConfigRepo(txManager *TxManager) *ConfigRepo {
	return &ConfigRepo{
		txManager: txManager,
		cols:      ExtractDBColumns[services.AgencyConfig](),
	}
}

// GetConfig loads the agency defaults row.
func (r *ConfigRepo) GetConfig(ctx context.Context, agencyID string) (*services.AgencyConfig, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("agency_configs").
		Where(squirrel.Eq{"agency_id": agencyID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var config services.AgencyConfig
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &config, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("agency config", agencyID)
	}
	if err != nil {
		return nil, fmt.Errorf("query agency config: %w", err)
	}
	return &config, nil
}

// UpsertConfig writes the agency defaults row.
func (r *ConfigRepo) UpsertConfig(ctx context.Context, config *services.AgencyConfig) error {
	sql := `
		INSERT INTO agency_configs (
			agency_id, default_currency, default_transfer_fee_pct,
			storage_quota_bytes, updated_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (agency_id) DO UPDATE SET
			default_currency = EXCLUDED.default_currency,
			default_transfer_fee_pct = EXCLUDED.default_transfer_fee_pct,
			storage_quota_bytes = EXCLUDED.storage_quota_bytes,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		config.AgencyID, config.DefaultCurrency, config.DefaultTransferFee,
		config.StorageQuotaBytes, config.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert agency config: %w", err)
	}
	return nil
}

// StorageQuota satisfies files.QuotaResolver. Zero means unlimited.
func (r *ConfigRepo) StorageQuota(ctx context.Context, agencyID string) (int64, error) {
	config, err := r.GetConfig(ctx, agencyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return config.StorageQuotaBytes, nil
}

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
	"backoffice/internal/domain/files"
)

// FileRepo implements files.Repository.
type FileRepo struct {
	txManager *TxManager
	cols      []string
}

var _ files.Repository = (*FileRepo)(nil)

// NewFileRepo creates a new file asset repository.
func NewFileRepo(txManager *TxManager) *FileRepo {
	return &FileRepo{
		txManager: txManager,
		cols:      ExtractDBColumns[files.Asset](),
	}
}

// Get retrieves an asset by ID.
func (r *FileRepo) Get(ctx context.Context, assetID id.ID) (*files.Asset, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("file_assets").
		Where(squirrel.Eq{"id": assetID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var asset files.Asset
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &asset, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("file asset", assetID)
	}
	if err != nil {
		return nil, fmt.Errorf("query file asset: %w", err)
	}
	return &asset, nil
}

// Create inserts an asset row.
func (r *FileRepo) Create(ctx context.Context, asset *files.Asset) error {
	sql, args, err := builder().
		Insert("file_assets").
		SetMap(StructToMap(asset)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert file asset: %w", err)
	}
	return nil
}

// SetStatus transitions an asset row.
func (r *FileRepo) SetStatus(ctx context.Context, assetID id.ID, status string) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`UPDATE file_assets SET status = $1 WHERE id = $2`, status, assetID)
	if err != nil {
		return fmt.Errorf("update asset status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("file asset", assetID)
	}
	return nil
}

// Delete removes an asset row.
func (r *FileRepo) Delete(ctx context.Context, assetID id.ID) error {
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM file_assets WHERE id = $1`, assetID); err != nil {
		return fmt.Errorf("delete file asset: %w", err)
	}
	return nil
}

// UsedBytes sums asset sizes for an agency, pending rows included.
func (r *FileRepo) UsedBytes(ctx context.Context, agencyID string) (int64, error) {
	var used int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT coalesce(sum(size_bytes), 0) FROM file_assets WHERE agency_id = $1`,
		agencyID).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("sum storage usage: %w", err)
	}
	return used, nil
}

// ExpiredPending returns stale pending assets.
func (r *FileRepo) ExpiredPending(ctx context.Context, agencyID string, cutoff time.Time) ([]files.Asset, error) {
	sql, args, err := builder().
		Select(r.cols...).
		From("file_assets").
		Where(squirrel.Eq{"agency_id": agencyID, "status": files.StatusPending}).
		Where(squirrel.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var assets []files.Asset
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &assets, sql, args...); err != nil {
		return nil, fmt.Errorf("query expired pending assets: %w", err)
	}
	return assets, nil
}

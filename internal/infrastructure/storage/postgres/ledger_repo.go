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
	"backoffice/internal/core/types"
	"backoffice/internal/domain/ledger"
)

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager   *TxManager
	accountCols []string
	entryCols   []string
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager:   txManager,
		accountCols: ExtractDBColumns[ledger.CreditAccount](),
		entryCols:   ExtractDBColumns[ledger.CreditEntry](),
	}
}

// GetAccount retrieves an account by ID.
func (r *LedgerRepo) GetAccount(ctx context.Context, accountID id.ID) (*ledger.CreditAccount, error) {
	sql, args, err := builder().
		Select(r.accountCols...).
		From("credit_accounts").
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var account ledger.CreditAccount
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &account, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("credit account", accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("query credit account: %w", err)
	}
	return &account, nil
}

// GetAccountForUpdate locks the account row for the rest of the
// transaction. Must run inside RunInTransaction.
func (r *LedgerRepo) GetAccountForUpdate(ctx context.Context, accountID id.ID) (*ledger.CreditAccount, error) {
	sql, args, err := builder().
		Select(r.accountCols...).
		From("credit_accounts").
		Where(squirrel.Eq{"id": accountID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select for update: %w", err)
	}

	var account ledger.CreditAccount
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &account, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("credit account", accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock credit account: %w", err)
	}
	return &account, nil
}

// CreateAccount inserts an account.
func (r *LedgerRepo) CreateAccount(ctx context.Context, account *ledger.CreditAccount) error {
	sql, args, err := builder().
		Insert("credit_accounts").
		SetMap(StructToMap(account)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert credit account: %w", err)
	}
	return nil
}

// AddToBalance increments the account balance atomically.
func (r *LedgerRepo) AddToBalance(ctx context.Context, accountID id.ID, delta types.Money) error {
	sql := `
		UPDATE credit_accounts
		SET balance = balance + $1, updated_at = now()
		WHERE id = $2
	`
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, delta, accountID)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("credit account", accountID)
	}
	return nil
}

// SetBalance overwrites the account balance. Used by the delete path after
// re-reading the row under lock.
func (r *LedgerRepo) SetBalance(ctx context.Context, accountID id.ID, balance types.Money) error {
	sql := `
		UPDATE credit_accounts
		SET balance = $1, updated_at = now()
		WHERE id = $2
	`
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, balance, accountID)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("credit account", accountID)
	}
	return nil
}

// GetEntry retrieves an entry by ID.
func (r *LedgerRepo) GetEntry(ctx context.Context, entryID id.ID) (*ledger.CreditEntry, error) {
	sql, args, err := builder().
		Select(r.entryCols...).
		From("credit_entries").
		Where(squirrel.Eq{"id": entryID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var entry ledger.CreditEntry
	err = pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &entry, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("credit entry", entryID)
	}
	if err != nil {
		return nil, fmt.Errorf("query credit entry: %w", err)
	}
	return &entry, nil
}

// CreateEntry inserts an entry.
func (r *LedgerRepo) CreateEntry(ctx context.Context, entry *ledger.CreditEntry) error {
	sql, args, err := builder().
		Insert("credit_entries").
		SetMap(StructToMap(entry)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert credit entry: %w", err)
	}
	return nil
}

// UpdateEntryMetadata updates the non-financial columns only. Amount and
// currency are deliberately not in the SET list.
func (r *LedgerRepo) UpdateEntryMetadata(ctx context.Context, entry *ledger.CreditEntry) error {
	sql, args, err := builder().
		Update("credit_entries").
		Set("concept", entry.Concept).
		Set("value_date", entry.ValueDate).
		Set("doc_type", entry.DocType).
		Set("reference", entry.Reference).
		Where(squirrel.Eq{"id": entry.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update credit entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("credit entry", entry.ID)
	}
	return nil
}

// DeleteEntry removes an entry row.
func (r *LedgerRepo) DeleteEntry(ctx context.Context, entryID id.ID) error {
	sql, args, err := builder().
		Delete("credit_entries").
		Where(squirrel.Eq{"id": entryID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete credit entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("credit entry", entryID)
	}
	return nil
}

// ListEntries returns all entries of an account, newest first.
func (r *LedgerRepo) ListEntries(ctx context.Context, accountID id.ID) ([]ledger.CreditEntry, error) {
	sql, args, err := builder().
		Select(r.entryCols...).
		From("credit_entries").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("value_date DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var entries []ledger.CreditEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("query credit entries: %w", err)
	}
	return entries, nil
}

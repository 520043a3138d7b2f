package ledger

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

// Repository defines credit account/entry persistence.
type Repository interface {
	// GetAccount retrieves an account by id.
	GetAccount(ctx context.Context, accountID id.ID) (*CreditAccount, error)

	// GetAccountForUpdate retrieves an account with a row lock. Must be
	// called inside a transaction.
	GetAccountForUpdate(ctx context.Context, accountID id.ID) (*CreditAccount, error)

	// CreateAccount inserts a new account.
	CreateAccount(ctx context.Context, account *CreditAccount) error

	// AddToBalance increments the account balance by delta.
	AddToBalance(ctx context.Context, accountID id.ID, delta types.Money) error

	// SetBalance persists an absolute balance value.
	SetBalance(ctx context.Context, accountID id.ID, balance types.Money) error

	// GetEntry retrieves an entry by id.
	GetEntry(ctx context.Context, entryID id.ID) (*CreditEntry, error)

	// CreateEntry inserts a new entry.
	CreateEntry(ctx context.Context, entry *CreditEntry) error

	// UpdateEntryMetadata persists concept/value_date/doc_type/reference.
	UpdateEntryMetadata(ctx context.Context, entry *CreditEntry) error

	// DeleteEntry removes an entry row.
	DeleteEntry(ctx context.Context, entryID id.ID) error

	// ListEntries returns all entries of an account, newest first.
	ListEntries(ctx context.Context, accountID id.ID) ([]CreditEntry, error)
}

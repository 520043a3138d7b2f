package ledger

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/tx"
	"backoffice/pkg/logger"
)

// ChangeRecorder records entity change snapshots inside the surrounding
// transaction. Implemented by the postgres audit trail.
type ChangeRecorder interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service provides the credit-entry engine.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     ChangeRecorder // optional
}

// NewService creates a new ledger service.
func NewService(repo Repository, txManager tx.Manager, audit ChangeRecorder) *Service {
	return &Service{repo: repo, txManager: txManager, audit: audit}
}

// CreateAccount creates a credit account with zero balance.
func (s *Service) CreateAccount(ctx context.Context, account *CreditAccount) error {
	if account.AgencyID == "" {
		account.AgencyID = appctx.GetAgencyID(ctx)
	}
	if err := account.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(account.ID) {
		account.ID = id.New()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	logger.Info(ctx, "credit account created", "account_id", account.ID, "currency", account.Currency)
	return nil
}

// GetAccount retrieves an account after an agency-scope check.
func (s *Service) GetAccount(ctx context.Context, accountID id.ID) (*CreditAccount, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// CreateEntry appends a signed entry and increments the account balance in
// the same transaction. Either both happen or neither does.
func (s *Service) CreateEntry(ctx context.Context, entry *CreditEntry) error {
	account, err := s.repo.GetAccount(ctx, entry.AccountID)
	if err != nil {
		return err
	}
	if err := s.checkScope(ctx, account); err != nil {
		return err
	}

	if entry.Currency == "" {
		entry.Currency = account.Currency
	}
	if err := entry.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.ValueDate.IsZero() {
		entry.ValueDate = time.Now().UTC()
	}
	entry.CreatedAt = time.Now().UTC()
	if entry.CreatedBy == "" {
		entry.CreatedBy = appctx.GetUserID(ctx)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		if err := s.repo.AddToBalance(ctx, entry.AccountID, entry.Amount); err != nil {
			return fmt.Errorf("apply balance delta: %w", err)
		}
		return s.recordChange(ctx, entry.ID, "create", map[string]any{
			"amount":   entry.Amount.String(),
			"currency": entry.Currency,
			"concept":  entry.Concept,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "credit entry created",
		"entry_id", entry.ID,
		"account_id", entry.AccountID,
		"amount", entry.Amount.String())
	return nil
}

// DeleteEntry reverses and removes a standalone manual adjustment.
//
// Entries linked to another financial document (booking, receipt,
// investment, operator due) are rejected with a conflict regardless of
// role: unlinking would silently desynchronize the originating document.
func (s *Service) DeleteEntry(ctx context.Context, entryID id.ID) error {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	account, err := s.repo.GetAccount(ctx, entry.AccountID)
	if err != nil {
		return err
	}
	if err := s.checkScope(ctx, account); err != nil {
		return err
	}
	if entry.IsLinked() {
		return apperror.NewLinkedEntry(entryID)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Re-read under lock so the compensation applies to the balance
		// as it stands inside this transaction.
		locked, err := s.repo.GetAccountForUpdate(ctx, entry.AccountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}
		if err := s.repo.SetBalance(ctx, locked.ID, locked.Balance.Sub(entry.Amount)); err != nil {
			return fmt.Errorf("revert balance: %w", err)
		}
		if err := s.repo.DeleteEntry(ctx, entryID); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return s.recordChange(ctx, entryID, "delete", map[string]any{
			"amount": entry.Amount.String(),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "credit entry deleted",
		"entry_id", entryID,
		"account_id", entry.AccountID,
		"amount", entry.Amount.String())
	return nil
}

// UpdateEntry mutates non-financial metadata only. The API surface simply
// has no way to change amount or currency.
func (s *Service) UpdateEntry(ctx context.Context, entryID id.ID, upd EntryUpdate) (*CreditEntry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.GetAccount(ctx, entry.AccountID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, account); err != nil {
		return nil, err
	}

	if upd.Concept != nil {
		if *upd.Concept == "" {
			return nil, apperror.NewValidation("concept must not be empty").
				WithDetail("field", "concept")
		}
		entry.Concept = *upd.Concept
	}
	if upd.ValueDate != nil {
		entry.ValueDate = *upd.ValueDate
	}
	if upd.DocType != nil {
		entry.DocType = *upd.DocType
	}
	if upd.Reference != nil {
		entry.Reference = *upd.Reference
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateEntryMetadata(ctx, entry); err != nil {
			return fmt.Errorf("update entry metadata: %w", err)
		}
		return s.recordChange(ctx, entry.ID, "update", map[string]any{
			"concept":   entry.Concept,
			"reference": entry.Reference,
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEntry retrieves an entry after an agency-scope check.
func (s *Service) GetEntry(ctx context.Context, entryID id.ID) (*CreditEntry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.GetAccount(ctx, entry.AccountID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, account); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns all entries of an account, newest first.
func (s *Service) ListEntries(ctx context.Context, accountID id.ID) ([]CreditEntry, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, accountID)
}

// checkScope rejects cross-agency access before any transactional work.
func (s *Service) checkScope(ctx context.Context, account *CreditAccount) error {
	agencyID := appctx.GetAgencyID(ctx)
	if agencyID != "" && account.AgencyID != agencyID {
		return apperror.NewForbidden("credit account belongs to another agency").
			WithDetail("account_id", account.ID)
	}
	return nil
}

func (s *Service) recordChange(ctx context.Context, entryID id.ID, action string, changes map[string]any) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, "credit_entry", entryID, action, changes)
}

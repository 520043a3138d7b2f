package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

type fakeRepo struct {
	accounts map[id.ID]*CreditAccount
	entries  map[id.ID]*CreditEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts: make(map[id.ID]*CreditAccount),
		entries:  make(map[id.ID]*CreditEntry),
	}
}

func (r *fakeRepo) GetAccount(_ context.Context, accountID id.ID) (*CreditAccount, error) {
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("credit account", accountID)
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeRepo) GetAccountForUpdate(ctx context.Context, accountID id.ID) (*CreditAccount, error) {
	return r.GetAccount(ctx, accountID)
}

func (r *fakeRepo) CreateAccount(_ context.Context, account *CreditAccount) error {
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *fakeRepo) AddToBalance(_ context.Context, accountID id.ID, delta types.Money) error {
	acc, ok := r.accounts[accountID]
	if !ok {
		return apperror.NewNotFound("credit account", accountID)
	}
	acc.Balance = acc.Balance.Add(delta)
	return nil
}

func (r *fakeRepo) SetBalance(_ context.Context, accountID id.ID, balance types.Money) error {
	acc, ok := r.accounts[accountID]
	if !ok {
		return apperror.NewNotFound("credit account", accountID)
	}
	acc.Balance = balance
	return nil
}

func (r *fakeRepo) GetEntry(_ context.Context, entryID id.ID) (*CreditEntry, error) {
	e, ok := r.entries[entryID]
	if !ok {
		return nil, apperror.NewNotFound("credit entry", entryID)
	}
	cp := *e
	return &cp, nil
}

func (r *fakeRepo) CreateEntry(_ context.Context, entry *CreditEntry) error {
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateEntryMetadata(_ context.Context, entry *CreditEntry) error {
	stored, ok := r.entries[entry.ID]
	if !ok {
		return apperror.NewNotFound("credit entry", entry.ID)
	}
	stored.Concept = entry.Concept
	stored.ValueDate = entry.ValueDate
	stored.DocType = entry.DocType
	stored.Reference = entry.Reference
	return nil
}

func (r *fakeRepo) DeleteEntry(_ context.Context, entryID id.ID) error {
	if _, ok := r.entries[entryID]; !ok {
		return apperror.NewNotFound("credit entry", entryID)
	}
	delete(r.entries, entryID)
	return nil
}

func (r *fakeRepo) ListEntries(_ context.Context, accountID id.ID) ([]CreditEntry, error) {
	var out []CreditEntry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func userCtx(agencyID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "user-1",
		AgencyID: agencyID,
		Role:     "administrativo",
	})
}

func setupLedger(t *testing.T, agencyID string) (*Service, *fakeRepo, *CreditAccount) {
	t.Helper()
	repo := newFakeRepo()
	svc := NewService(repo, passthroughTx{}, nil)

	account := &CreditAccount{
		Name:     "Cuenta corriente cliente",
		Currency: "ARS",
	}
	require.NoError(t, svc.CreateAccount(userCtx(agencyID), account))
	return svc, repo, account
}

func TestCreateEntryUpdatesBalance(t *testing.T) {
	ctx := userCtx("agency-1")
	svc, _, account := setupLedger(t, "agency-1")

	deltas := []string{"100.00", "-40.00", "15.50"}
	for _, d := range deltas {
		entry := &CreditEntry{
			AccountID: account.ID,
			Amount:    types.MustMoney(d),
			Concept:   "Ajuste manual",
		}
		require.NoError(t, svc.CreateEntry(ctx, entry))
	}

	got, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(types.MustMoney("75.50")),
		"balance = %s", got.Balance)

	entries, err := svc.ListEntries(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestDeleteEntryRevertsBalance(t *testing.T) {
	ctx := userCtx("agency-1")
	svc, _, account := setupLedger(t, "agency-1")

	keep := &CreditEntry{AccountID: account.ID, Amount: types.MustMoney("200"), Concept: "Saldo inicial"}
	require.NoError(t, svc.CreateEntry(ctx, keep))

	victim := &CreditEntry{AccountID: account.ID, Amount: types.MustMoney("-50"), Concept: "Ajuste"}
	require.NoError(t, svc.CreateEntry(ctx, victim))

	require.NoError(t, svc.DeleteEntry(ctx, victim.ID))

	got, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(types.MustMoney("200")),
		"create followed by delete must leave the balance unchanged, got %s", got.Balance)

	_, err = svc.GetEntry(ctx, victim.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteLinkedEntryRejected(t *testing.T) {
	ctx := userCtx("agency-1")
	svc, _, account := setupLedger(t, "agency-1")

	receiptID := id.New()
	entry := &CreditEntry{
		AccountID: account.ID,
		Amount:    types.MustMoney("300"),
		Concept:   "Pago recibo 0001",
		ReceiptID: &receiptID,
	}
	require.NoError(t, svc.CreateEntry(ctx, entry))

	err := svc.DeleteEntry(ctx, entry.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeLinkedEntry, appErr.Code)

	// neither the entry nor the balance changed
	got, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(types.MustMoney("300")))
	_, err = svc.GetEntry(ctx, entry.ID)
	assert.NoError(t, err)
}

func TestCrossAgencyAccessForbidden(t *testing.T) {
	ownerCtx := userCtx("agency-1")
	svc, _, account := setupLedger(t, "agency-1")

	entry := &CreditEntry{AccountID: account.ID, Amount: types.MustMoney("10"), Concept: "Ajuste"}
	require.NoError(t, svc.CreateEntry(ownerCtx, entry))

	intruderCtx := userCtx("agency-2")

	_, err := svc.GetAccount(intruderCtx, account.ID)
	assertForbidden(t, err)

	err = svc.CreateEntry(intruderCtx, &CreditEntry{
		AccountID: account.ID, Amount: types.MustMoney("1"), Concept: "x",
	})
	assertForbidden(t, err)

	_, err = svc.GetEntry(intruderCtx, entry.ID)
	assertForbidden(t, err)

	err = svc.DeleteEntry(intruderCtx, entry.ID)
	assertForbidden(t, err)
}

func TestUpdateEntryMetadataOnly(t *testing.T) {
	ctx := userCtx("agency-1")
	svc, _, account := setupLedger(t, "agency-1")

	entry := &CreditEntry{
		AccountID: account.ID,
		Amount:    types.MustMoney("120"),
		Concept:   "Original",
		Reference: "REC-1",
	}
	require.NoError(t, svc.CreateEntry(ctx, entry))

	concept := "Corregido"
	ref := "REC-2"
	valueDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateEntry(ctx, entry.ID, EntryUpdate{
		Concept:   &concept,
		Reference: &ref,
		ValueDate: &valueDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Corregido", updated.Concept)
	assert.Equal(t, "REC-2", updated.Reference)
	assert.True(t, valueDate.Equal(updated.ValueDate))
	assert.True(t, updated.Amount.Equal(types.MustMoney("120")))

	got, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(types.MustMoney("120")),
		"metadata update must not touch the balance")

	empty := ""
	_, err = svc.UpdateEntry(ctx, entry.ID, EntryUpdate{Concept: &empty})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateEntryDefaultsCurrencyFromAccount(t *testing.T) {
	ctx := userCtx("agency-1")
	svc, _, account := setupLedger(t, "agency-1")

	entry := &CreditEntry{AccountID: account.ID, Amount: types.MustMoney("5"), Concept: "Ajuste"}
	require.NoError(t, svc.CreateEntry(ctx, entry))
	assert.Equal(t, "ARS", entry.Currency)
	assert.False(t, id.IsNil(entry.ID))
	assert.Equal(t, "user-1", entry.CreatedBy)
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

package receipts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeReceiptRepo struct {
	receipts map[id.ID]*Receipt
	payRefs  map[id.ID]int64
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{
		receipts: make(map[id.ID]*Receipt),
		payRefs:  make(map[id.ID]int64),
	}
}

func (f *fakeReceiptRepo) Get(_ context.Context, receiptID id.ID) (*Receipt, error) {
	r, ok := f.receipts[receiptID]
	if !ok {
		return nil, apperror.NewNotFound("receipt", receiptID)
	}
	return r, nil
}

func (f *fakeReceiptRepo) Create(_ context.Context, receipt *Receipt) error {
	f.receipts[receipt.ID] = receipt
	return nil
}

func (f *fakeReceiptRepo) Delete(_ context.Context, receiptID id.ID) error {
	delete(f.receipts, receiptID)
	return nil
}

func (f *fakeReceiptRepo) ListByBooking(_ context.Context, bookingID id.ID) ([]Receipt, error) {
	var out []Receipt
	for _, r := range f.receipts {
		if r.BookingID == bookingID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReceiptRepo) CountReferencingPayments(_ context.Context, receiptID id.ID) (int64, error) {
	return f.payRefs[receiptID], nil
}

func testCtx(agencyID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "user-1",
		AgencyID: agencyID,
		Role:     "administrativo",
	})
}

func TestIssueNormalizesCurrencies(t *testing.T) {
	repo := newFakeReceiptRepo()
	svc := NewService(repo, passthroughTx{})

	fee := types.MustMoney("15")
	receipt := &Receipt{
		BookingID:          id.New(),
		ClientID:           id.New(),
		Amount:             types.MustMoney("1000"),
		Currency:           "AR$",
		AmountString:       "son pesos mil",
		PaymentFeeAmount:   &fee,
		PaymentFeeCurrency: "U$D",
	}
	require.NoError(t, svc.Issue(testCtx("agency-1"), receipt))

	stored := repo.receipts[receipt.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "ARS", stored.Currency)
	assert.Equal(t, "USD", stored.PaymentFeeCurrency)
	assert.Equal(t, "son pesos mil", stored.AmountString)
	assert.Equal(t, "agency-1", stored.AgencyID)
	assert.Equal(t, "user-1", stored.CreatedBy)
	assert.False(t, stored.IssueDate.IsZero())
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	repo := newFakeReceiptRepo()
	svc := NewService(repo, passthroughTx{})

	receipt := &Receipt{
		BookingID: id.New(),
		ClientID:  id.New(),
		Amount:    types.MustMoney("500"),
		Currency:  "ARS",
	}
	require.NoError(t, svc.Issue(testCtx("agency-1"), receipt))
	repo.payRefs[receipt.ID] = 2

	err := svc.Delete(testCtx("agency-1"), receipt.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReceiptReferenced, appErr.Code)

	repo.payRefs[receipt.ID] = 0
	require.NoError(t, svc.Delete(testCtx("agency-1"), receipt.ID))
	_, err = svc.Get(testCtx("agency-1"), receipt.ID)
	require.Error(t, err)
}

func TestGetRejectsForeignAgency(t *testing.T) {
	repo := newFakeReceiptRepo()
	svc := NewService(repo, passthroughTx{})

	receipt := &Receipt{
		BookingID: id.New(),
		ClientID:  id.New(),
		Amount:    types.MustMoney("500"),
		Currency:  "ARS",
	}
	require.NoError(t, svc.Issue(testCtx("agency-1"), receipt))

	_, err := svc.Get(testCtx("agency-2"), receipt.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

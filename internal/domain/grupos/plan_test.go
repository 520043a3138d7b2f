package grupos

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
	"backoffice/internal/domain/receipts"
)

type fakeGroupRepo struct {
	groups     map[id.ID]*TravelGroup
	passengers []Passenger
	services   map[id.ID]id.ID // service -> booking

	listCalls int
}

func (r *fakeGroupRepo) GetGroup(_ context.Context, groupID id.ID) (*TravelGroup, error) {
	g, ok := r.groups[groupID]
	if !ok {
		return nil, apperror.NewNotFound("travel group", groupID)
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGroupRepo) GetPassengers(_ context.Context, groupID id.ID, passengerIDs []id.ID) ([]Passenger, error) {
	want := make(map[id.ID]bool, len(passengerIDs))
	for _, pid := range passengerIDs {
		want[pid] = true
	}
	var out []Passenger
	for _, p := range r.passengers {
		if p.GroupID == groupID && want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) ListGroupPassengers(_ context.Context, groupID id.ID) ([]Passenger, error) {
	r.listCalls++
	var out []Passenger
	for _, p := range r.passengers {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) ServiceBookings(_ context.Context, serviceIDs []id.ID) (map[id.ID]id.ID, error) {
	out := make(map[id.ID]id.ID)
	for _, sid := range serviceIDs {
		if bid, ok := r.services[sid]; ok {
			out[sid] = bid
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	payments map[id.ID]*ClientPayment
	audits   []PaymentAudit
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[id.ID]*ClientPayment)}
}

func (r *fakePaymentRepo) GetPayments(_ context.Context, paymentIDs []id.ID) ([]ClientPayment, error) {
	var out []ClientPayment
	for _, pid := range paymentIDs {
		if p, ok := r.payments[pid]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ListPending(_ context.Context, bookingID, clientID id.ID) ([]ClientPayment, error) {
	var out []ClientPayment
	for _, p := range r.payments {
		if p.BookingID == bookingID && p.ClientID == clientID && p.Status == StatusPendiente {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) CreatePayment(_ context.Context, payment *ClientPayment) error {
	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) SetStatus(_ context.Context, payment *ClientPayment) error {
	stored, ok := r.payments[payment.ID]
	if !ok {
		return apperror.NewNotFound("client payment", payment.ID)
	}
	stored.Status = payment.Status
	stored.PaidAt = payment.PaidAt
	stored.PaidBy = payment.PaidBy
	stored.ReceiptID = payment.ReceiptID
	return nil
}

func (r *fakePaymentRepo) CreateAudit(_ context.Context, audit *PaymentAudit) error {
	r.audits = append(r.audits, *audit)
	return nil
}

func (r *fakePaymentRepo) auditsFor(paymentID id.ID) []PaymentAudit {
	var out []PaymentAudit
	for _, a := range r.audits {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out
}

type fakeTemplateRepo struct {
	templates map[id.ID]*PaymentTemplate
}

func (r *fakeTemplateRepo) GetTemplate(_ context.Context, templateID id.ID) (*PaymentTemplate, error) {
	tpl, ok := r.templates[templateID]
	if !ok {
		return nil, apperror.NewNotFound("payment template", templateID)
	}
	cp := *tpl
	return &cp, nil
}

type fakeIssuer struct {
	issued []*receipts.Receipt
}

func (f *fakeIssuer) Issue(_ context.Context, receipt *receipts.Receipt) error {
	if id.IsNil(receipt.ID) {
		receipt.ID = id.New()
	}
	f.issued = append(f.issued, receipt)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func testCtx(agencyID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "user-1",
		AgencyID: agencyID,
		Role:     "administrativo",
	})
}

type fixture struct {
	groups    *fakeGroupRepo
	payments  *fakePaymentRepo
	templates *fakeTemplateRepo
	group     *TravelGroup
	pax       Passenger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	group := &TravelGroup{
		ID:        id.New(),
		AgencyID:  "agency-1",
		Name:      "Bariloche Egresados 2026",
		StartDate: &start,
	}
	pax := Passenger{
		ID:        id.New(),
		GroupID:   group.ID,
		BookingID: id.New(),
		ClientID:  id.New(),
		FullName:  "Ana García",
	}
	return &fixture{
		groups: &fakeGroupRepo{
			groups:     map[id.ID]*TravelGroup{group.ID: group},
			passengers: []Passenger{pax},
			services:   map[id.ID]id.ID{},
		},
		payments:  newFakePaymentRepo(),
		templates: &fakeTemplateRepo{templates: map[id.ID]*PaymentTemplate{}},
		group:     group,
		pax:       pax,
	}
}

func (f *fixture) planService() *PlanService {
	return NewPlanService(f.groups, f.payments, f.templates, passthroughTx{})
}

func (f *fixture) addPending(amount, currency string) *ClientPayment {
	p := &ClientPayment{
		ID:        id.New(),
		AgencyID:  f.group.AgencyID,
		BookingID: f.pax.BookingID,
		ClientID:  f.pax.ClientID,
		Amount:    types.MustMoney(amount),
		Currency:  currency,
		DueDate:   time.Now().UTC(),
		Status:    StatusPendiente,
	}
	f.payments.payments[p.ID] = p
	return p
}

func TestGenerateReplacesPendingPlan(t *testing.T) {
	ctx := testCtx("agency-1")
	f := newFixture(t)
	f.addPending("100", "ARS")
	f.addPending("100", "ARS")
	f.addPending("100", "ARS")

	result, err := f.planService().Generate(ctx, GenerateInput{
		GroupID:      f.group.ID,
		PassengerIDs: []id.ID{f.pax.ID},
		Installments: []InstallmentInput{
			{DueDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), Amount: types.MustMoney("150"), Currency: "ARS"},
			{DueDate: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC), Amount: types.MustMoney("150"), Currency: "ARS"},
		},
		ReplacePending: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.CancelledPendingCount)
	assert.Equal(t, 2, result.CreatedCount)
	assert.Equal(t, 1, result.PassengersCount)
	assert.Equal(t, 2, result.InstallmentsPerPassenger)

	var pending, cancelled int
	for _, p := range f.payments.payments {
		switch p.Status {
		case StatusPendiente:
			pending++
		case StatusCancelada:
			cancelled++
			audits := f.payments.auditsFor(p.ID)
			require.Len(t, audits, 1)
			assert.Equal(t, StatusCancelada, audits[0].ToStatus)
		}
	}
	assert.Equal(t, 2, pending)
	assert.Equal(t, 3, cancelled)
}

func TestGenerateWithoutReplaceKeepsExisting(t *testing.T) {
	ctx := testCtx("agency-1")
	f := newFixture(t)
	f.addPending("100", "ARS")

	result, err := f.planService().Generate(ctx, GenerateInput{
		GroupID:      f.group.ID,
		PassengerIDs: []id.ID{f.pax.ID},
		Installments: []InstallmentInput{
			{DueDate: time.Now().UTC(), Amount: types.MustMoney("50"), Currency: "ARS"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.CancelledPendingCount)
	assert.Equal(t, 1, result.CreatedCount)

	pending, err := f.payments.ListPending(ctx, f.pax.BookingID, f.pax.ClientID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestGenerateFromTemplateComputesDueDates(t *testing.T) {
	ctx := testCtx("agency-1")
	f := newFixture(t)

	tplID := id.New()
	f.templates.templates[tplID] = &PaymentTemplate{
		ID:       tplID,
		AgencyID: "agency-1",
		Name:     "Plan 2 cuotas",
		Items: []TemplateItem{
			{DueInDays: 0, Amount: types.MustMoney("200"), Currency: "AR$"},
			{DueInDays: 30, Amount: types.MustMoney("200"), Currency: "AR$"},
		},
	}

	result, err := f.planService().Generate(ctx, GenerateInput{
		GroupID:      f.group.ID,
		PassengerIDs: []id.ID{f.pax.ID},
		TemplateID:   &tplID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)

	// base date defaults to the group start date
	var dueDates []time.Time
	for _, p := range f.payments.payments {
		assert.Equal(t, "ARS", p.Currency)
		dueDates = append(dueDates, p.DueDate)
	}
	start := *f.group.StartDate
	assert.Contains(t, dueDates, start)
	assert.Contains(t, dueDates, start.AddDate(0, 0, 30))
}

func TestGenerateRejectsForeignPassenger(t *testing.T) {
	ctx := testCtx("agency-1")
	f := newFixture(t)

	_, err := f.planService().Generate(ctx, GenerateInput{
		GroupID:      f.group.ID,
		PassengerIDs: []id.ID{id.New()},
		Installments: []InstallmentInput{
			{DueDate: time.Now().UTC(), Amount: types.MustMoney("50"), Currency: "ARS"},
		},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Empty(t, f.payments.payments, "no writes before validation passes")
}

func TestGenerateRejectsInstallmentsAndTemplateTogether(t *testing.T) {
	ctx := testCtx("agency-1")
	f := newFixture(t)
	tplID := id.New()

	_, err := f.planService().Generate(ctx, GenerateInput{
		GroupID:      f.group.ID,
		PassengerIDs: []id.ID{f.pax.ID},
		TemplateID:   &tplID,
		Installments: []InstallmentInput{
			{DueDate: time.Now().UTC(), Amount: types.MustMoney("50"), Currency: "ARS"},
		},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestGenerateRejectsLockedGroup(t *testing.T) {
	ctx := testCtx("agency-1")
	f := newFixture(t)
	f.group.Locked = true
	f.groups.groups[f.group.ID] = f.group

	_, err := f.planService().Generate(ctx, GenerateInput{
		GroupID:      f.group.ID,
		PassengerIDs: []id.ID{f.pax.ID},
		Installments: []InstallmentInput{
			{DueDate: time.Now().UTC(), Amount: types.MustMoney("50"), Currency: "ARS"},
		},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeGroupLocked, appErr.Code)
}

func TestGenerateRejectsForeignService(t *testing.T) {
	ctx := testCtx("agency-1")
	f := newFixture(t)
	foreignService := id.New()
	f.groups.services[foreignService] = id.New() // owned by another booking

	_, err := f.planService().Generate(ctx, GenerateInput{
		GroupID:      f.group.ID,
		PassengerIDs: []id.ID{f.pax.ID},
		Installments: []InstallmentInput{
			{DueDate: time.Now().UTC(), Amount: types.MustMoney("50"), Currency: "ARS", ServiceID: &foreignService},
		},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

package grupos

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/tx"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/money"
	"backoffice/pkg/logger"
)

// InstallmentInput is one explicit installment row of a generation request.
type InstallmentInput struct {
	DueDate   time.Time   `json:"dueDate"`
	Amount    types.Money `json:"amount"`
	Currency  string      `json:"currency"`
	ServiceID *id.ID      `json:"serviceId,omitempty"`
}

// GenerateInput describes one bulk plan generation run. Installments and
// TemplateID are mutually exclusive.
type GenerateInput struct {
	GroupID          id.ID
	PassengerIDs     []id.ID
	Installments     []InstallmentInput
	TemplateID       *id.ID
	ReplacePending   bool
	TemplateBaseDate *time.Time
}

// GenerateResult carries the counts shown in the UI confirmation.
type GenerateResult struct {
	CreatedCount             int `json:"created_count"`
	CancelledPendingCount    int `json:"cancelled_pending_count"`
	PassengersCount          int `json:"passengers_count"`
	InstallmentsPerPassenger int `json:"installments_per_passenger"`
}

// PlanService generates installment plans for group passengers in bulk.
type PlanService struct {
	groups    GroupRepository
	payments  PaymentRepository
	templates TemplateRepository
	txManager tx.Manager
}

func NewPlanService(groups GroupRepository, payments PaymentRepository, templates TemplateRepository, txManager tx.Manager) *PlanService {
	return &PlanService{
		groups:    groups,
		payments:  payments,
		templates: templates,
		txManager: txManager,
	}
}

// Generate expands an installment set over every passenger. With
// ReplacePending set, each passenger's existing PENDIENTE installments are
// cancelled first: a full replace, never a merge. All validation happens
// before the transaction opens; the expansion itself is all-or-nothing.
func (s *PlanService) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	if len(in.PassengerIDs) == 0 {
		return nil, apperror.NewValidation("at least one passenger is required").
			WithDetail("field", "passengerIds")
	}
	if (len(in.Installments) > 0) == (in.TemplateID != nil) {
		return nil, apperror.NewValidation("provide either explicit installments or a template, not both").
			WithDetail("fields", []string{"installments", "templateId"})
	}

	group, err := s.loadGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	passengers, err := s.groups.GetPassengers(ctx, in.GroupID, in.PassengerIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve passengers: %w", err)
	}
	if len(passengers) != len(in.PassengerIDs) {
		return nil, apperror.NewValidation("some passengers do not belong to this group").
			WithDetail("requested", len(in.PassengerIDs)).
			WithDetail("resolved", len(passengers))
	}

	installments, err := s.resolveInstallments(ctx, group, in)
	if err != nil {
		return nil, err
	}
	if err := s.checkServiceScope(ctx, passengers, installments); err != nil {
		return nil, err
	}

	userID := appctx.GetUserID(ctx)
	result := &GenerateResult{
		PassengersCount:          len(passengers),
		InstallmentsPerPassenger: len(installments),
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, pax := range passengers {
			if in.ReplacePending {
				cancelled, err := s.cancelPending(ctx, pax, userID)
				if err != nil {
					return err
				}
				result.CancelledPendingCount += cancelled
			}
			for _, inst := range installments {
				payment := &ClientPayment{
					ID:        id.New(),
					AgencyID:  group.AgencyID,
					BookingID: pax.BookingID,
					ClientID:  pax.ClientID,
					ServiceID: inst.ServiceID,
					Amount:    inst.Amount,
					Currency:  inst.Currency,
					DueDate:   inst.DueDate,
					Status:    StatusPendiente,
					CreatedAt: time.Now().UTC(),
					CreatedBy: userID,
				}
				if err := s.payments.CreatePayment(ctx, payment); err != nil {
					return fmt.Errorf("create installment: %w", err)
				}
				if err := s.payments.CreateAudit(ctx, &PaymentAudit{
					ID:        id.New(),
					PaymentID: payment.ID,
					ToStatus:  StatusPendiente,
					ChangedBy: userID,
					ChangedAt: time.Now().UTC(),
					Note:      "plan generado en lote",
				}); err != nil {
					return fmt.Errorf("audit installment: %w", err)
				}
				result.CreatedCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bulk payment plan generated",
		"group_id", in.GroupID,
		"passengers", result.PassengersCount,
		"created", result.CreatedCount,
		"cancelled", result.CancelledPendingCount)
	return result, nil
}

func (s *PlanService) loadGroup(ctx context.Context, groupID id.ID) (*TravelGroup, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	agencyID := appctx.GetAgencyID(ctx)
	if agencyID != "" && group.AgencyID != agencyID {
		return nil, apperror.NewForbidden("travel group belongs to another agency").
			WithDetail("group_id", groupID)
	}
	if group.Locked {
		return nil, apperror.NewGroupLocked(groupID)
	}
	return group, nil
}

// resolveInstallments turns the request into absolute-dated installment
// rows, expanding a template against its base date when one is given.
func (s *PlanService) resolveInstallments(ctx context.Context, group *TravelGroup, in GenerateInput) ([]InstallmentInput, error) {
	var installments []InstallmentInput
	if in.TemplateID != nil {
		tpl, err := s.templates.GetTemplate(ctx, *in.TemplateID)
		if err != nil {
			return nil, err
		}
		if tpl.AgencyID != group.AgencyID {
			return nil, apperror.NewForbidden("template belongs to another agency").
				WithDetail("template_id", *in.TemplateID)
		}
		baseDate := time.Now().UTC()
		if in.TemplateBaseDate != nil {
			baseDate = *in.TemplateBaseDate
		} else if group.StartDate != nil {
			baseDate = *group.StartDate
		}
		for _, item := range tpl.Items {
			installments = append(installments, InstallmentInput{
				DueDate:   baseDate.AddDate(0, 0, item.DueInDays),
				Amount:    item.Amount,
				Currency:  item.Currency,
				ServiceID: item.ServiceID,
			})
		}
	} else {
		installments = in.Installments
	}

	if len(installments) == 0 {
		return nil, apperror.NewValidation("the resolved plan has no installments")
	}
	for i := range installments {
		if installments[i].Amount.IsZero() || installments[i].Amount.IsNegative() {
			return nil, apperror.NewValidation("installment amount must be positive").
				WithDetail("index", i)
		}
		if installments[i].DueDate.IsZero() {
			return nil, apperror.NewValidation("installment due date is required").
				WithDetail("index", i)
		}
		installments[i].Currency = money.Normalize(installments[i].Currency)
	}
	return installments, nil
}

// checkServiceScope rejects installments referencing services outside the
// resolved bookings.
func (s *PlanService) checkServiceScope(ctx context.Context, passengers []Passenger, installments []InstallmentInput) error {
	var serviceIDs []id.ID
	for _, inst := range installments {
		if inst.ServiceID != nil {
			serviceIDs = append(serviceIDs, *inst.ServiceID)
		}
	}
	if len(serviceIDs) == 0 {
		return nil
	}

	owners, err := s.groups.ServiceBookings(ctx, serviceIDs)
	if err != nil {
		return fmt.Errorf("resolve service bookings: %w", err)
	}
	bookings := make(map[id.ID]bool, len(passengers))
	for _, pax := range passengers {
		bookings[pax.BookingID] = true
	}
	for _, serviceID := range serviceIDs {
		bookingID, ok := owners[serviceID]
		if !ok || !bookings[bookingID] {
			return apperror.NewValidation("service does not belong to the selected passengers").
				WithDetail("service_id", serviceID)
		}
	}
	return nil
}

func (s *PlanService) cancelPending(ctx context.Context, pax Passenger, userID string) (int, error) {
	pending, err := s.payments.ListPending(ctx, pax.BookingID, pax.ClientID)
	if err != nil {
		return 0, fmt.Errorf("list pending installments: %w", err)
	}
	for i := range pending {
		payment := &pending[i]
		payment.Status = StatusCancelada
		if err := s.payments.SetStatus(ctx, payment); err != nil {
			return 0, fmt.Errorf("cancel installment: %w", err)
		}
		if err := s.payments.CreateAudit(ctx, &PaymentAudit{
			ID:         id.New(),
			PaymentID:  payment.ID,
			FromStatus: StatusPendiente,
			ToStatus:   StatusCancelada,
			ChangedBy:  userID,
			ChangedAt:  time.Now().UTC(),
			Note:       "reemplazado por nuevo plan",
		}); err != nil {
			return 0, fmt.Errorf("audit cancellation: %w", err)
		}
	}
	return len(pending), nil
}

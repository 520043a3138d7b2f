package dto

import (
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/grupos"
)

// InstallmentRequest is one explicit installment row.
type InstallmentRequest struct {
	DueDate   time.Time   `json:"dueDate" binding:"required"`
	Amount    types.Money `json:"amount" binding:"required"`
	Currency  string      `json:"currency"`
	ServiceID *string     `json:"serviceId"`
}

// GeneratePlanRequest for bulk payment plan generation. Installments and
// templateId are mutually exclusive, checked by the domain service.
type GeneratePlanRequest struct {
	PassengerIDs     []string             `json:"passengerIds" binding:"required,min=1"`
	Installments     []InstallmentRequest `json:"installments"`
	TemplateID       *string              `json:"templateId"`
	ReplacePending   bool                 `json:"replacePending"`
	TemplateBaseDate *time.Time           `json:"templateBaseDate"`
}

// ToGenerateInput converts to the domain input.
func (r *GeneratePlanRequest) ToGenerateInput(groupID id.ID) (grupos.GenerateInput, error) {
	in := grupos.GenerateInput{
		GroupID:          groupID,
		ReplacePending:   r.ReplacePending,
		TemplateBaseDate: r.TemplateBaseDate,
	}

	var err error
	if in.PassengerIDs, err = parseIDs(r.PassengerIDs, "passengerIds"); err != nil {
		return in, err
	}
	if in.TemplateID, err = parseOptionalID(r.TemplateID, "templateId"); err != nil {
		return in, err
	}
	for _, inst := range r.Installments {
		serviceID, err := parseOptionalID(inst.ServiceID, "installments.serviceId")
		if err != nil {
			return in, err
		}
		in.Installments = append(in.Installments, grupos.InstallmentInput{
			DueDate:   inst.DueDate,
			Amount:    inst.Amount,
			Currency:  inst.Currency,
			ServiceID: serviceID,
		})
	}
	return in, nil
}

// CollectRequest for bulk collection. PaymentIDs and PassengerIDs are
// mutually exclusive, checked by the domain service.
type CollectRequest struct {
	PaymentIDs   []string `json:"paymentIds"`
	PassengerIDs []string `json:"passengerIds"`

	CreateReceipts bool       `json:"createReceipts"`
	IssueDate      *time.Time `json:"issueDate"`
	Concept        string     `json:"concept"`

	// AmountString is the spelled-out amount printed on each issued
	// receipt ("son pesos diez mil ...").
	AmountString string `json:"amountString"`

	PaymentFeeAmount   *types.Money `json:"paymentFeeAmount"`
	PaymentFeeCurrency string       `json:"paymentFeeCurrency"`
	PaymentMethodID    *string      `json:"paymentMethodId"`
	AccountID          *string      `json:"accountId"`
}

// ToCollectInput converts to the domain input.
func (r *CollectRequest) ToCollectInput(groupID id.ID) (grupos.CollectInput, error) {
	in := grupos.CollectInput{
		GroupID:            groupID,
		CreateReceipts:     r.CreateReceipts,
		IssueDate:          r.IssueDate,
		Concept:            r.Concept,
		AmountString:       r.AmountString,
		PaymentFeeAmount:   r.PaymentFeeAmount,
		PaymentFeeCurrency: r.PaymentFeeCurrency,
	}

	var err error
	if in.PaymentIDs, err = parseIDs(r.PaymentIDs, "paymentIds"); err != nil {
		return in, err
	}
	if in.PassengerIDs, err = parseIDs(r.PassengerIDs, "passengerIds"); err != nil {
		return in, err
	}
	if in.PaymentMethodID, err = parseOptionalID(r.PaymentMethodID, "paymentMethodId"); err != nil {
		return in, err
	}
	if in.AccountID, err = parseOptionalID(r.AccountID, "accountId"); err != nil {
		return in, err
	}
	return in, nil
}

func parseIDs(raw []string, field string) ([]id.ID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]id.ID, 0, len(raw))
	for _, s := range raw {
		parsed, err := id.Parse(s)
		if err != nil {
			return nil, apperror.NewValidation("invalid id").
				WithDetail("field", field).
				WithDetail("value", s)
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

func parseOptionalID(raw *string, field string) (*id.ID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", *raw)
	}
	return &parsed, nil
}

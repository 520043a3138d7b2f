package services

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/id"
	"backoffice/internal/core/types"
	"backoffice/internal/domain/commission"
	"backoffice/internal/domain/money"
)

// ServiceEarnings is one service's derived breakdown next to its raw data.
type ServiceEarnings struct {
	ServiceID   id.ID                `json:"serviceId"`
	Description string               `json:"description"`
	Currency    string               `json:"currency"`
	SalePrice   types.Money          `json:"salePrice"`
	CostPrice   types.Money          `json:"costPrice"`
	Breakdown   commission.Breakdown `json:"breakdown"`
	TransferFee types.Money          `json:"transferFee"`
}

// EarningsSummary is the booking-level earnings view: per-service splits
// plus per-currency totals.
type EarningsSummary struct {
	BookingID id.ID                         `json:"bookingId"`
	Services  []ServiceEarnings             `json:"services"`
	Totals    map[string]*commission.Totals `json:"totals"`
}

// SummaryService computes booking earnings. Derived values are computed on
// every read and never written back to the service rows.
type SummaryService struct {
	repo   Repository
	config ConfigRepository
}

func NewSummaryService(repo Repository, config ConfigRepository) *SummaryService {
	return &SummaryService{repo: repo, config: config}
}

// Earnings decomposes every service of a booking and aggregates the
// results per currency. A service whose declared data fails the split
// validation fails the whole summary; bad upstream data is surfaced, not
// clamped.
func (s *SummaryService) Earnings(ctx context.Context, bookingID id.ID) (*EarningsSummary, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, booking.AgencyID, "booking", bookingID); err != nil {
		return nil, err
	}

	config, err := s.agencyConfig(ctx, booking.AgencyID)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list booking services: %w", err)
	}

	summary := &EarningsSummary{BookingID: bookingID}
	financials := make([]commission.ServiceFinancials, 0, len(list))
	for i := range list {
		svc := &list[i]
		breakdown, err := commission.Split(commission.SplitInput{
			SalePrice:  svc.SalePrice,
			CostPrice:  svc.CostPrice,
			Tax21:      svc.Tax21,
			Tax105:     svc.Tax105,
			Exempt:     svc.Exempt,
			OtherTaxes: svc.OtherTaxes,
		})
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, appErr.WithDetail("service_id", svc.ID)
			}
			return nil, err
		}

		fee := commission.TransferFee(svc.SalePrice, svc.TransferFeePct, svc.TransferFeeAmount, config.DefaultTransferFee)
		summary.Services = append(summary.Services, ServiceEarnings{
			ServiceID:   svc.ID,
			Description: svc.Description,
			Currency:    money.Normalize(svc.Currency),
			SalePrice:   svc.SalePrice,
			CostPrice:   svc.CostPrice,
			Breakdown:   breakdown,
			TransferFee: fee,
		})
		financials = append(financials, commission.ServiceFinancials{
			Currency:            svc.Currency,
			SalePrice:           svc.SalePrice,
			CostPrice:           svc.CostPrice,
			Tax21:               svc.Tax21,
			Tax105:              svc.Tax105,
			Exempt:              svc.Exempt,
			OtherTaxes:          svc.OtherTaxes,
			CardInterest:        svc.CardInterest,
			TaxableCardInterest: svc.TaxableCardInterest,
			VATOnCardInterest:   svc.VATOnCardInterest,
			TransferFeePct:      svc.TransferFeePct,
			TransferFeeAmount:   svc.TransferFeeAmount,
			Breakdown:           breakdown,
		})
	}

	summary.Totals = commission.Aggregate(financials, config.DefaultTransferFee)
	return summary, nil
}

// Fees returns the agency defaults the summary pipeline fetches before
// requesting earnings.
func (s *SummaryService) Fees(ctx context.Context) (*AgencyConfig, error) {
	return s.agencyConfig(ctx, appctx.GetAgencyID(ctx))
}

// SaveFees updates the agency defaults.
func (s *SummaryService) SaveFees(ctx context.Context, config *AgencyConfig) error {
	config.AgencyID = appctx.GetAgencyID(ctx)
	if config.DefaultTransferFee.IsNegative() {
		return apperror.NewValidation("transfer fee percentage must not be negative").
			WithDetail("field", "defaultTransferFeePct")
	}
	if config.DefaultCurrency != "" {
		config.DefaultCurrency = money.Normalize(config.DefaultCurrency)
	}
	config.UpdatedAt = time.Now().UTC()
	return s.config.UpsertConfig(ctx, config)
}

// agencyConfig falls back to safe defaults when the agency never saved a
// configuration row.
func (s *SummaryService) agencyConfig(ctx context.Context, agencyID string) (*AgencyConfig, error) {
	config, err := s.config.GetConfig(ctx, agencyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return &AgencyConfig{
				AgencyID:           agencyID,
				DefaultCurrency:    money.DefaultCurrency,
				DefaultTransferFee: types.Zero(),
			}, nil
		}
		return nil, err
	}
	return config, nil
}

func (s *SummaryService) checkScope(ctx context.Context, agencyID, entity string, entityID id.ID) error {
	requester := appctx.GetAgencyID(ctx)
	if requester != "" && agencyID != requester {
		return apperror.NewForbidden(entity + " belongs to another agency").
			WithDetail("id", entityID)
	}
	return nil
}

package dto

import (
	"backoffice/internal/core/types"
	"backoffice/internal/domain/services"
)

// SaveFeesRequest updates the agency-wide financial defaults.
type SaveFeesRequest struct {
	DefaultCurrency       string      `json:"defaultCurrency"`
	DefaultTransferFeePct types.Money `json:"defaultTransferFeePct"`
	StorageQuotaBytes     int64       `json:"storageQuotaBytes" binding:"min=0"`
}

// ToAgencyConfig converts to the domain config.
func (r *SaveFeesRequest) ToAgencyConfig() *services.AgencyConfig {
	return &services.AgencyConfig{
		DefaultCurrency:    r.DefaultCurrency,
		DefaultTransferFee: r.DefaultTransferFeePct,
		StorageQuotaBytes:  r.StorageQuotaBytes,
	}
}

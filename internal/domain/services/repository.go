package services

import (
	"context"

	"backoffice/internal/core/id"
)

// Repository reads bookings and their services.
type Repository interface {
	GetBooking(ctx context.Context, bookingID id.ID) (*Booking, error)
	GetService(ctx context.Context, serviceID id.ID) (*Service, error)
	ListByBooking(ctx context.Context, bookingID id.ID) ([]Service, error)
	CreateService(ctx context.Context, service *Service) error
	UpdateService(ctx context.Context, service *Service) error
}

// ConfigRepository reads and writes agency-wide defaults.
type ConfigRepository interface {
	GetConfig(ctx context.Context, agencyID string) (*AgencyConfig, error)
	UpsertConfig(ctx context.Context, config *AgencyConfig) error
}

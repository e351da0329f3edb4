package service

import (
	"context"
	"fmt"
	"time"

	"greencart/internal/model"
	"greencart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type addressService struct {
	repo   repository.AddressRepository
	logger zerolog.Logger
}

// NewAddressService creates a new address service.
func NewAddressService(repo repository.AddressRepository, logger zerolog.Logger) AddressService {
	return &addressService{
		repo:   repo,
		logger: logger.With().Str("service", "address").Logger(),
	}
}

func (s *addressService) Add(ctx context.Context, userID string, address *model.Address) (*model.Address, error) {
	if address == nil {
		return nil, model.ErrValidation.WithMessage("address is required")
	}
	address.Normalise()
	if err := address.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	address.ID = uuid.New()
	address.UserID = userID
	address.CreatedAt = now
	address.UpdatedAt = now

	if err := s.repo.Create(ctx, address); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to add address")
		return nil, fmt.Errorf("failed to add address: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("address_id", address.ID.String()).Msg("address added")
	return address, nil
}

func (s *addressService) ListByUser(ctx context.Context, userID string) ([]model.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list addresses")
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (s *addressService) GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	address, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil {
		return nil, model.ErrNotFound.WithMessage("Address not found")
	}
	return address, nil
}

package service

import (
	"context"

	"greencart/internal/model"
	"greencart/internal/repository"

	"github.com/rs/zerolog"
)

type cartService struct {
	repo   repository.CartRepository
	logger zerolog.Logger
}

// NewCartService creates a cart service over either cart backend.
func NewCartService(repo repository.CartRepository, logger zerolog.Logger) CartService {
	return &cartService{
		repo:   repo,
		logger: logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) Get(ctx context.Context, userID string) (model.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load cart")
		return nil, model.ErrTransientStorage.Wrap("Failed to load cart", err)
	}
	if cart == nil {
		cart = model.Cart{}
	}
	return cart, nil
}

func (s *cartService) Replace(ctx context.Context, userID string, cart model.Cart) (model.Cart, error) {
	if err := cart.Validate(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("rejected cart update")
		return nil, err
	}

	stored := cart.Clone()
	if err := s.repo.Replace(ctx, userID, stored); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to store cart")
		return nil, model.ErrTransientStorage.Wrap("Failed to update cart", err)
	}

	s.logger.Debug().Str("user_id", userID).Int("entries", len(stored)).Msg("cart updated")
	return stored, nil
}

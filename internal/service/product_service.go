package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"greencart/internal/model"
	"greencart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	repo   repository.ProductRepository
	logger zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		repo:   repo,
		logger: logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves every product.
func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().Int("count", len(products)).Msg("products listed")
	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.ErrValidation.WithMessage("product ID is required")
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (s *productService) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("id_count", len(ids)).Msg("failed to get products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// Add creates a product from a seller request.
func (s *productService) Add(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &model.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price.Round(2),
		OfferPrice:  req.OfferPrice.Round(2),
		InStock:     true,
		Images:      req.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Description == nil {
		product.Description = []string{}
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("name", product.Name).Msg("failed to add product")
		return nil, fmt.Errorf("failed to add product: %w", err)
	}

	s.logger.Info().Str("product_id", product.ID).Str("name", product.Name).Msg("product added")
	return product, nil
}

// ChangeStock toggles a product's availability.
func (s *productService) ChangeStock(ctx context.Context, req *model.StockRequest) error {
	if req == nil || req.ProductID == "" {
		return model.ErrValidation.WithMessage("productId is required")
	}

	found, err := s.repo.SetStock(ctx, req.ProductID, req.InStock)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID).Msg("failed to change stock")
		return fmt.Errorf("failed to change stock: %w", err)
	}
	if !found {
		return model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", req.ProductID).Bool("in_stock", req.InStock).Msg("stock updated")
	return nil
}

func validateProductRequest(req *model.ProductRequest) error {
	if req == nil {
		return model.ErrValidation.WithMessage("product data is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return model.ErrValidation.WithMessage("name is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		return model.ErrValidation.WithMessage("category is required")
	}
	if !req.Price.IsPositive() {
		return model.ErrValidation.WithMessage("price must be positive")
	}
	if !req.OfferPrice.IsPositive() {
		return model.ErrValidation.WithMessage("offerPrice must be positive")
	}
	if req.OfferPrice.GreaterThan(req.Price) {
		return model.ErrValidation.WithMessage("offerPrice cannot exceed price")
	}
	return nil
}

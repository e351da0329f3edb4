package repository

import (
	"context"
	"errors"
	"fmt"

	"greencart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const addressColumns = `id, user_id, first_name, last_name, email, street, city, state, zip_code, country, phone, created_at, updated_at`

type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

func scanAddress(row pgx.Row) (model.Address, error) {
	var a model.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Email,
		&a.Street, &a.City, &a.State, &a.ZipCode, &a.Country, &a.Phone,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *addressRepository) Create(ctx context.Context, a *model.Address) error {
	query := `
		INSERT INTO addresses (` + addressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.UserID, a.FirstName, a.LastName, a.Email,
		a.Street, a.City, a.State, a.ZipCode, a.Country, a.Phone,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", a.UserID).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}

	return nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]model.Address, error) {
	return r.query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *addressRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Address, error) {
	if len(ids) == 0 {
		return []model.Address{}, nil
	}
	return r.query(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = ANY($1)`, ids)
}

func (r *addressRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return &a, nil
}

func (r *addressRepository) query(ctx context.Context, query string, args ...any) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]model.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

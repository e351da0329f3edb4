package service

import (
	"context"
	"errors"
	"testing"

	"greencart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_GetEmpty(t *testing.T) {
	svc := NewCartService(newMemCartRepository(), zerolog.Nop())

	cart, err := svc.Get(context.Background(), "user-1")

	require.NoError(t, err)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)
}

func TestCartService_ReplaceIsWholesale(t *testing.T) {
	repo := newMemCartRepository()
	svc := NewCartService(repo, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Replace(ctx, "user-1", model.Cart{"P1": 2, "P2": 1})
	require.NoError(t, err)

	stored, err := svc.Replace(ctx, "user-1", model.Cart{"P3": 4})
	require.NoError(t, err)
	assert.Equal(t, model.Cart{"P3": 4}, stored)

	got, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.Cart{"P3": 4}, got)
}

func TestCartService_ReplaceValidates(t *testing.T) {
	tests := []struct {
		name string
		cart model.Cart
	}{
		{"Nil cart", nil},
		{"Zero quantity", model.Cart{"P1": 0}},
		{"Empty product id", model.Cart{"": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemCartRepository()
			svc := NewCartService(repo, zerolog.Nop())

			_, err := svc.Replace(context.Background(), "user-1", tt.cart)

			assert.ErrorIs(t, err, model.ErrValidation)
			assert.Empty(t, repo.carts)
		})
	}
}

func TestCartService_StorageFailureIsTransient(t *testing.T) {
	repo := newMemCartRepository()
	repo.err = errors.New("connection refused")
	svc := NewCartService(repo, zerolog.Nop())

	_, err := svc.Replace(context.Background(), "user-1", model.Cart{"P1": 1})
	assert.ErrorIs(t, err, model.ErrTransientStorage)

	_, err = svc.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, model.ErrTransientStorage)
}

func TestCartService_ReturnsCopy(t *testing.T) {
	repo := newMemCartRepository()
	svc := NewCartService(repo, zerolog.Nop())
	input := model.Cart{"P1": 1}

	stored, err := svc.Replace(context.Background(), "user-1", input)
	require.NoError(t, err)

	input["P1"] = 9
	stored["P1"] = 7
	assert.Equal(t, 1, repo.carts["user-1"]["P1"])
}

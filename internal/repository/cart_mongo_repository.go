package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greencart/internal/model"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartCollection is the MongoDB collection holding cart documents.
const CartCollection = "carts"

type cartDocument struct {
	UserID    string         `bson:"_id"`
	Items     map[string]int `bson:"items"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

// mongoCartRepository stores each cart as one document keyed by user.
type mongoCartRepository struct {
	carts  *mongo.Collection
	logger zerolog.Logger
}

// NewMongoCartRepository creates a MongoDB-backed cart repository.
func NewMongoCartRepository(db *mongo.Database, logger zerolog.Logger) CartRepository {
	return &mongoCartRepository{
		carts:  db.Collection(CartCollection),
		logger: logger.With().Str("repository", "cart-mongo").Logger(),
	}
}

// ConnectMongo opens a client and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

func (r *mongoCartRepository) Get(ctx context.Context, userID string) (model.Cart, error) {
	var doc cartDocument
	err := r.carts.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Cart{}, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to find cart")
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	cart := make(model.Cart, len(doc.Items))
	for id, qty := range doc.Items {
		cart[id] = qty
	}
	return cart, nil
}

func (r *mongoCartRepository) Replace(ctx context.Context, userID string, cart model.Cart) error {
	doc := cartDocument{
		UserID:    userID,
		Items:     map[string]int(cart),
		UpdatedAt: time.Now().UTC(),
	}
	if doc.Items == nil {
		doc.Items = map[string]int{}
	}

	_, err := r.carts.ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to replace cart")
		return fmt.Errorf("failed to replace cart: %w", err)
	}

	r.logger.Debug().Str("user_id", userID).Int("entries", len(cart)).Msg("cart replaced")
	return nil
}

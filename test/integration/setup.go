package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"greencart/internal/database"
	"greencart/internal/handler"
	"greencart/internal/lifecycle"
	"greencart/internal/middleware"
	"greencart/internal/model"
	"greencart/internal/payment"
	"greencart/internal/promo"
	"greencart/internal/repository"
	"greencart/internal/router"
	"greencart/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testSecret  = "integration-secret"
	sellerEmail = "seller@greencart.test"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromURL(ctx, connStr, database.PoolOptions{MaxConns: 10}, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts inserts the test catalogue: P1 at 10, P2 at 25, P3 at 4.50.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	repo := repository.NewProductRepository(pool, zerolog.Nop())
	now := time.Now().UTC()

	products := []struct {
		id    string
		name  string
		price string
		offer string
	}{
		{"P1", "Apples", "12", "10"},
		{"P2", "Milk", "30", "25"},
		{"P3", "Bananas", "5", "4.50"},
	}

	for i, p := range products {
		product := &model.Product{
			ID:          p.id,
			Name:        p.name,
			Description: []string{"fresh"},
			Category:    "Groceries",
			Price:       decimal.RequireFromString(p.price),
			OfferPrice:  decimal.RequireFromString(p.offer),
			InStock:     true,
			Images:      []string{"https://cdn.greencart.test/" + p.id + ".png"},
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
			UpdatedAt:   now,
		}
		if err := repo.Create(context.Background(), product); err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"payment_sessions", "order_items", "orders", "carts", "addresses", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// fakeGateway stands in for the payment provider. Events are registered by
// payload and the signature must equal "valid".
type fakeGateway struct {
	mu       sync.Mutex
	events   map[string]payment.Event
	sessions []payment.CheckoutRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: map[string]payment.Event{}}
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = append(g.sessions, req)
	id := fmt.Sprintf("cs_test_%d", len(g.sessions))
	return &payment.Checkout{SessionID: id, URL: "https://pay.greencart.test/" + id}, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, signature string) (payment.Event, error) {
	if signature != "valid" {
		return payment.Event{}, model.ErrSignatureInvalid
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ev, ok := g.events[string(payload)]
	if !ok {
		return payment.Event{}, model.ErrSignatureInvalid.WithMessage("unknown payload")
	}
	return ev, nil
}

func (g *fakeGateway) OrderIDForPaymentIntent(context.Context, string) (string, error) {
	return "", nil
}

// register stores ev and returns the payload that delivers it.
func (g *fakeGateway) register(ev payment.Event) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	payload := fmt.Sprintf(`{"id":%q}`, ev.ID)
	g.events[payload] = ev
	return payload
}

func (g *fakeGateway) completed(orderID uuid.UUID, sessionID string) string {
	return g.register(payment.Event{
		ID:              "evt_" + uuid.NewString(),
		Type:            "checkout.session.completed",
		Kind:            lifecycle.EventPaymentCompleted,
		SessionID:       sessionID,
		PaymentIntentID: "pi_" + sessionID,
		OrderID:         orderID.String(),
	})
}

// testServer is a fully wired API over the test database.
type testServer struct {
	handler http.Handler
	gateway *fakeGateway
	orders  service.OrderService
	repo    repository.OrderRepository
}

func setupTestServer(t *testing.T, testDB *TestDB) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	pool := testDB.Pool

	productRepo := repository.NewProductRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)

	gateway := newFakeGateway()
	orderService := service.NewOrderService(service.OrderDeps{
		Orders:    orderRepo,
		Products:  productRepo,
		Addresses: addressRepo,
		Carts:     cartRepo,
		Promos:    promo.NewMapBook(promo.BuiltinRules()...),
		Gateway:   gateway,
	}, logger)

	h := router.New(router.Handlers{
		Products:  handler.NewProductHandler(service.NewProductService(productRepo, logger), logger),
		Addresses: handler.NewAddressHandler(service.NewAddressService(addressRepo, logger), logger),
		Carts:     handler.NewCartHandler(service.NewCartService(cartRepo, logger), logger),
		Orders:    handler.NewOrderHandler(orderService, logger),
		Webhook:   handler.NewWebhookHandler(gateway, orderService, logger),
		Health:    handler.Health(pool, logger),
	}, middleware.NewAuthenticator(testSecret, sellerEmail, logger), router.Options{
		CORSOrigins: []string{"http://localhost:5173"},
	}, logger)

	return &testServer{handler: h, gateway: gateway, orders: orderService, repo: orderRepo}
}

// signToken issues an HS256 token with the given claims.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func userToken(t *testing.T, userID string) string {
	return signToken(t, jwt.MapClaims{"id": userID})
}

func sellerToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{"email": sellerEmail})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greencart/internal/config"
	"greencart/internal/database"
	"greencart/internal/feed"
	"greencart/internal/handler"
	"greencart/internal/middleware"
	"greencart/internal/payment"
	"greencart/internal/promo"
	"greencart/internal/repository"
	"greencart/internal/router"
	"greencart/internal/service"
	"greencart/internal/sweeper"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting greencart API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	productRepo := repository.NewProductRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	cartRepo, closeCarts, err := newCartRepository(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}
	defer closeCarts()

	promos, err := newPromoBook(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize promo book: %w", err)
	}

	gateway := payment.NewStripeGateway(payment.StripeOptions{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Currency:      cfg.Stripe.Currency,
		FrontendURL:   cfg.Stripe.FrontendURL,
	}, logger)

	hub := feed.NewHub(cfg.CORS.Origins, logger)
	defer hub.Close()

	productService := service.NewProductService(productRepo, logger)
	addressService := service.NewAddressService(addressRepo, logger)
	cartService := service.NewCartService(cartRepo, logger)
	orderService := service.NewOrderService(service.OrderDeps{
		Orders:    orderRepo,
		Products:  productRepo,
		Addresses: addressRepo,
		Carts:     cartRepo,
		Promos:    promos,
		Gateway:   gateway,
		Publisher: hub,
	}, logger)

	sweep, err := sweeper.New(orderService, sweeper.Options{
		Interval: cfg.Sweep.Interval,
		TTL:      cfg.Sweep.TTL,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize sweeper: %w", err)
	}

	mux := router.New(router.Handlers{
		Products:  handler.NewProductHandler(productService, logger),
		Addresses: handler.NewAddressHandler(addressService, logger),
		Carts:     handler.NewCartHandler(cartService, logger),
		Orders:    handler.NewOrderHandler(orderService, logger),
		Webhook:   handler.NewWebhookHandler(gateway, orderService, logger),
		Health:    handler.Health(pool, logger),
		Feed:      hub,
	}, middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.SellerEmail, logger), router.Options{
		CORSOrigins:      cfg.CORS.Origins,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", cfg.Server.Address()).Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := sweep.Start(gctx); err != nil {
			return fmt.Errorf("failed to start sweeper: %w", err)
		}
		<-gctx.Done()
		sweep.Stop()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")

		// Websocket connections are hijacked; Shutdown does not wait for them.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("server shutdown completed")
	return nil
}

// newCartRepository selects the cart backend. The returned func releases it.
func newCartRepository(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (repository.CartRepository, func(), error) {
	if cfg.CartStore != "mongo" {
		return repository.NewCartRepository(pool, logger), func() {}, nil
	}

	client, err := repository.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize mongo cart store: %w", err)
	}
	logger.Info().Str("database", cfg.Mongo.Database).Msg("using mongo cart store")

	release := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to disconnect mongo")
		}
	}
	return repository.NewMongoCartRepository(client.Database(cfg.Mongo.Database), logger), release, nil
}

// newPromoBook loads the builtin rules plus any configured rule files, trying
// S3 first when it is enabled.
func newPromoBook(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (promo.Book, error) {
	fileLoader := promo.NewFileLoader(logger)
	var s3Loader promo.Loader

	if cfg.S3.Enabled {
		l, err := promo.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for promo files (S3 disabled)")
	}

	loader := promo.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)
	return promo.NewBook(ctx, promo.BookConfig{FilePaths: cfg.Promo.Files}, loader, logger)
}

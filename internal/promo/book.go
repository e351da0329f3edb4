package promo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BookConfig holds configuration for building a promo book.
type BookConfig struct {
	// FilePaths lists additional rule files. Empty means builtin rules only.
	FilePaths []string
}

// NewBook builds a book from the builtin rules plus every configured file.
// Files are loaded concurrently; any load failure fails the whole book.
// Rules from later files override earlier ones with the same code.
func NewBook(ctx context.Context, cfg BookConfig, loader Loader, logger zerolog.Logger) (Book, error) {
	logger = logger.With().Str("component", "promo-book").Logger()

	loaded := make([][]Rule, len(cfg.FilePaths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range cfg.FilePaths {
		g.Go(func() error {
			rules, err := loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load promo file %s: %w", path, err)
			}
			loaded[i] = rules
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to build promo book")
		return nil, err
	}

	rules := BuiltinRules()
	for _, fileRules := range loaded {
		rules = append(rules, fileRules...)
	}

	book := NewMapBook(rules...)

	logger.Info().
		Int("file_count", len(cfg.FilePaths)).
		Int("rule_count", book.Size()).
		Msg("promo book initialised")

	return book, nil
}

package promo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fileLoader implements Loader for reading gzipped rule files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based promo rule loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promo-loader").Logger(),
	}
}

// Load reads a gzipped rule file from the local file system.
// Each non-empty line holds "CODE,RATE[,description]"; lines starting with #
// are comments. RATE is a fraction of the subtotal in (0, 1].
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]Rule, error) {
	l.logger.Info().Str("file", filePath).Msg("loading promo file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open promo file")
		return nil, fmt.Errorf("failed to open promo file %s: %w", filePath, err)
	}
	defer file.Close()

	gzipReader, err := pgzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filePath, err)
	}
	defer gzipReader.Close()

	rules, err := parseRules(ctx, gzipReader, filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading promo file")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("rules_loaded", len(rules)).
		Msg("promo file loaded successfully")

	return rules, nil
}

// parseRules reads rule lines from r. source names the input in errors.
func parseRules(ctx context.Context, r io.Reader, source string) ([]Rule, error) {
	scanner := bufio.NewScanner(r)

	var rules []Rule
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, err := parseRule(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, lineNo, err)
		}
		rules = append(rules, rule)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading promo file %s: %w", source, err)
	}

	return rules, nil
}

func parseRule(line string) (Rule, error) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) < 2 {
		return Rule{}, fmt.Errorf("expected CODE,RATE but got %q", line)
	}

	code := NormaliseCode(parts[0])
	if code == "" {
		return Rule{}, fmt.Errorf("empty promo code")
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return Rule{}, fmt.Errorf("invalid rate for %s: %w", code, err)
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Rule{}, fmt.Errorf("rate for %s must be in (0, 1], got %s", code, rate)
	}

	rule := Rule{Code: code, Rate: rate}
	if len(parts) == 3 {
		rule.Description = strings.TrimSpace(parts[2])
	}
	return rule, nil
}

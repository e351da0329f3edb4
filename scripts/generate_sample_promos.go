//go:build ignore

// Command generate_sample_promos writes gzipped promo rule files for local
// development. Run with: go run scripts/generate_sample_promos.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"
)

type sampleRule struct {
	code        string
	rate        string
	description string
}

func main() {
	dataDir := "data/promos"

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := map[string][]sampleRule{
		"seasonal.gz": {
			{"SUMMER10", "0.10", "10% off summer produce"},
			{"WINTER15", "0.15", "15% off winter staples"},
		},
		"partners.gz": {
			{"FRESH5", "0.05", "5% partner discount"},
			// Overrides the builtin rate.
			{"CART11", "0.11", "11% off"},
		},
	}

	for filename, rules := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := writeRuleFile(filePath, rules); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d rules\n", filePath, len(rules))
	}

	fmt.Println("\nSet PROMO_FILES to load them, e.g.:")
	fmt.Printf("  PROMO_FILES=%s,%s\n",
		filepath.Join(dataDir, "seasonal.gz"),
		filepath.Join(dataDir, "partners.gz"))
}

func writeRuleFile(filePath string, rules []sampleRule) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := pgzip.NewWriter(file)
	defer func() {
		if cerr := gz.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to flush gzip stream: %w", cerr)
		}
	}()

	if _, err := fmt.Fprintln(gz, "# CODE,RATE,DESCRIPTION"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rules {
		if _, err := fmt.Fprintf(gz, "%s,%s,%s\n", r.code, r.rate, r.description); err != nil {
			return fmt.Errorf("failed to write rule: %w", err)
		}
	}

	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Storage backends selectable through BOOKHIVE_STORAGE.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config captures environment driven configuration values for the service.
type Config struct {
	HTTPPort       int
	Storage        string
	SQLiteDSN      string
	LoanPeriodDays int
	DailyFineCents int64
	BorrowLimit    int
	Seed           bool
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for every field and accumulates invalid
// entries so a single error names all of them.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		Storage:        StorageMemory,
		SQLiteDSN:      "file:bookhive.db?_pragma=foreign_keys(1)",
		LoanPeriodDays: 14,
		DailyFineCents: 50,
		BorrowLimit:    5,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BOOKHIVE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BOOKHIVE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.TrimSpace(os.Getenv("BOOKHIVE_STORAGE")); storage != "" {
		switch storage {
		case StorageMemory, StorageSQLite:
			cfg.Storage = storage
		default:
			invalid = append(invalid, "BOOKHIVE_STORAGE")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("BOOKHIVE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if daysValue := strings.TrimSpace(os.Getenv("BOOKHIVE_LOAN_PERIOD_DAYS")); daysValue != "" {
		days, err := strconv.Atoi(daysValue)
		if err != nil || days <= 0 {
			invalid = append(invalid, "BOOKHIVE_LOAN_PERIOD_DAYS")
		} else {
			cfg.LoanPeriodDays = days
		}
	}

	if centsValue := strings.TrimSpace(os.Getenv("BOOKHIVE_DAILY_FINE_CENTS")); centsValue != "" {
		cents, err := strconv.ParseInt(centsValue, 10, 64)
		if err != nil || cents < 0 {
			invalid = append(invalid, "BOOKHIVE_DAILY_FINE_CENTS")
		} else {
			cfg.DailyFineCents = cents
		}
	}

	if limitValue := strings.TrimSpace(os.Getenv("BOOKHIVE_BORROW_LIMIT")); limitValue != "" {
		limit, err := strconv.Atoi(limitValue)
		if err != nil || limit < 0 {
			invalid = append(invalid, "BOOKHIVE_BORROW_LIMIT")
		} else {
			cfg.BorrowLimit = limit
		}
	}

	if seedValue := strings.TrimSpace(os.Getenv("BOOKHIVE_SEED")); seedValue != "" {
		seed, err := strconv.ParseBool(seedValue)
		if err != nil {
			invalid = append(invalid, "BOOKHIVE_SEED")
		} else {
			cfg.Seed = seed
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

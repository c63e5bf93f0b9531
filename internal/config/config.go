package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend selectors.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	AccountsPath   string
	HistoryPath    string
	CashPath       string
	SessionTimeout time.Duration
	Storage        string
	DatabaseURL    string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		AccountsPath: fallback(os.Getenv("ATM_ACCOUNTS_PATH"), "data/accounts.csv"),
		HistoryPath:  fallback(os.Getenv("ATM_HISTORY_PATH"), "data/history.log"),
		CashPath:     fallback(os.Getenv("ATM_CASH_PATH"), "data/cash.txt"),
		Storage:      fallback(os.Getenv("ATM_STORAGE"), StorageFile),
		DatabaseURL:  strings.TrimSpace(os.Getenv("ATM_DATABASE_URL")),
	}

	seconds := fallback(os.Getenv("ATM_SESSION_TIMEOUT"), "120")
	if n, err := strconv.Atoi(seconds); err == nil && n > 0 {
		cfg.SessionTimeout = time.Duration(n) * time.Second
	} else {
		cfg.SessionTimeout = 120 * time.Second
	}

	switch cfg.Storage {
	case StorageFile:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("ATM_DATABASE_URL is required when ATM_STORAGE=postgres")
		}
	default:
		return Config{}, errors.New("ATM_STORAGE must be file or postgres")
	}

	return cfg, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

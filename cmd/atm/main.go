package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jayajr/atm/internal/config"
	apperrors "github.com/jayajr/atm/internal/errors"
	"github.com/jayajr/atm/internal/ledger"
	"github.com/jayajr/atm/internal/session"
	"github.com/jayajr/atm/internal/storage"
	filestore "github.com/jayajr/atm/internal/storage/file"
	"github.com/jayajr/atm/internal/storage/postgres"
)

func main() {
	// Optional .env for local runs; absence is fine.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// An unreadable account table is a startup hard-failure.
	l, err := ledger.Load(store, logger)
	if err != nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}

	controller := session.NewController(l, cfg.SessionTimeout, logger)

	run(controller)
}

func openStore(cfg config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(db, logger), func() { db.Close() }, nil
	default:
		s := filestore.New(cfg.AccountsPath, cfg.HistoryPath, cfg.CashPath, logger)
		return s, func() {}, nil
	}
}

// run is the operator console loop: one whitespace-split command per line,
// results and rejections printed back, EXIT to quit.
func run(controller *session.Controller) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}

		name := fields[0]
		if strings.EqualFold(name, "exit") || strings.EqualFold(name, "quit") {
			return
		}

		out, err := controller.Execute(name, fields[1:])
		if err != nil {
			fmt.Println(rejectionMessage(err))
		} else if out != "" {
			fmt.Println(out)
		}
		fmt.Print("> ")
	}
}

func rejectionMessage(err error) string {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.Message
	}
	return err.Error()
}

package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jayajr/atm/internal/domain"
	"github.com/jayajr/atm/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is a postgres implementation of storage.Store. Balances and deltas
// travel as strings so decimal precision survives the round trip. The
// account table keeps an explicit position column so rewrites preserve
// table iteration order.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

func (s *Store) LoadAccounts() ([]domain.Account, error) {
	query := `
		SELECT id, pin, balance
		FROM accounts ORDER BY position
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		var balanceStr string

		if err := rows.Scan(&account.ID, &account.PIN, &balanceStr); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("account %s: parse balance %q: %w", account.ID, balanceStr, err)
		}
		account.Balance = balance

		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	return accounts, nil
}

func (s *Store) SaveAccounts(accounts []domain.Account) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin account rewrite: %w", err)
	}

	query := `
		INSERT INTO accounts (id, pin, balance, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET pin = EXCLUDED.pin, balance = EXCLUDED.balance, position = EXCLUDED.position
	`

	for i, account := range accounts {
		if _, err := tx.Exec(query, account.ID, account.PIN, account.Balance.String(), i); err != nil {
			tx.Rollback()
			s.logger.Error("Failed to rewrite account", "account_id", account.ID, "error", err)
			return fmt.Errorf("rewrite account %s: %w", account.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) AppendHistory(rec domain.HistoryRecord) error {
	query := `
		INSERT INTO history (id, account_id, recorded_at, delta, balance)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(
		query,
		uuid.New(),
		rec.AccountID,
		rec.Time,
		rec.Delta.String(),
		rec.Balance.String(),
	)
	if err != nil {
		s.logger.Error("Failed to append history record", "account_id", rec.AccountID, "error", err)
		return fmt.Errorf("append history: %w", err)
	}

	return nil
}

func (s *Store) LoadHistory() ([]domain.HistoryRecord, error) {
	query := `
		SELECT account_id, recorded_at, delta, balance
		FROM history ORDER BY seq
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var deltaStr, balanceStr string

		if err := rows.Scan(&rec.AccountID, &rec.Time, &deltaStr, &balanceStr); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}

		if rec.Delta, err = decimal.NewFromString(deltaStr); err != nil {
			return nil, fmt.Errorf("parse history delta %q: %w", deltaStr, err)
		}
		if rec.Balance, err = decimal.NewFromString(balanceStr); err != nil {
			return nil, fmt.Errorf("parse history balance %q: %w", balanceStr, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	return records, nil
}

func (s *Store) LoadCash() (decimal.Decimal, bool) {
	query := `SELECT amount FROM cash WHERE singleton`

	var amountStr string
	err := s.db.QueryRow(query).Scan(&amountStr)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("Failed to read cash counter", "error", err)
		}
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		s.logger.Warn("Cash counter unparsable", "amount", amountStr, "error", err)
		return decimal.Zero, false
	}

	return amount, true
}

func (s *Store) SaveCash(amount decimal.Decimal) error {
	query := `
		INSERT INTO cash (singleton, amount) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET amount = EXCLUDED.amount
	`

	if _, err := s.db.Exec(query, amount.String()); err != nil {
		s.logger.Error("Failed to rewrite cash counter", "error", err)
		return fmt.Errorf("rewrite cash: %w", err)
	}

	return nil
}

package file

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jayajr/atm/internal/domain"
	"github.com/jayajr/atm/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const accountsHeader = "ACCOUNT_ID,PIN,BALANCE"

// Store persists the ledger to three flat files: a CSV account table, an
// append-only history log, and a single-value cash counter. Rewrites go
// through a tmp file plus rename so a crash mid-write cannot corrupt a
// file, but the three files are still committed independently.
type Store struct {
	accountsPath string
	historyPath  string
	cashPath     string
	logger       *slog.Logger
}

// New creates a file-backed store over the given paths.
func New(accountsPath, historyPath, cashPath string, logger *slog.Logger) *Store {
	return &Store{
		accountsPath: accountsPath,
		historyPath:  historyPath,
		cashPath:     cashPath,
		logger:       logger,
	}
}

// LoadAccounts reads the CSV account table. The header line and blank lines
// are skipped. Any read or parse failure is returned to the caller, which
// treats it as fatal.
func (s *Store) LoadAccounts() ([]domain.Account, error) {
	f, err := os.Open(s.accountsPath)
	if err != nil {
		return nil, fmt.Errorf("open account table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read account table: %w", err)
	}

	var accounts []domain.Account
	for _, rec := range records {
		if strings.EqualFold(rec[0], "ACCOUNT_ID") {
			continue
		}

		pin, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("account %s: bad pin %q: %w", rec[0], rec[1], err)
		}

		balance, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("account %s: bad balance %q: %w", rec[0], rec[2], err)
		}

		accounts = append(accounts, domain.Account{
			ID:      strings.TrimSpace(rec[0]),
			PIN:     pin,
			Balance: balance,
		})
	}

	return accounts, nil
}

// SaveAccounts rewrites the full account table, header first, one row per
// account in the order given.
func (s *Store) SaveAccounts(accounts []domain.Account) error {
	var b strings.Builder
	b.WriteString(accountsHeader)
	b.WriteByte('\n')
	for _, a := range accounts {
		b.WriteString(fmt.Sprintf("%s,%d,%s\n", a.ID, a.PIN, a.Balance.String()))
	}

	return s.writeAtomic(s.accountsPath, b.String())
}

// AppendHistory appends one record to the history log, creating the file on
// first use.
func (s *Store) AppendHistory(rec domain.HistoryRecord) error {
	f, err := os.OpenFile(s.historyPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s %s %s\n",
		rec.AccountID,
		rec.Time.Format(time.RFC3339),
		rec.Delta.String(),
		rec.Balance.String(),
	)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// LoadHistory reads the full history log in commit order. A missing log
// file reads as empty history. Malformed lines are skipped with a warning
// rather than failing the whole read.
func (s *Store) LoadHistory() ([]domain.HistoryRecord, error) {
	f, err := os.Open(s.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	var records []domain.HistoryRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, err := parseHistoryLine(line)
		if err != nil {
			s.logger.Warn("Skipping malformed history line", "line", line, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history log: %w", err)
	}

	return records, nil
}

func parseHistoryLine(line string) (domain.HistoryRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return domain.HistoryRecord{}, fmt.Errorf("want 4 fields, got %d", len(fields))
	}

	ts, err := time.Parse(time.RFC3339, fields[1])
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	delta, err := decimal.NewFromString(fields[2])
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	balance, err := decimal.NewFromString(fields[3])
	if err != nil {
		return domain.HistoryRecord{}, err
	}

	return domain.HistoryRecord{
		AccountID: fields[0],
		Time:      ts,
		Delta:     delta,
		Balance:   balance,
	}, nil
}

// LoadCash reads the cash counter file. ok is false when the file is
// missing or does not parse; the ledger then falls back to its default.
func (s *Store) LoadCash() (decimal.Decimal, bool) {
	data, err := os.ReadFile(s.cashPath)
	if err != nil {
		s.logger.Info("Cash counter file unavailable, using default", "path", s.cashPath, "error", err)
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(string(data)))
	if err != nil {
		s.logger.Info("Cash counter file unreadable, using default", "path", s.cashPath, "error", err)
		return decimal.Zero, false
	}

	return amount, true
}

// SaveCash overwrites the cash counter file with the given value.
func (s *Store) SaveCash(amount decimal.Decimal) error {
	return s.writeAtomic(s.cashPath, amount.String()+"\n")
}

// writeAtomic writes content to a tmp file next to path, then renames it
// into place.
func (s *Store) writeAtomic(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

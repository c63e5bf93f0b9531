package memory

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jayajr/atm/internal/domain"
	"github.com/jayajr/atm/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is an in-memory implementation of storage.Store. It is safe for
// concurrent use and hands out copies so callers cannot reach internal
// state. Used by the unit tests in place of the file-backed store.
type Store struct {
	mu       sync.Mutex
	accounts []domain.Account
	history  []domain.HistoryRecord
	cash     decimal.Decimal
	hasCash  bool
}

// New returns an empty in-memory store with no cash counter set.
func New() *Store {
	return &Store{}
}

// Seed replaces the account table and cash counter in one step.
func (s *Store) Seed(accounts []domain.Account, cash decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make([]domain.Account, len(accounts))
	copy(s.accounts, accounts)
	s.cash = cash
	s.hasCash = true
}

func (s *Store) LoadAccounts() ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

func (s *Store) SaveAccounts(accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make([]domain.Account, len(accounts))
	copy(s.accounts, accounts)
	return nil
}

func (s *Store) AppendHistory(rec domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, rec)
	return nil
}

func (s *Store) LoadHistory() ([]domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.HistoryRecord, len(s.history))
	copy(out, s.history)
	return out, nil
}

func (s *Store) LoadCash() (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cash, s.hasCash
}

func (s *Store) SaveCash(amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cash = amount
	s.hasCash = true
	return nil
}

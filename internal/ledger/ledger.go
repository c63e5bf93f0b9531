package ledger

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jayajr/atm/internal/domain"
	"github.com/jayajr/atm/internal/errors"
	"github.com/jayajr/atm/internal/storage"
)

// DefaultCash seeds the cash-on-hand counter when its durable source is
// missing or unreadable.
var DefaultCash = decimal.NewFromInt(10000)

var overdraftFee = decimal.NewFromInt(5)

// Ledger owns the in-memory account table and the cash-on-hand counter,
// and drives the durable commit after every balance mutation. Commands
// reach it one at a time through the session controller; the mutex keeps
// it safe if it is ever driven directly.
type Ledger struct {
	mu       sync.Mutex
	store    storage.Store
	logger   *slog.Logger
	accounts map[string]*domain.Account
	order    []string
	cash     decimal.Decimal
}

// WithdrawResult reports a successful withdrawal: the amount dispensed,
// the overdraft fee charged (zero when the balance stayed non-negative),
// and the final balance after both.
type WithdrawResult struct {
	Dispensed decimal.Decimal
	Fee       decimal.Decimal
	Balance   decimal.Decimal
}

// DepositResult reports the balance after a successful deposit.
type DepositResult struct {
	Balance decimal.Decimal
}

// Load builds a ledger from durable storage. An unreadable account table
// is a startup hard-failure and is returned as an error; a missing cash
// counter falls back to DefaultCash.
func Load(store storage.Store, logger *slog.Logger) (*Ledger, error) {
	accounts, err := store.LoadAccounts()
	if err != nil {
		return nil, fmt.Errorf("load account table: %w", err)
	}

	l := &Ledger{
		store:    store,
		logger:   logger,
		accounts: make(map[string]*domain.Account, len(accounts)),
	}

	for i := range accounts {
		a := accounts[i]
		if _, exists := l.accounts[a.ID]; exists {
			return nil, fmt.Errorf("duplicate account id %q in account table", a.ID)
		}
		l.accounts[a.ID] = &a
		l.order = append(l.order, a.ID)
	}

	cash, ok := store.LoadCash()
	if !ok {
		logger.Info("Cash counter unavailable, using default", "default", DefaultCash)
		cash = DefaultCash
	}
	l.cash = cash

	logger.Info("Ledger loaded", "accounts", len(l.order), "cash_on_hand", l.cash)
	return l, nil
}

// VerifyPIN checks credentials for the session controller. It never
// mutates state. Unknown accounts, malformed PINs, and mismatches are all
// rejections.
func (l *Ledger) VerifyPIN(accountID, pinArg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, err := l.lookup(accountID)
	if err != nil {
		return err
	}

	pin, err := parsePIN(pinArg)
	if err != nil {
		return err
	}

	if account.PIN != pin {
		l.logger.Warn("PIN mismatch", "account_id", accountID)
		return errors.ErrInvalidCredentials
	}

	return nil
}

// Withdraw dispenses amount from the account. The account must not already
// be overdrawn, and the machine must hold enough cash to cover the full
// amount. If the withdrawal itself drives the balance negative, a single
// overdraft fee is charged immediately after the commit; the fee does not
// produce its own history record.
func (l *Ledger) Withdraw(accountID, amountArg string) (*WithdrawResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, err := l.lookup(accountID)
	if err != nil {
		return nil, err
	}

	amount, err := parseWithdrawAmount(amountArg)
	if err != nil {
		l.logger.Warn("Withdrawal rejected", "account_id", accountID, "amount", amountArg, "error", err)
		return nil, err
	}

	if account.Balance.IsNegative() {
		l.logger.Warn("Withdrawal rejected, account overdrawn", "account_id", accountID, "balance", account.Balance)
		return nil, errors.ErrAccountOverdrawn
	}

	if l.cash.Sub(amount).IsNegative() {
		l.logger.Warn("Withdrawal rejected, insufficient cash on hand",
			"account_id", accountID, "amount", amount, "cash_on_hand", l.cash)
		return nil, errors.ErrInsufficientCash
	}

	account.Balance = account.Balance.Sub(amount)
	l.cash = l.cash.Sub(amount)

	if err := l.commit(accountID, amount.Neg(), account.Balance); err != nil {
		return nil, err
	}

	result := &WithdrawResult{
		Dispensed: amount,
		Fee:       decimal.Zero,
		Balance:   account.Balance,
	}

	// Fee applies after the withdrawal commit, so it never appears as a
	// separate history record; only the persisted account table reflects it.
	if account.Balance.IsNegative() {
		account.Balance = account.Balance.Sub(overdraftFee)
		result.Fee = overdraftFee
		result.Balance = account.Balance

		if err := l.store.SaveAccounts(l.snapshotLocked()); err != nil {
			l.logger.Error("Failed to persist overdraft fee", "account_id", accountID, "error", err)
			return nil, errors.NewAppError(errors.InternalError, "failed to persist account table").WithDetails(err.Error())
		}
		l.logger.Info("Overdraft fee applied", "account_id", accountID, "fee", overdraftFee, "balance", account.Balance)
	}

	l.logger.Info("Withdrawal completed",
		"account_id", accountID, "dispensed", amount, "balance", account.Balance, "cash_on_hand", l.cash)
	return result, nil
}

// Deposit adds amount to the account and to the cash on hand. There is no
// upper bound on deposits.
func (l *Ledger) Deposit(accountID, amountArg string) (*DepositResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, err := l.lookup(accountID)
	if err != nil {
		return nil, err
	}

	amount, err := parseDepositAmount(amountArg)
	if err != nil {
		l.logger.Warn("Deposit rejected", "account_id", accountID, "amount", amountArg, "error", err)
		return nil, err
	}

	account.Balance = account.Balance.Add(amount)
	l.cash = l.cash.Add(amount)

	if err := l.commit(accountID, amount, account.Balance); err != nil {
		return nil, err
	}

	l.logger.Info("Deposit completed",
		"account_id", accountID, "amount", amount, "balance", account.Balance, "cash_on_hand", l.cash)
	return &DepositResult{Balance: account.Balance}, nil
}

// Balance reports the current balance of the account with no mutation.
func (l *Ledger) Balance(accountID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, err := l.lookup(accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// History returns the account's committed mutations, most recent first.
// An empty result is not an error; the caller reports it distinctly.
func (l *Ledger) History(accountID string) ([]domain.HistoryRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.lookup(accountID); err != nil {
		return nil, err
	}

	all, err := l.store.LoadHistory()
	if err != nil {
		l.logger.Error("Failed to read history log", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to read transaction history").WithDetails(err.Error())
	}

	var records []domain.HistoryRecord
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].AccountID == accountID {
			records = append(records, all[i])
		}
	}
	return records, nil
}

// Cash reports the current cash-on-hand counter.
func (l *Ledger) Cash() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// lookup resolves an account id or produces the rejection for it. Callers
// hold the mutex.
func (l *Ledger) lookup(accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "an account id is required")
	}

	account, ok := l.accounts[accountID]
	if !ok {
		l.logger.Warn("Account not found", "account_id", accountID)
		return nil, errors.ErrAccountNotFound
	}
	return account, nil
}

// commit runs the durable-write sequence for one mutation: history append,
// full account-table rewrite, cash rewrite. The three writes are not
// atomic as a group; any failure propagates as an unrecoverable fault.
// Callers hold the mutex.
func (l *Ledger) commit(accountID string, delta, balance decimal.Decimal) error {
	rec := domain.HistoryRecord{
		AccountID: accountID,
		Time:      time.Now(),
		Delta:     delta,
		Balance:   balance,
	}
	if err := l.store.AppendHistory(rec); err != nil {
		l.logger.Error("Failed to append history record", "account_id", accountID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to record transaction").WithDetails(err.Error())
	}

	if err := l.store.SaveAccounts(l.snapshotLocked()); err != nil {
		l.logger.Error("Failed to rewrite account table", "error", err)
		return errors.NewAppError(errors.InternalError, "failed to persist account table").WithDetails(err.Error())
	}

	if err := l.store.SaveCash(l.cash); err != nil {
		l.logger.Error("Failed to rewrite cash counter", "error", err)
		return errors.NewAppError(errors.InternalError, "failed to persist cash counter").WithDetails(err.Error())
	}

	return nil
}

// snapshotLocked copies the account table in insertion order for a full
// rewrite. Callers hold the mutex.
func (l *Ledger) snapshotLocked() []domain.Account {
	out := make([]domain.Account, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.accounts[id])
	}
	return out
}

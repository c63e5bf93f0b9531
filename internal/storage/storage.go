package storage

import (
	"github.com/shopspring/decimal"

	"github.com/jayajr/atm/internal/domain"
)

// Store is the durable backing for the account table, the transaction
// history, and the cash-on-hand counter. Implementations are not required
// to make the three commit writes atomic as a group; the ledger performs
// them in a fixed order (history append, account rewrite, cash rewrite)
// and treats any failure as an unrecoverable fault.
type Store interface {
	// LoadAccounts reads the full account table. An error here is a
	// startup hard-failure for the caller.
	LoadAccounts() ([]domain.Account, error)

	// SaveAccounts rewrites the full account table, preserving the order
	// of the given slice.
	SaveAccounts(accounts []domain.Account) error

	// AppendHistory durably appends one committed mutation record.
	AppendHistory(rec domain.HistoryRecord) error

	// LoadHistory reads every history record in commit order. A missing
	// history source reads as an empty log, not an error.
	LoadHistory() ([]domain.HistoryRecord, error)

	// LoadCash reads the cash-on-hand counter. ok is false when the source
	// is missing or unreadable; the caller substitutes its default.
	LoadCash() (amount decimal.Decimal, ok bool)

	// SaveCash rewrites the cash-on-hand counter.
	SaveCash(amount decimal.Decimal) error
}

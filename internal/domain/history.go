package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryRecord is one committed balance mutation. Records are append-only
// and stored in commit order; Delta is signed (negative for withdrawals)
// and Balance is the account balance immediately after the mutation.
type HistoryRecord struct {
	AccountID string          `json:"account_id"`
	Time      time.Time       `json:"time"`
	Delta     decimal.Decimal `json:"delta"`
	Balance   decimal.Decimal `json:"balance"`
}

package domain

import (
	"github.com/shopspring/decimal"
)

// Account is one row of the machine's account table. The ID is an opaque
// label: it usually looks numeric but is never parsed as a number, so "0"
// and "007" are distinct valid accounts.
type Account struct {
	ID      string          `json:"account_id"`
	PIN     int             `json:"pin"`
	Balance decimal.Decimal `json:"balance"`
}

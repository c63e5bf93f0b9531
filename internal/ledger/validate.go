package ledger

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jayajr/atm/internal/errors"
)

var (
	withdrawStep   = decimal.NewFromInt(20)
	minimumDeposit = decimal.Zero
)

// parsePIN checks that a PIN argument is a well-formed integer. Zero is a
// valid PIN.
func parsePIN(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, errors.NewAppError(errors.InvalidInput, "a PIN is required")
	}

	pin, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.NewAppError(errors.InvalidInput, "PIN must be a number")
	}
	return pin, nil
}

// parseWithdrawAmount enforces the dispensing granularity: the amount must
// be numeric and a positive multiple of 20.
func parseWithdrawAmount(arg string) (decimal.Decimal, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "a withdrawal amount is required")
	}

	amount, err := decimal.NewFromString(arg)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "withdrawal amount must be a number")
	}

	if amount.LessThan(withdrawStep) || !amount.Mod(withdrawStep).IsZero() {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "withdrawal amount must be a positive multiple of 20")
	}

	return amount, nil
}

// parseDepositAmount accepts any non-negative numeric amount, fractions
// included.
func parseDepositAmount(arg string) (decimal.Decimal, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "a deposit amount is required")
	}

	amount, err := decimal.NewFromString(arg)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "deposit amount must be a number")
	}

	if amount.LessThan(minimumDeposit) {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "deposit amount must not be negative")
	}

	return amount, nil
}

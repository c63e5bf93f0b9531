package session

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayajr/atm/internal/domain"
	"github.com/jayajr/atm/internal/errors"
	"github.com/jayajr/atm/internal/ledger"
	"github.com/jayajr/atm/internal/storage/memory"
)

func newTestController(t *testing.T, timeout time.Duration) (*Controller, *memory.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.New()
	store.Seed([]domain.Account{
		{ID: "0", PIN: 0, Balance: decimal.NewFromInt(20)},
		{ID: "2001377812", PIN: 5950, Balance: decimal.NewFromInt(60)},
	}, decimal.NewFromInt(10000))

	l, err := ledger.Load(store, logger)
	require.NoError(t, err)

	return NewController(l, timeout, logger), store
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok, "expected *errors.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
}

func TestAuthorizeAndBalance(t *testing.T) {
	c, _ := newTestController(t, 0)

	out, err := c.Execute("authorize", []string{"0", "0"})
	require.NoError(t, err)
	assert.Equal(t, "0 successfully authorized.", out)

	account, ok := c.Authorized()
	require.True(t, ok)
	assert.Equal(t, "0", account)

	out, err = c.Execute("balance", nil)
	require.NoError(t, err)
	assert.Equal(t, "Current balance: 20", out)
}

func TestAuthorizeRejections(t *testing.T) {
	c, _ := newTestController(t, 0)

	_, err := c.Execute("AUTHORIZE", []string{"0"})
	requireCode(t, err, errors.InvalidInput)

	_, err = c.Execute("AUTHORIZE", []string{"missing", "0"})
	requireCode(t, err, errors.AccountNotFound)

	_, err = c.Execute("AUTHORIZE", []string{"0", "notanumber"})
	requireCode(t, err, errors.InvalidInput)

	_, err = c.Execute("AUTHORIZE", []string{"2001377812", "1111"})
	requireCode(t, err, errors.InvalidCredentials)

	_, ok := c.Authorized()
	assert.False(t, ok, "failed authorization must not open a session")
}

func TestAuthorizeWhileAuthorized(t *testing.T) {
	c, _ := newTestController(t, 0)

	_, err := c.Execute("authorize", []string{"0", "0"})
	require.NoError(t, err)

	_, err = c.Execute("authorize", []string{"2001377812", "5950"})
	requireCode(t, err, errors.AlreadyAuthorized)

	account, ok := c.Authorized()
	require.True(t, ok)
	assert.Equal(t, "0", account, "rejected re-authorization must not switch accounts")
}

func TestLogout(t *testing.T) {
	c, _ := newTestController(t, 0)

	// Logging out with no session is a distinct no-op.
	_, err := c.Execute("logout", nil)
	requireCode(t, err, errors.NoSession)

	_, err = c.Execute("authorize", []string{"0", "0"})
	require.NoError(t, err)

	out, err := c.Execute("logout", nil)
	require.NoError(t, err)
	assert.Equal(t, "Account 0 logged out.", out)

	_, ok := c.Authorized()
	assert.False(t, ok)

	// Idempotent: a second logout is the no-op again.
	_, err = c.Execute("logout", nil)
	requireCode(t, err, errors.NoSession)
}

func TestAuthRequiredCommandsRejectedWithoutSession(t *testing.T) {
	c, store := newTestController(t, 0)

	for _, name := range []string{"withdraw", "deposit", "balance", "history", "bogus"} {
		_, err := c.Execute(name, []string{"1000"})
		requireCode(t, err, errors.Unauthorized)
	}

	history, err := store.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, history, "unauthorized commands must not touch state")
}

func TestUnknownCommandWithSession(t *testing.T) {
	c, _ := newTestController(t, 0)

	_, err := c.Execute("authorize", []string{"0", "0"})
	require.NoError(t, err)

	_, err = c.Execute("frobnicate", nil)
	requireCode(t, err, errors.UnknownCommand)

	_, ok := c.Authorized()
	assert.True(t, ok, "unknown command must not end the session")
}

func TestExtraArgumentsIgnored(t *testing.T) {
	c, _ := newTestController(t, 0)

	_, err := c.Execute("authorize", []string{"0", "0", "ignored", "also-ignored"})
	require.NoError(t, err)

	out, err := c.Execute("balance", []string{"what", "ever"})
	require.NoError(t, err)
	assert.Equal(t, "Current balance: 20", out)
}

func TestWithdrawAndDepositOutput(t *testing.T) {
	c, _ := newTestController(t, 0)

	_, err := c.Execute("authorize", []string{"2001377812", "5950"})
	require.NoError(t, err)

	out, err := c.Execute("withdraw", []string{"20"})
	require.NoError(t, err)
	assert.Equal(t, "Amount dispensed: $20\nCurrent balance: 40", out)

	out, err = c.Execute("deposit", []string{"10"})
	require.NoError(t, err)
	assert.Equal(t, "Current balance: 50", out)

	// Driving the balance negative reports the fee.
	out, err = c.Execute("withdraw", []string{"60"})
	require.NoError(t, err)
	assert.Equal(t, "Amount dispensed: $60\nYou have been charged an overdraft fee of $5. Current balance: -15", out)
}

func TestHistoryOutput(t *testing.T) {
	c, _ := newTestController(t, 0)

	_, err := c.Execute("authorize", []string{"0", "0"})
	require.NoError(t, err)

	out, err := c.Execute("history", nil)
	require.NoError(t, err)
	assert.Equal(t, "No history found", out)

	_, err = c.Execute("deposit", []string{"10"})
	require.NoError(t, err)
	_, err = c.Execute("withdraw", []string{"20"})
	require.NoError(t, err)

	out, err = c.Execute("history", nil)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], " -20 10", "most recent first")
	assert.Contains(t, lines[1], " 10 30")
}

func TestInactivityExpiry(t *testing.T) {
	c, _ := newTestController(t, 100*time.Millisecond)

	_, err := c.Execute("authorize", []string{"0", "0"})
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)

	_, ok := c.Authorized()
	assert.False(t, ok, "session must expire after the inactivity window")

	_, err = c.Execute("balance", nil)
	requireCode(t, err, errors.Unauthorized)
}

func TestActivityResetsExpiry(t *testing.T) {
	c, _ := newTestController(t, 300*time.Millisecond)

	_, err := c.Execute("authorize", []string{"0", "0"})
	require.NoError(t, err)

	// Keep the session alive past the original deadline with activity;
	// even an invalid command counts.
	for i := 0; i < 3; i++ {
		time.Sleep(150 * time.Millisecond)
		_, err := c.Execute("frobnicate", nil)
		requireCode(t, err, errors.UnknownCommand)
	}

	_, ok := c.Authorized()
	assert.True(t, ok, "activity must slide the expiry window")

	time.Sleep(600 * time.Millisecond)
	_, ok = c.Authorized()
	assert.False(t, ok)
}

func TestLogoutCancelsTimer(t *testing.T) {
	c, _ := newTestController(t, 100*time.Millisecond)

	_, err := c.Execute("authorize", []string{"0", "0"})
	require.NoError(t, err)
	_, err = c.Execute("logout", nil)
	require.NoError(t, err)

	// A stale timer firing after logout must not disturb a new session.
	_, err = c.Execute("authorize", []string{"2001377812", "5950"})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	account, ok := c.Authorized()
	require.True(t, ok)
	assert.Equal(t, "2001377812", account)
}

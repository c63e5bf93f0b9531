package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jayajr/atm/internal/domain"
	"github.com/jayajr/atm/internal/errors"
	"github.com/jayajr/atm/internal/ledger"
)

// Recognized command names. Names are matched case-insensitively.
const (
	CmdAuthorize = "AUTHORIZE"
	CmdWithdraw  = "WITHDRAW"
	CmdDeposit   = "DEPOSIT"
	CmdBalance   = "BALANCE"
	CmdHistory   = "HISTORY"
	CmdLogout    = "LOGOUT"
)

// DefaultTimeout is the inactivity window after which a session is
// automatically logged out.
const DefaultTimeout = 120 * time.Second

// Controller is the authorization state machine. It owns the single
// authorized-session slot and the inactivity timer, and routes commands to
// the ledger. One mutex serializes command execution and timer expiry, so
// a firing timer behaves like any other command on the stream.
type Controller struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	logger  *slog.Logger
	timeout time.Duration

	current  *domain.Session
	timer    *time.Timer
	timerGen uint64
}

// NewController creates a controller in the unauthenticated state. A
// non-positive timeout falls back to DefaultTimeout.
func NewController(l *ledger.Ledger, timeout time.Duration, logger *slog.Logger) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		ledger:  l,
		logger:  logger,
		timeout: timeout,
	}
}

// Execute dispatches one operator command. AUTHORIZE and LOGOUT are always
// dispatchable; every other command requires an active session. Any
// attempt at an auth-required command, valid or not, counts as activity
// and resets the inactivity timer. Extra positional arguments are ignored.
// The returned string is the operator-facing output; rejections come back
// as *errors.AppError and leave the session usable.
func (c *Controller) Execute(name string, args []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch strings.ToUpper(strings.TrimSpace(name)) {
	case CmdAuthorize:
		if len(args) < 2 {
			return "", errors.NewAppError(errors.InvalidInput, "usage: authorize <account_id> <pin>")
		}
		return c.authorizeLocked(args[0], args[1])

	case CmdLogout:
		return c.logoutLocked()

	default:
		// Everything else needs a session before it can even be named.
		if c.current == nil {
			return "", errors.ErrUnauthorized
		}
		c.scheduleLocked()
		return c.dispatchLocked(strings.ToUpper(strings.TrimSpace(name)), args)
	}
}

func (c *Controller) dispatchLocked(name string, args []string) (string, error) {
	accountID := c.current.AccountID

	switch name {
	case CmdWithdraw:
		result, err := c.ledger.Withdraw(accountID, argAt(args, 0))
		if err != nil {
			return "", err
		}
		out := fmt.Sprintf("Amount dispensed: $%s\n", result.Dispensed)
		if result.Fee.IsPositive() {
			out += fmt.Sprintf("You have been charged an overdraft fee of $%s. Current balance: %s", result.Fee, result.Balance)
		} else {
			out += fmt.Sprintf("Current balance: %s", result.Balance)
		}
		return out, nil

	case CmdDeposit:
		result, err := c.ledger.Deposit(accountID, argAt(args, 0))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Current balance: %s", result.Balance), nil

	case CmdBalance:
		balance, err := c.ledger.Balance(accountID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Current balance: %s", balance), nil

	case CmdHistory:
		records, err := c.ledger.History(accountID)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return "No history found", nil
		}
		lines := make([]string, 0, len(records))
		for _, rec := range records {
			lines = append(lines, fmt.Sprintf("%s %s %s", rec.Time.Format(time.RFC3339), rec.Delta, rec.Balance))
		}
		return strings.Join(lines, "\n"), nil

	default:
		c.logger.Warn("Unknown command", "command", name)
		return "", errors.NewAppErrorf(errors.UnknownCommand, "invalid command: %s", strings.ToLower(name))
	}
}

// authorizeLocked validates credentials against the ledger and opens the
// session. Re-authorizing while a session is active is rejected with no
// side effects, timer included.
func (c *Controller) authorizeLocked(accountID, pin string) (string, error) {
	if c.current != nil {
		c.logger.Warn("Authorization rejected, session already active",
			"account_id", accountID, "active_account_id", c.current.AccountID)
		return "", errors.ErrAlreadyAuthorized
	}

	if err := c.ledger.VerifyPIN(accountID, pin); err != nil {
		return "", err
	}

	c.current = &domain.Session{
		ID:        uuid.New(),
		AccountID: accountID,
		StartedAt: time.Now(),
	}
	c.scheduleLocked()

	c.logger.Info("Session authorized", "session_id", c.current.ID, "account_id", accountID)
	return fmt.Sprintf("%s successfully authorized.", accountID), nil
}

// logoutLocked ends the session, or reports the distinct no-op when no
// account is authorized.
func (c *Controller) logoutLocked() (string, error) {
	if c.current == nil {
		return "", errors.ErrNoSession
	}

	accountID := c.current.AccountID
	c.clearLocked()

	c.logger.Info("Session logged out", "account_id", accountID)
	return fmt.Sprintf("Account %s logged out.", accountID), nil
}

// Authorized reports which account, if any, currently holds the session.
func (c *Controller) Authorized() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return "", false
	}
	return c.current.AccountID, true
}

// scheduleLocked cancels any pending expiry and arms a fresh single-shot
// timer for the full window. The generation counter makes a timer that
// already fired, but lost the race to this reschedule, a no-op.
func (c *Controller) scheduleLocked() {
	c.timerGen++
	gen := c.timerGen

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.timeout, func() {
		c.expire(gen)
	})
}

// expire is the timer callback. It takes the same mutex as Execute, so
// expiry is serialized with command processing and can never interleave
// with a mutation.
func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.timerGen || c.current == nil {
		return
	}

	accountID := c.current.AccountID
	c.clearLocked()
	c.logger.Info("Session expired after inactivity", "account_id", accountID, "timeout", c.timeout)
}

// clearLocked drops the session and disarms the timer as one step.
func (c *Controller) clearLocked() {
	c.current = nil
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// argAt returns the positional argument at i, or "" when the operator
// supplied fewer; validation downstream turns "" into the proper rejection.
func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

/*
Package ledger implements the hour-balance ledger.

PURPOSE:
  Tracks each employee's compensable overtime as an append-only movement
  log plus a derived current-balance snapshot. The ledger is the ONLY
  writer of the balance value; the rule engine and import pipeline only
  produce data it consumes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Movement: immutable ledger entry (accrual or consumption)
  - Balance: current snapshot with derived status
  - Status: NORMAL / WARNING / CRITICAL / EXPIRED classification
  - Alert + Notifier: threshold alerting port

CRITICAL INVARIANTS:
  1. Movements are append-only: never updated, never deleted
  2. Every AddHours/SubtractHours appends exactly one movement
  3. Status is re-derived on every read and write
  4. No floor at zero: a balance may go negative; callers pre-check
     sufficiency (the compensation workflow does)

THRESHOLDS (fixed policy constants, not configuration):
  Status:  balance > 40 CRITICAL, > 30 WARNING, expiry passed EXPIRED
  Alerts:  balance >= 32 CRITICAL severity, >= 24 HIGH severity

SEE ALSO:
  - ledger.go: the read-modify-write operations
  - store/sqlite, store/memory: Store implementations
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/clock"
)

// =============================================================================
// MOVEMENT - Immutable ledger entry
// =============================================================================

type MovementType string

const (
	MovementAccrual     MovementType = "accrual"
	MovementConsumption MovementType = "consumption"
)

// Movement is one append-only ledger entry. Hours is always positive; the
// direction is carried by Type.
type Movement struct {
	ID            string
	EmployeeID    clock.EmployeeID
	Type          MovementType
	Hours         decimal.Decimal
	Description   string
	ReferenceDate time.Time
	Metadata      map[string]string
	CreatedAt     time.Time
}

// =============================================================================
// BALANCE - Derived snapshot
// =============================================================================

type Status string

const (
	StatusNormal   Status = "NORMAL"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
	StatusExpired  Status = "EXPIRED"
)

// Balance is the current snapshot for one employee. One logical balance
// exists per employee; Status is recomputed on every read.
type Balance struct {
	EmployeeID clock.EmployeeID
	Balance    decimal.Decimal
	Status     Status
	ValidUntil *time.Time
	UpdatedAt  time.Time
}

// Status thresholds. Policy constants of this core; callers that need
// different thresholds wrap the ledger.
var (
	statusCriticalAbove = decimal.NewFromInt(40)
	statusWarningAbove  = decimal.NewFromInt(30)
)

// deriveStatus classifies the balance. Expiry wins over any numeric value.
func deriveStatus(b Balance, now time.Time) Status {
	switch {
	case b.ValidUntil != nil && now.After(*b.ValidUntil):
		return StatusExpired
	case b.Balance.GreaterThan(statusCriticalAbove):
		return StatusCritical
	case b.Balance.GreaterThan(statusWarningAbove):
		return StatusWarning
	default:
		return StatusNormal
	}
}

// =============================================================================
// ALERTING - Evaluated on write only
// =============================================================================

type Severity string

const (
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Alert thresholds: 32h is 80% of the 40h legal cap.
var (
	alertCriticalAt = decimal.NewFromInt(32)
	alertHighAt     = decimal.NewFromInt(24)
)

// Alert is the event handed to the external notification collaborator.
type Alert struct {
	EmployeeID clock.EmployeeID
	Severity   Severity
	Title      string
	Message    string
}

// Notifier delivers alerts. Emission is fire-and-forget relative to the
// ledger write: a Notify failure never rolls back the balance update.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// NopNotifier discards alerts.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Alert) error { return nil }

// =============================================================================
// STORE - Persistence port
// =============================================================================

// Store persists balances and movements. Movements are append-only: the
// interface deliberately has no update or delete for them.
type Store interface {
	// GetBalance returns the employee's balance, or clock.ErrBalanceNotFound.
	GetBalance(ctx context.Context, employeeID clock.EmployeeID) (Balance, error)

	// PutBalance creates or replaces the employee's snapshot.
	PutBalance(ctx context.Context, b Balance) error

	// AppendMovement appends one ledger entry.
	AppendMovement(ctx context.Context, m Movement) error

	// Movements returns entries for the employee, newest first, capped at
	// limit (0 means no cap).
	Movements(ctx context.Context, employeeID clock.EmployeeID, limit int) ([]Movement, error)
}

/*
ledger.go - Read-modify-write operations on the hour balance

PURPOSE:
  AddHours / SubtractHours / GetBalance / History. Each write atomically
  reads the current balance, applies the delta, persists the new snapshot,
  appends exactly one movement, re-derives status and evaluates the alert
  thresholds.

CONCURRENCY:
  Writes for the SAME employee must not interleave (lost-update hazard when
  two imports touch one employee concurrently). The ledger serializes them
  with a per-employee mutex; no cross-employee locking exists, so imports
  for different employees proceed in parallel.

SEE ALSO:
  - types.go: thresholds and ports
  - importer: calls AddHours when a day yields extra hours
  - compensation: pre-checks balance, then calls SubtractHours
*/
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/clock"
	"go.uber.org/zap"
)

// Ledger owns the mutable balance value. It is the only writer.
type Ledger struct {
	store    Store
	notifier Notifier
	log      *zap.Logger

	mu keyedMutex
}

// keyedMutex stripes locks by employee so concurrent imports for
// different employees never contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[clock.EmployeeID]*sync.Mutex
}

func (g *keyedMutex) lock(id clock.EmployeeID) *sync.Mutex {
	g.mu.Lock()
	if g.locks == nil {
		g.locks = make(map[clock.EmployeeID]*sync.Mutex)
	}
	l, ok := g.locks[id]
	if !ok {
		l = &sync.Mutex{}
		g.locks[id] = l
	}
	g.mu.Unlock()
	l.Lock()
	return l
}

// New creates a ledger. notifier and log may be nil.
func New(store Store, notifier Notifier, log *zap.Logger) *Ledger {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, notifier: notifier, log: log}
}

// AddHours accrues hours (overtime earned). Appends one accrual movement.
func (l *Ledger) AddHours(ctx context.Context, employeeID clock.EmployeeID, hours float64, description string, metadata map[string]string) (Balance, error) {
	return l.move(ctx, employeeID, MovementAccrual, hours, description, metadata)
}

// SubtractHours consumes hours (compensation). No floor at zero is applied:
// the balance may go negative. Callers pre-check sufficiency.
func (l *Ledger) SubtractHours(ctx context.Context, employeeID clock.EmployeeID, hours float64, description string, metadata map[string]string) (Balance, error) {
	return l.move(ctx, employeeID, MovementConsumption, hours, description, metadata)
}

func (l *Ledger) move(ctx context.Context, employeeID clock.EmployeeID, typ MovementType, hours float64, description string, metadata map[string]string) (Balance, error) {
	lock := l.mu.lock(employeeID)
	defer lock.Unlock()

	now := time.Now().UTC()
	bal, err := l.findOrCreate(ctx, employeeID, now)
	if err != nil {
		return Balance{}, err
	}

	delta := decimal.NewFromFloat(hours)
	if typ == MovementConsumption {
		bal.Balance = bal.Balance.Sub(delta)
	} else {
		bal.Balance = bal.Balance.Add(delta)
	}
	bal.Status = deriveStatus(bal, now)
	bal.UpdatedAt = now

	// Snapshot first, movement second: a movement must always reference a
	// persisted balance state.
	if err := l.store.PutBalance(ctx, bal); err != nil {
		return Balance{}, err
	}
	if err := l.store.AppendMovement(ctx, Movement{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		Type:          typ,
		Hours:         delta,
		Description:   description,
		ReferenceDate: now,
		Metadata:      metadata,
		CreatedAt:     now,
	}); err != nil {
		return Balance{}, err
	}

	l.log.Info("balance updated",
		zap.String("employee", string(employeeID)),
		zap.String("type", string(typ)),
		zap.Float64("hours", hours),
		zap.String("balance", bal.Balance.String()),
		zap.String("status", string(bal.Status)))

	l.checkAlerts(ctx, bal)
	return bal, nil
}

// GetBalance returns the snapshot with its status freshly derived. A status
// change is persisted so stored state never lags what readers saw.
func (l *Ledger) GetBalance(ctx context.Context, employeeID clock.EmployeeID) (Balance, error) {
	lock := l.mu.lock(employeeID)
	defer lock.Unlock()

	return l.findOrCreate(ctx, employeeID, time.Now().UTC())
}

// History returns movements newest first, capped at limit (0 = uncapped).
func (l *Ledger) History(ctx context.Context, employeeID clock.EmployeeID, limit int) ([]Movement, error) {
	return l.store.Movements(ctx, employeeID, limit)
}

func (l *Ledger) findOrCreate(ctx context.Context, employeeID clock.EmployeeID, now time.Time) (Balance, error) {
	bal, err := l.store.GetBalance(ctx, employeeID)
	if clock.IsNotFound(err) {
		bal = Balance{EmployeeID: employeeID, Balance: decimal.Zero, Status: StatusNormal, UpdatedAt: now}
		if err := l.store.PutBalance(ctx, bal); err != nil {
			return Balance{}, err
		}
		return bal, nil
	}
	if err != nil {
		return Balance{}, err
	}

	if derived := deriveStatus(bal, now); derived != bal.Status {
		bal.Status = derived
		bal.UpdatedAt = now
		if err := l.store.PutBalance(ctx, bal); err != nil {
			return Balance{}, err
		}
	}
	return bal, nil
}

// checkAlerts evaluates the write-time thresholds. Notify failures are
// logged and dropped; the balance update stands regardless.
func (l *Ledger) checkAlerts(ctx context.Context, bal Balance) {
	var alert *Alert
	switch {
	case bal.Balance.GreaterThanOrEqual(alertCriticalAt):
		alert = &Alert{
			EmployeeID: bal.EmployeeID,
			Severity:   SeverityCritical,
			Title:      "Critical hour balance",
			Message:    fmt.Sprintf("Hour balance is critical: %sh. Immediate action required.", bal.Balance.StringFixed(2)),
		}
	case bal.Balance.GreaterThanOrEqual(alertHighAt):
		alert = &Alert{
			EmployeeID: bal.EmployeeID,
			Severity:   SeverityHigh,
			Title:      "High hour balance",
			Message:    fmt.Sprintf("Hour balance is high: %sh. Consider scheduling compensation.", bal.Balance.StringFixed(2)),
		}
	}
	if alert == nil {
		return
	}
	if err := l.notifier.Notify(ctx, *alert); err != nil {
		l.log.Warn("alert delivery failed",
			zap.String("employee", string(bal.EmployeeID)),
			zap.String("severity", string(alert.Severity)),
			zap.Error(err))
	}
}

package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/ledger"
	"github.com/warp/hours-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*ledger.Ledger, *captureNotifier) {
	t.Helper()
	notifier := &captureNotifier{}
	return ledger.New(memory.New(), notifier, nil), notifier
}

// captureNotifier records every alert instead of delivering it.
type captureNotifier struct {
	alerts []ledger.Alert
	fail   error
}

func (n *captureNotifier) Notify(_ context.Context, alert ledger.Alert) error {
	if n.fail != nil {
		return n.fail
	}
	n.alerts = append(n.alerts, alert)
	return nil
}

// =============================================================================
// BALANCE ARITHMETIC TESTS
// =============================================================================

func TestLedger_AddThenSubtract_NetBalance(t *testing.T) {
	// GIVEN: 10.5 hours accrued
	// WHEN: 4 hours are consumed
	// THEN: Balance is 6.5 and exactly two movements exist

	led, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := led.AddHours(ctx, "emp-1", 10.5, "overtime march", nil)
	require.NoError(t, err)

	bal, err := led.SubtractHours(ctx, "emp-1", 4, "compensation day", nil)
	require.NoError(t, err)

	assert.True(t, bal.Balance.Equal(decimal.RequireFromString("6.5")),
		"got %s", bal.Balance)

	moves, err := led.History(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, moves, 2)

	// Newest first.
	assert.Equal(t, ledger.MovementConsumption, moves[0].Type)
	assert.Equal(t, ledger.MovementAccrual, moves[1].Type)
	assert.Equal(t, "overtime march", moves[1].Description)
}

func TestLedger_Subtract_NoFloorAtZero(t *testing.T) {
	// The ledger itself never blocks a write; sufficiency is the
	// compensation workflow's concern.
	led, _ := newTestLedger(t)
	ctx := context.Background()

	bal, err := led.SubtractHours(ctx, "emp-1", 3, "forced", nil)
	require.NoError(t, err)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(-3)), "got %s", bal.Balance)
}

func TestLedger_DecimalHours_NoFloatDrift(t *testing.T) {
	led, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := led.AddHours(ctx, "emp-1", 0.1, "sliver", nil)
		require.NoError(t, err)
	}

	bal, err := led.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(1)), "got %s", bal.Balance)
}

func TestLedger_GetBalance_UnknownEmployee_CreatesZero(t *testing.T) {
	led, _ := newTestLedger(t)

	bal, err := led.GetBalance(context.Background(), "fresh")
	require.NoError(t, err)
	assert.True(t, bal.Balance.IsZero())
	assert.Equal(t, ledger.StatusNormal, bal.Status)
}

func TestLedger_History_LimitApplied(t *testing.T) {
	led, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := led.AddHours(ctx, "emp-1", 1, "hour", nil)
		require.NoError(t, err)
	}

	moves, err := led.History(ctx, "emp-1", 3)
	require.NoError(t, err)
	assert.Len(t, moves, 3)
}

func TestLedger_Movements_CarryMetadata(t *testing.T) {
	led, _ := newTestLedger(t)
	ctx := context.Background()

	meta := map[string]string{"sourceFile": "marco.txt", "date": "2024-03-01"}
	_, err := led.AddHours(ctx, "emp-1", 2, "import", meta)
	require.NoError(t, err)

	moves, err := led.History(ctx, "emp-1", 1)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, "marco.txt", moves[0].Metadata["sourceFile"])
	assert.NotEmpty(t, moves[0].ID)
}

// =============================================================================
// STATUS DERIVATION TESTS
// =============================================================================

func TestLedger_Status_Thresholds(t *testing.T) {
	// Status is strictly-greater-than: exactly 30 is still NORMAL,
	// exactly 40 is still WARNING.
	cases := []struct {
		name  string
		hours float64
		want  ledger.Status
	}{
		{"below warning", 30, ledger.StatusNormal},
		{"just over warning", 30.01, ledger.StatusWarning},
		{"at critical boundary", 40, ledger.StatusWarning},
		{"over critical", 40.01, ledger.StatusCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			led, _ := newTestLedger(t)
			bal, err := led.AddHours(context.Background(), "emp-1", tc.hours, "load", nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, bal.Status)
		})
	}
}

func TestLedger_Status_ExpiryWins(t *testing.T) {
	// GIVEN: A critical-sized balance whose validity window has passed
	// WHEN: The balance is read
	// THEN: Status is EXPIRED, not CRITICAL

	store := memory.New()
	led := ledger.New(store, nil, nil)
	ctx := context.Background()

	past := time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, store.PutBalance(ctx, ledger.Balance{
		EmployeeID: "emp-1",
		Balance:    decimal.NewFromInt(50),
		Status:     ledger.StatusCritical,
		ValidUntil: &past,
		UpdatedAt:  past,
	}))

	bal, err := led.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusExpired, bal.Status)

	// The re-derived status is persisted.
	stored, err := store.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusExpired, stored.Status)
}

// =============================================================================
// ALERT TESTS
// =============================================================================

func TestLedger_Alerts_HighThenCritical(t *testing.T) {
	led, notifier := newTestLedger(t)
	ctx := context.Background()

	// Below the high threshold: silent.
	_, err := led.AddHours(ctx, "emp-1", 23.99, "load", nil)
	require.NoError(t, err)
	assert.Empty(t, notifier.alerts)

	// Crosses 24: HIGH.
	_, err = led.AddHours(ctx, "emp-1", 1, "load", nil)
	require.NoError(t, err)
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, ledger.SeverityHigh, notifier.alerts[0].Severity)

	// Crosses 32: CRITICAL.
	_, err = led.AddHours(ctx, "emp-1", 10, "load", nil)
	require.NoError(t, err)
	require.Len(t, notifier.alerts, 2)
	assert.Equal(t, ledger.SeverityCritical, notifier.alerts[1].Severity)
	assert.Equal(t, clock.EmployeeID("emp-1"), notifier.alerts[1].EmployeeID)
}

func TestLedger_Alerts_NotEvaluatedOnRead(t *testing.T) {
	led, notifier := newTestLedger(t)
	ctx := context.Background()

	_, err := led.AddHours(ctx, "emp-1", 40, "load", nil)
	require.NoError(t, err)
	seen := len(notifier.alerts)

	_, err = led.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, notifier.alerts, seen, "reads must not emit alerts")
}

func TestLedger_NotifierFailure_WriteStands(t *testing.T) {
	led, notifier := newTestLedger(t)
	notifier.fail = errors.New("smtp down")
	ctx := context.Background()

	bal, err := led.AddHours(ctx, "emp-1", 36, "load", nil)
	require.NoError(t, err, "a failed alert must not fail the write")
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(36)))

	moves, err := led.History(ctx, "emp-1", 0)
	require.NoError(t, err)
	assert.Len(t, moves, 1)
}

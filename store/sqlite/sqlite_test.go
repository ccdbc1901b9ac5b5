package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/compensation"
	"github.com/warp/hours-engine/ledger"
	"github.com/warp/hours-engine/rules"
	"github.com/warp/hours-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(employeeID string, date time.Time, times ...string) (clock.Record, clock.Result) {
	rec := clock.Record{
		EmployeeID: clock.EmployeeID(employeeID),
		Date:       clock.Day(date),
		SourceFile: "test.txt",
	}
	for i, ts := range times {
		parsed, _ := time.Parse("15:04", ts)
		at := time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
		if i/2 < clock.MaxPunches {
			if i%2 == 0 {
				rec.Punches[i/2].Entry = &at
			} else {
				rec.Punches[i/2].Exit = &at
			}
		}
	}
	return rec, rules.Statutory{}.Calculate(rec, clock.Config{})
}

// =============================================================================
// EMPLOYEE DIRECTORY TESTS
// =============================================================================

func TestStore_ResolveByExternalID_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutEmployee(ctx, clock.Employee{
		ID:         "emp-1",
		ExternalID: "12345",
		Name:       "John Doe",
	}))

	emp, err := store.ResolveByExternalID(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, clock.EmployeeID("emp-1"), emp.ID)
	assert.Equal(t, "John Doe", emp.Name)
}

func TestStore_ResolveByExternalID_Unknown(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ResolveByExternalID(context.Background(), "nope")
	require.Error(t, err)

	var unknown *clock.UnknownEmployeeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.ExternalID)
}

func TestStore_PutEmployee_UpdatesOnConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutEmployee(ctx, clock.Employee{ID: "emp-1", ExternalID: "12345", Name: "John"}))
	require.NoError(t, store.PutEmployee(ctx, clock.Employee{ID: "emp-1", ExternalID: "12345", Name: "John Doe"}))

	emp, err := store.ResolveByExternalID(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", emp.Name)
}

// =============================================================================
// RECORD STORE TESTS
// =============================================================================

func TestStore_UpsertAndList_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	date := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	rec, res := testRecord("emp-1", date, "08:00", "12:00", "13:00", "18:00")
	require.NoError(t, store.Upsert(ctx, rec, res))

	stored, err := store.List(ctx, "emp-1", date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, stored, 1)

	got := stored[0]
	assert.Equal(t, rec.Date, got.Record.Date)
	assert.Equal(t, "test.txt", got.Record.SourceFile)
	require.NotNil(t, got.Record.Punches[0].Entry)
	assert.Equal(t, 8, got.Record.Punches[0].Entry.Hour())
	assert.Nil(t, got.Record.Punches[2].Entry)
	assert.InDelta(t, 9.0, got.Result.TotalHours, 1e-9)
	assert.InDelta(t, 1.0, got.Result.ExtraHours, 1e-9)
	assert.Equal(t, res.AppliedRules, got.Result.AppliedRules)
}

func TestStore_Upsert_SameDayReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	date := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	rec1, res1 := testRecord("emp-1", date, "08:00", "12:00")
	require.NoError(t, store.Upsert(ctx, rec1, res1))

	rec2, res2 := testRecord("emp-1", date, "08:00", "12:00", "13:00", "18:00")
	require.NoError(t, store.Upsert(ctx, rec2, res2))

	stored, err := store.List(ctx, "emp-1", date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 9.0, stored[0].Result.TotalHours, 1e-9)
}

func TestStore_List_DateRangeFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		date := time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
		rec, res := testRecord("emp-1", date, "08:00", "17:00")
		require.NoError(t, store.Upsert(ctx, rec, res))
	}

	from := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	stored, err := store.List(ctx, "emp-1", from, to)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

// =============================================================================
// LEDGER STORE TESTS
// =============================================================================

func TestStore_Balance_DecimalRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	until := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)
	want := ledger.Balance{
		EmployeeID: "emp-1",
		Balance:    decimal.RequireFromString("10.53"),
		Status:     ledger.StatusNormal,
		ValidUntil: &until,
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.PutBalance(ctx, want))

	got, err := store.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(want.Balance), "got %s", got.Balance)
	assert.Equal(t, ledger.StatusNormal, got.Status)
	require.NotNil(t, got.ValidUntil)
	assert.True(t, got.ValidUntil.Equal(until))
}

func TestStore_GetBalance_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetBalance(context.Background(), "nobody")
	assert.ErrorIs(t, err, clock.ErrBalanceNotFound)
}

func TestStore_Movements_NewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendMovement(ctx, ledger.Movement{
			ID:            string(rune('a' + i)),
			EmployeeID:    "emp-1",
			Type:          ledger.MovementAccrual,
			Hours:         decimal.NewFromInt(1),
			Description:   "hour",
			ReferenceDate: base.AddDate(0, 0, i),
			Metadata:      map[string]string{"n": string(rune('a' + i))},
			CreatedAt:     base.AddDate(0, 0, i),
		}))
	}

	moves, err := store.Movements(ctx, "emp-1", 2)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "d", moves[0].ID)
	assert.Equal(t, "c", moves[1].ID)
	assert.Equal(t, "d", moves[0].Metadata["n"])

	all, err := store.Movements(ctx, "emp-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// =============================================================================
// COMPENSATION STORE TESTS
// =============================================================================

func TestStore_Requests_RoundtripAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	req := compensation.Request{
		ID:          "req-1",
		EmployeeID:  "emp-1",
		Hours:       decimal.NewFromInt(8),
		Date:        time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC),
		Reason:      "family trip",
		Status:      compensation.StatusPending,
		RequestedBy: "emp-1",
		CreatedAt:   now,
	}
	require.NoError(t, store.PutRequest(ctx, req))

	got, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, got.Hours.Equal(req.Hours))
	assert.Equal(t, compensation.StatusPending, got.Status)
	assert.Nil(t, got.ApprovedAt)

	// Approval roundtrip.
	got.Status = compensation.StatusApproved
	got.ApprovedBy = "mgr-1"
	got.ApprovedAt = &now
	require.NoError(t, store.PutRequest(ctx, got))

	pending, err := store.ListRequests(ctx, "emp-1", compensation.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	approved, err := store.ListRequests(ctx, "emp-1", compensation.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.NotNil(t, approved[0].ApprovedAt)
	assert.Equal(t, "mgr-1", approved[0].ApprovedBy)
}

func TestStore_GetRequest_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRequest(context.Background(), "nope")
	assert.ErrorIs(t, err, compensation.ErrRequestNotFound)
}

// =============================================================================
// HOLIDAY CALENDAR TESTS
// =============================================================================

func TestStore_Holidays_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mayday := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddHoliday(ctx, mayday, "Dia do Trabalho"))

	assert.True(t, store.IsHoliday(mayday))
	assert.False(t, store.IsHoliday(mayday.AddDate(0, 0, 1)))
}

// Package memory provides in-memory implementations of the storage ports
// for tests and development. Same contracts as store/sqlite, no disk.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/compensation"
	"github.com/warp/hours-engine/importer"
	"github.com/warp/hours-engine/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type recordKey struct {
	EmployeeID clock.EmployeeID
	Date       string // yyyy-mm-dd
}

type Store struct {
	mu          sync.RWMutex
	employees   map[string]clock.Employee // keyed by external ID
	records     map[recordKey]importer.StoredRecord
	balances    map[clock.EmployeeID]ledger.Balance
	movements   map[clock.EmployeeID][]ledger.Movement
	requests    map[string]compensation.Request
	holidays    map[string]string // date -> name
	requestTick int               // preserves insertion order for listings
	requestSeq  map[string]int
}

func New() *Store {
	return &Store{
		employees:  make(map[string]clock.Employee),
		records:    make(map[recordKey]importer.StoredRecord),
		balances:   make(map[clock.EmployeeID]ledger.Balance),
		movements:  make(map[clock.EmployeeID][]ledger.Movement),
		requests:   make(map[string]compensation.Request),
		holidays:   make(map[string]string),
		requestSeq: make(map[string]int),
	}
}

// =============================================================================
// EMPLOYEE DIRECTORY (importer.Directory)
// =============================================================================

func (s *Store) PutEmployee(_ context.Context, e clock.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ExternalID] = e
	return nil
}

func (s *Store) ResolveByExternalID(_ context.Context, externalID string) (clock.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[externalID]
	if !ok {
		return clock.Employee{}, &clock.UnknownEmployeeError{ExternalID: externalID}
	}
	return e, nil
}

// =============================================================================
// RECORD STORE (importer.RecordStore)
// =============================================================================

func (s *Store) Upsert(_ context.Context, rec clock.Record, res clock.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{EmployeeID: rec.EmployeeID, Date: rec.Date.Format("2006-01-02")}
	s.records[k] = importer.StoredRecord{Record: rec, Result: res}
	return nil
}

func (s *Store) List(_ context.Context, employeeID clock.EmployeeID, from, to time.Time) ([]importer.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []importer.StoredRecord
	for k, sr := range s.records {
		if k.EmployeeID != employeeID {
			continue
		}
		d := sr.Record.Date
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, sr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Record.Date.After(out[j].Record.Date)
	})
	return out, nil
}

// RecordCount reports how many canonical records exist (test helper).
func (s *Store) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// =============================================================================
// LEDGER STORE (ledger.Store)
// =============================================================================

func (s *Store) GetBalance(_ context.Context, employeeID clock.EmployeeID) (ledger.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[employeeID]
	if !ok {
		return ledger.Balance{}, clock.ErrBalanceNotFound
	}
	return b, nil
}

func (s *Store) PutBalance(_ context.Context, b ledger.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[b.EmployeeID] = b
	return nil
}

func (s *Store) AppendMovement(_ context.Context, m ledger.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements[m.EmployeeID] = append(s.movements[m.EmployeeID], m)
	return nil
}

func (s *Store) Movements(_ context.Context, employeeID clock.EmployeeID, limit int) ([]ledger.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.movements[employeeID]
	out := make([]ledger.Movement, len(stored))
	// newest first
	for i, m := range stored {
		out[len(stored)-1-i] = m
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// COMPENSATION STORE (compensation.Store)
// =============================================================================

func (s *Store) PutRequest(_ context.Context, r compensation.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.requestSeq[r.ID]; !seen {
		s.requestTick++
		s.requestSeq[r.ID] = s.requestTick
	}
	s.requests[r.ID] = r
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (compensation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return compensation.Request{}, compensation.ErrRequestNotFound
	}
	return r, nil
}

func (s *Store) ListRequests(_ context.Context, employeeID clock.EmployeeID, status compensation.Status) ([]compensation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []compensation.Request
	for _, r := range s.requests {
		if employeeID != "" && r.EmployeeID != employeeID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.requestSeq[out[i].ID] > s.requestSeq[out[j].ID]
	})
	return out, nil
}

// =============================================================================
// HOLIDAY CALENDAR (importer.HolidayCalendar)
// =============================================================================

func (s *Store) AddHoliday(_ context.Context, date time.Time, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[date.Format("2006-01-02")] = name
	return nil
}

func (s *Store) IsHoliday(date time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.holidays[date.Format("2006-01-02")]
	return ok
}

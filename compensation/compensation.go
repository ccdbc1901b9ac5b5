/*
Package compensation implements the overtime compensation workflow.

PURPOSE:
  Employees spend accrued balance by taking compensated time off. A request
  goes through PENDING -> APPROVED/REJECTED; HR can also force-schedule a
  compensation directly. The workflow is the designed caller of the ledger's
  SubtractHours: it pre-checks sufficiency (the ledger itself applies no
  floor), so ErrInsufficientBalance originates HERE, never inside the
  ledger.

FLOW:
  Create:   balance pre-check -> PENDING request
  Approve:  SubtractHours (request ID in movement metadata) -> APPROVED
  Reject:   record reason -> REJECTED, balance untouched
  Schedule: balance pre-check -> SCHEDULED request (forced by HR)

SEE ALSO:
  - ledger: the balance operations
  - store/sqlite, store/memory: Store implementations
*/
package compensation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/ledger"
	"go.uber.org/zap"
)

// =============================================================================
// TYPES
// =============================================================================

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusScheduled Status = "SCHEDULED"
)

// Request is one compensation request.
type Request struct {
	ID              string
	EmployeeID      clock.EmployeeID
	Hours           decimal.Decimal
	Date            time.Time // the day the time off is taken
	Reason          string
	Status          Status
	RequestedBy     string
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectionReason string
	CreatedAt       time.Time
}

var (
	// ErrRequestNotFound is returned for unknown request IDs.
	ErrRequestNotFound = errors.New("compensation request not found")

	// ErrAlreadyProcessed is returned when approving or rejecting a request
	// that is no longer pending.
	ErrAlreadyProcessed = errors.New("compensation request already processed")
)

// Store persists requests.
type Store interface {
	PutRequest(ctx context.Context, r Request) error
	GetRequest(ctx context.Context, id string) (Request, error)
	// ListRequests filters by employee and/or status; zero values match all.
	ListRequests(ctx context.Context, employeeID clock.EmployeeID, status Status) ([]Request, error)
}

// =============================================================================
// SERVICE
// =============================================================================

// Service runs the workflow over a Store and the ledger.
type Service struct {
	store  Store
	ledger *ledger.Ledger
	log    *zap.Logger
}

func NewService(store Store, led *ledger.Ledger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, ledger: led, log: log}
}

// Create submits a request after checking the employee has enough balance.
func (s *Service) Create(ctx context.Context, employeeID clock.EmployeeID, hours float64, date time.Time, reason, requestedBy string) (Request, error) {
	if err := s.checkSufficiency(ctx, employeeID, hours); err != nil {
		return Request{}, err
	}

	req := Request{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		Hours:       decimal.NewFromFloat(hours),
		Date:        clock.Day(date),
		Reason:      reason,
		Status:      StatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.PutRequest(ctx, req); err != nil {
		return Request{}, err
	}
	s.log.Info("compensation requested",
		zap.String("employee", string(employeeID)),
		zap.Float64("hours", hours),
		zap.String("request", req.ID))
	return req, nil
}

// Approve consumes the hours and marks the request approved. The movement
// carries the request ID so the ledger history stays traceable.
func (s *Service) Approve(ctx context.Context, id, approverID string) (Request, error) {
	req, err := s.pending(ctx, id)
	if err != nil {
		return Request{}, err
	}

	hours, _ := req.Hours.Float64()
	reason := req.Reason
	if reason == "" {
		reason = "no reason given"
	}
	if _, err := s.ledger.SubtractHours(ctx, req.EmployeeID, hours,
		fmt.Sprintf("Compensation approved - %s", reason),
		map[string]string{"compensationId": req.ID}); err != nil {
		return Request{}, err
	}

	now := time.Now().UTC()
	req.Status = StatusApproved
	req.ApprovedBy = approverID
	req.ApprovedAt = &now
	if err := s.store.PutRequest(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Reject records the reason; the balance is untouched.
func (s *Service) Reject(ctx context.Context, id, reason, rejectorID string) (Request, error) {
	req, err := s.pending(ctx, id)
	if err != nil {
		return Request{}, err
	}
	req.Status = StatusRejected
	req.ApprovedBy = rejectorID
	req.RejectionReason = reason
	if err := s.store.PutRequest(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Schedule force-schedules a compensation on an employee's behalf (HR
// workflow). Sufficiency is still pre-checked.
func (s *Service) Schedule(ctx context.Context, employeeID clock.EmployeeID, hours float64, date time.Time, scheduledBy string) (Request, error) {
	if err := s.checkSufficiency(ctx, employeeID, hours); err != nil {
		return Request{}, err
	}

	req := Request{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		Hours:       decimal.NewFromFloat(hours),
		Date:        clock.Day(date),
		Reason:      "Compensation scheduled by HR",
		Status:      StatusScheduled,
		RequestedBy: scheduledBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.PutRequest(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// List returns requests filtered by employee and/or status.
func (s *Service) List(ctx context.Context, employeeID clock.EmployeeID, status Status) ([]Request, error) {
	return s.store.ListRequests(ctx, employeeID, status)
}

func (s *Service) pending(ctx context.Context, id string) (Request, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrAlreadyProcessed
	}
	return req, nil
}

func (s *Service) checkSufficiency(ctx context.Context, employeeID clock.EmployeeID, hours float64) error {
	bal, err := s.ledger.GetBalance(ctx, employeeID)
	if err != nil {
		return err
	}
	requested := decimal.NewFromFloat(hours)
	if bal.Balance.LessThan(requested) {
		available, _ := bal.Balance.Float64()
		return &clock.InsufficientBalanceError{
			EmployeeID: employeeID,
			Available:  available,
			Requested:  hours,
		}
	}
	return nil
}

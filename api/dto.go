package api

import (
	"encoding/json"
	"time"

	"github.com/warp/hours-engine/compensation"
	"github.com/warp/hours-engine/ledger"
)

// =============================================================================
// REQUEST / RESPONSE SHAPES
// =============================================================================

// SimulateRequest carries a hypothetical day plus an inline rule config for
// what-if analysis. RuleCode forces a specific strategy; empty means normal
// priority selection.
type SimulateRequest struct {
	EmployeeID string          `json:"employeeId"`
	Date       string          `json:"date"`
	Times      []string        `json:"times"`
	Holiday    bool            `json:"holiday"`
	Weekend    bool            `json:"weekend"`
	Config     json.RawMessage `json:"config,omitempty"`
	RuleCode   string          `json:"ruleCode,omitempty"`
}

type BalanceResponse struct {
	EmployeeID string     `json:"employeeId"`
	Balance    float64    `json:"balance"`
	Status     string     `json:"status"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func toBalanceResponse(b ledger.Balance) BalanceResponse {
	value, _ := b.Balance.Float64()
	return BalanceResponse{
		EmployeeID: string(b.EmployeeID),
		Balance:    value,
		Status:     string(b.Status),
		ValidUntil: b.ValidUntil,
		UpdatedAt:  b.UpdatedAt,
	}
}

type MovementResponse struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Hours         float64           `json:"hours"`
	Description   string            `json:"description"`
	ReferenceDate time.Time         `json:"referenceDate"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func toMovementResponses(ms []ledger.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		hours, _ := m.Hours.Float64()
		out = append(out, MovementResponse{
			ID:            m.ID,
			Type:          string(m.Type),
			Hours:         hours,
			Description:   m.Description,
			ReferenceDate: m.ReferenceDate,
			Metadata:      m.Metadata,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out
}

type CreateCompensationRequest struct {
	EmployeeID string  `json:"employeeId"`
	Hours      float64 `json:"hours"`
	Date       string  `json:"date"`
	Reason     string  `json:"reason"`
}

type RejectCompensationRequest struct {
	Reason string `json:"reason"`
}

type CompensationResponse struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	Hours           float64    `json:"hours"`
	Date            time.Time  `json:"date"`
	Reason          string     `json:"reason,omitempty"`
	Status          string     `json:"status"`
	RequestedBy     string     `json:"requestedBy,omitempty"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toCompensationResponse(r compensation.Request) CompensationResponse {
	hours, _ := r.Hours.Float64()
	return CompensationResponse{
		ID:              r.ID,
		EmployeeID:      string(r.EmployeeID),
		Hours:           hours,
		Date:            r.Date,
		Reason:          r.Reason,
		Status:          string(r.Status),
		RequestedBy:     r.RequestedBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
	}
}

type RecordResponse struct {
	EmployeeID   string    `json:"employeeId"`
	Date         time.Time `json:"date"`
	Holiday      bool      `json:"holiday"`
	Weekend      bool      `json:"weekend"`
	SourceFile   string    `json:"sourceFile,omitempty"`
	TotalHours   float64   `json:"totalHours"`
	ExtraHours   float64   `json:"extraHours"`
	NightHours   float64   `json:"nightHours"`
	HolidayHours float64   `json:"holidayHours"`
	AppliedRules []string  `json:"appliedRules"`
}

type errorResponse struct {
	Error string `json:"error"`
}

package domain

import (
	"encoding/json"
	"time"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Represents a change that a PIC or admin asked a higher role to approve.
// RequestData and CurrentData are opaque JSON documents describing the
// proposed and current state of the target record.
type ApprovalRequest struct {
	ID            string          `json:"id"`
	RequesterID   string          `json:"requester_id"`
	RequesterName string          `json:"requester_name"`
	RequestType   string          `json:"request_type"`
	TargetAdminID string          `json:"target_admin_id,omitempty"`
	RequestData   json.RawMessage `json:"request_data"`
	CurrentData   json.RawMessage `json:"current_data,omitempty"`
	Status        string          `json:"status"`
	ApprovedBy    string          `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Notes         string          `json:"notes,omitempty"`
}

// Decision is the outcome recorded on an approval request.
type Decision struct {
	Status     string
	ApprovedBy string
	Notes      *string
}

// Apply records d on a, stamping the approval time.
func (d Decision) Apply(a *ApprovalRequest, now time.Time) {
	a.Status = d.Status
	a.ApprovedBy = d.ApprovedBy
	t := now
	a.ApprovedAt = &t
	if d.Notes != nil {
		a.Notes = *d.Notes
	}
}

// ValidDecision reports whether s is a final approval status.
func ValidDecision(s string) bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

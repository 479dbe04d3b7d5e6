package entity

import (
	"time"

	"github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

// RequestHistory is one audit-trail entry of a request
type RequestHistory struct {
	ID            int64          `json:"id"`
	RequestID     int64          `json:"request_id"`
	Actor         string         `json:"actor"`
	PreviousState workflow.State `json:"previous_state"`
	NewState      workflow.State `json:"new_state"`
	Action        string         `json:"action"`
	Note          string         `json:"note,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// History actions that are not workflow triggers
const (
	HistoryActionCreate = "CREATE"
)

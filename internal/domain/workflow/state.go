package workflow

// State represents a reimbursement request state in the approval chain
type State string

const (
	StateDraft      State = "DRAFT"
	StateSubmitted  State = "SUBMITTED"
	StateFMApproval State = "FM_APPROVAL"
	StateHRApproval State = "HR_APPROVAL"
	StateConfirmed  State = "CONFIRMED"
	StateRejected   State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:      true,
	StateSubmitted:  true,
	StateFMApproval: true,
	StateHRApproval: true,
	StateConfirmed:  true,
	StateRejected:   true,
}

var terminalStates = map[State]bool{
	StateConfirmed: true,
}

// IsTerminal returns true if no further transitions are allowed.
// Rejected requests can still be reset to draft.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// AllowsEditing reports whether segments may change in this state
func (s State) AllowsEditing() bool {
	return s == StateDraft
}

package workflow

// ApprovalGuards carries the request-specific conditions of the approval chain.
// Nil guards always pass.
type ApprovalGuards struct {
	// CanSubmit gates DRAFT -> SUBMITTED (fuel requests need at least one fuel segment)
	CanSubmit GuardFunc

	// CanConfirm gates HR_APPROVAL -> CONFIRMED (payment amount must not be zero)
	CanConfirm GuardFunc
}

// NewApprovalMachine builds the reimbursement approval chain starting at initial:
//
//	DRAFT -> SUBMITTED -> FM_APPROVAL -> HR_APPROVAL -> CONFIRMED
//
// Any pending approval can be rejected; rejected and submitted requests can be reset to draft.
func NewApprovalMachine(initial State, guards ApprovalGuards) StateMachine {
	b := NewBuilder()

	b.Configure(StateDraft).
		PermitIf(TriggerSubmit, StateSubmitted, guards.CanSubmit)

	b.Configure(StateSubmitted).
		Permit(TriggerFMApprove, StateFMApproval).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerReset, StateDraft)

	b.Configure(StateFMApproval).
		Permit(TriggerHRApprove, StateHRApproval).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateHRApproval).
		PermitIf(TriggerConfirm, StateConfirmed, guards.CanConfirm).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateRejected).
		Permit(TriggerReset, StateDraft)

	return b.Build(initial)
}

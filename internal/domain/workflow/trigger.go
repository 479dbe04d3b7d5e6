package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerSubmit    Trigger = "SUBMIT"
	TriggerFMApprove Trigger = "FM_APPROVE"
	TriggerHRApprove Trigger = "HR_APPROVE"
	TriggerConfirm   Trigger = "CONFIRM"
	TriggerReject    Trigger = "REJECT"
	TriggerReset     Trigger = "RESET"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// ParseTrigger maps an API action name ("fm-approve") to a trigger
func ParseTrigger(action string) (Trigger, bool) {
	switch action {
	case "submit":
		return TriggerSubmit, true
	case "fm-approve":
		return TriggerFMApprove, true
	case "hr-approve":
		return TriggerHRApprove, true
	case "confirm":
		return TriggerConfirm, true
	case "reject":
		return TriggerReject, true
	case "reset":
		return TriggerReset, true
	}
	return "", false
}

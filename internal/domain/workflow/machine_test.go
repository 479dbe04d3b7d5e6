package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateSubmitted, false},
		{StateFMApproval, false},
		{StateHRApproval, false},
		{StateRejected, false},
		{StateConfirmed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"confirmed", StateConfirmed, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_AllowsEditing(t *testing.T) {
	if !StateDraft.AllowsEditing() {
		t.Error("draft requests must be editable")
	}
	for _, s := range []State{StateSubmitted, StateFMApproval, StateHRApproval, StateConfirmed, StateRejected} {
		if s.AllowsEditing() {
			t.Errorf("%s must not be editable", s)
		}
	}
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		action string
		want   Trigger
		ok     bool
	}{
		{"submit", TriggerSubmit, true},
		{"fm-approve", TriggerFMApprove, true},
		{"hr-approve", TriggerHRApprove, true},
		{"confirm", TriggerConfirm, true},
		{"reject", TriggerReject, true},
		{"reset", TriggerReset, true},
		{"approve", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got, ok := ParseTrigger(tt.action)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseTrigger(%q) = %v, %v; want %v, %v", tt.action, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		PermitIf(TriggerSubmit, StateSubmitted, func(ctx context.Context) bool {
			return false
		})

	machine := builder.Build(StateDraft)

	_, err := machine.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestBuilder_DuplicateTriggerPanics(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).Permit(TriggerReject, StateRejected)

	defer func() {
		if r := recover(); r == nil {
			t.Error("PermitIf() should panic when the trigger already has an edge")
		}
	}()

	builder.Configure(StateSubmitted).Permit(TriggerReject, StateDraft)
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	machine1 := builder.Build(StateDraft)
	machine2 := builder.Build(StateDraft)

	// Later configuration must not leak into machines already built
	builder.Configure(StateSubmitted).Permit(TriggerReset, StateDraft)

	if _, err := machine1.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine2.State() != StateDraft {
		t.Errorf("machine2 state = %v, want %v", machine2.State(), StateDraft)
	}
	if machine1.CanFire(TriggerReset) {
		t.Error("machine1 should not see transitions configured after Build()")
	}
}

func TestApprovalMachine_HappyPath(t *testing.T) {
	machine := NewApprovalMachine(StateDraft, ApprovalGuards{})

	steps := []struct {
		trigger       Trigger
		expectedState State
	}{
		{TriggerSubmit, StateSubmitted},
		{TriggerFMApprove, StateFMApproval},
		{TriggerHRApprove, StateHRApproval},
		{TriggerConfirm, StateConfirmed},
	}

	for i, step := range steps {
		taken, err := machine.Fire(context.Background(), step.trigger)
		if err != nil {
			t.Fatalf("Step %d: Fire(%v) failed: %v", i, step.trigger, err)
		}
		if taken.To != step.expectedState || taken.Trigger != step.trigger {
			t.Errorf("Step %d: Fire(%v) returned %+v", i, step.trigger, taken)
		}
		if machine.State() != step.expectedState {
			t.Errorf("Step %d: State after Fire(%v) = %v, want %v", i, step.trigger, machine.State(), step.expectedState)
		}
	}

	if !machine.State().IsTerminal() {
		t.Error("confirmed should be terminal")
	}
	if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("terminal state should have 0 permitted triggers, got %v", triggers)
	}
}

func TestApprovalMachine_RejectAndReset(t *testing.T) {
	for _, from := range []State{StateSubmitted, StateFMApproval, StateHRApproval} {
		t.Run(string(from), func(t *testing.T) {
			machine := NewApprovalMachine(from, ApprovalGuards{})

			step, err := machine.Fire(context.Background(), TriggerReject)
			if err != nil {
				t.Fatalf("Fire(REJECT) failed: %v", err)
			}
			if step.From != from {
				t.Errorf("step.From = %v, want %v", step.From, from)
			}
			if machine.State() != StateRejected {
				t.Fatalf("State = %v, want %v", machine.State(), StateRejected)
			}
			if _, err := machine.Fire(context.Background(), TriggerReset); err != nil {
				t.Fatalf("Fire(RESET) failed: %v", err)
			}
			if machine.State() != StateDraft {
				t.Errorf("State = %v, want %v", machine.State(), StateDraft)
			}
		})
	}
}

func TestApprovalMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		from    State
		trigger Trigger
	}{
		{StateDraft, TriggerFMApprove},
		{StateDraft, TriggerReject},
		{StateSubmitted, TriggerHRApprove},
		{StateFMApproval, TriggerConfirm},
		{StateFMApproval, TriggerReset},
		{StateConfirmed, TriggerReject},
		{StateRejected, TriggerSubmit},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.trigger), func(t *testing.T) {
			machine := NewApprovalMachine(tt.from, ApprovalGuards{})
			_, err := machine.Fire(context.Background(), tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
			}
			if machine.State() != tt.from {
				t.Errorf("State = %v, want %v", machine.State(), tt.from)
			}
		})
	}
}

func TestApprovalMachine_Guards(t *testing.T) {
	deny := func(ctx context.Context) bool { return false }

	submit := NewApprovalMachine(StateDraft, ApprovalGuards{CanSubmit: deny})
	if _, err := submit.Fire(context.Background(), TriggerSubmit); !errors.Is(err, ErrGuardFailed) {
		t.Errorf("submit error = %v, want %v", err, ErrGuardFailed)
	}

	confirm := NewApprovalMachine(StateHRApproval, ApprovalGuards{CanConfirm: deny})
	if _, err := confirm.Fire(context.Background(), TriggerConfirm); !errors.Is(err, ErrGuardFailed) {
		t.Errorf("confirm error = %v, want %v", err, ErrGuardFailed)
	}
	if confirm.State() != StateHRApproval {
		t.Errorf("State = %v, want %v", confirm.State(), StateHRApproval)
	}
}

func TestApprovalMachine_PermittedTriggersSorted(t *testing.T) {
	machine := NewApprovalMachine(StateSubmitted, ApprovalGuards{})

	got := machine.PermittedTriggers()
	want := []Trigger{TriggerFMApprove, TriggerReject, TriggerReset}
	if len(got) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

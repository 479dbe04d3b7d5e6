package workflow

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// GuardFunc decides whether an edge may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects edges and builds machines from them
type StateMachineBuilder interface {
	Configure(state State) StateConfiguration
	Build(initialState State) StateMachine
}

// StateConfiguration adds edges leaving one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type edge struct {
	to    State
	guard GuardFunc
}

// edges leaving one state, one per trigger
type edgeSet map[Trigger]edge

type builder struct {
	graph map[State]edgeSet
}

type stateConfig struct {
	from  State
	edges edgeSet
}

type machine struct {
	current State
	graph   map[State]edgeSet
}

// NewBuilder returns an empty builder
func NewBuilder() StateMachineBuilder {
	return &builder{graph: make(map[State]edgeSet)}
}

// Configure panics on an unknown state; graphs are wired at startup.
func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if _, ok := b.graph[state]; !ok {
		b.graph[state] = make(edgeSet)
	}
	return &stateConfig{from: state, edges: b.graph[state]}
}

// Build snapshots the graph. Later Configure calls do not reach machines already built.
func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	graph := make(map[State]edgeSet, len(b.graph))
	for state, edges := range b.graph {
		graph[state] = maps.Clone(edges)
	}
	return &machine{current: initialState, graph: graph}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf panics when trigger already has an edge out of this state
func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if existing, ok := c.edges[trigger]; ok {
		panic(fmt.Sprintf("trigger %s from %s already leads to %s", trigger, c.from, existing.to))
	}
	c.edges[trigger] = edge{to: toState, guard: guard}
	return c
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	_, ok := m.graph[m.current][trigger]
	return ok
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) (Step, error) {
	e, ok := m.graph[m.current][trigger]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	if e.guard != nil && !e.guard(ctx) {
		return Step{}, fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
	}

	step := Step{From: m.current, To: e.to, Trigger: trigger}
	m.current = e.to
	return step, nil
}

func (m *machine) PermittedTriggers() []Trigger {
	triggers := slices.Sorted(maps.Keys(m.graph[m.current]))
	if triggers == nil {
		return []Trigger{}
	}
	return triggers
}

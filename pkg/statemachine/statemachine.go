package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Action executes side effects during a transition. Returning an error
// aborts the transition and leaves the machine in its current state.
type Action[S, E ~string] func(ctx context.Context, from, to S, event E, data any) error

// Guard decides whether a transition may proceed.
type Guard[S, E ~string] func(ctx context.Context, from S, event E, data any) bool

type transition[S, E ~string] struct {
	to      S
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// Machine is a thread-safe finite state machine over string-like state and
// event types. Transitions are looked up by [from][event]; when several are
// registered for the same pair, the first whose guards pass wins.
type Machine[S, E ~string] struct {
	initial     S
	current     S
	transitions map[S]map[E][]transition[S, E]
	mu          sync.RWMutex
}

// Option configures a machine during construction.
type Option[S, E ~string] func(*Machine[S, E]) error

// TransitionOption attaches guards or actions to a transition.
type TransitionOption[S, E ~string] func(*transition[S, E])

// New creates a machine starting in initial.
func New[S, E ~string](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	if initial == "" {
		return nil, ErrEmptyState
	}

	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]transition[S, E]),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew[S, E ~string](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition registers from --event--> to.
func WithTransition[S, E ~string](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		return m.AddTransition(from, to, event, opts...)
	}
}

func WithGuard[S, E ~string](guard Guard[S, E]) TransitionOption[S, E] {
	return func(t *transition[S, E]) {
		if guard != nil {
			t.guards = append(t.guards, guard)
		}
	}
}

func WithAction[S, E ~string](action Action[S, E]) TransitionOption[S, E] {
	return func(t *transition[S, E]) {
		if action != nil {
			t.actions = append(t.actions, action)
		}
	}
}

func (m *Machine[S, E]) AddTransition(from, to S, event E, opts ...TransitionOption[S, E]) error {
	if from == "" || to == "" || event == "" {
		return ErrInvalidTransition
	}

	t := transition[S, E]{to: to}
	for _, opt := range opts {
		opt(&t)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E][]transition[S, E])
	}
	m.transitions[from][event] = append(m.transitions[from][event], t)
	return nil
}

func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire applies event to the current state. Actions run under the machine's
// lock, so they must not call back into the machine.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.find(ctx, event, data)
	if err != nil {
		return err
	}

	for _, action := range t.actions {
		if err := action(ctx, m.current, t.to, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.to
	return nil
}

func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.find(ctx, event, data)
	return err == nil
}

func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

func (m *Machine[S, E]) find(ctx context.Context, event E, data any) (*transition[S, E], error) {
	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return nil, &ErrNoTransitionAvailable{StateName: string(m.current), EventName: string(event)}
	}

	for i := range candidates {
		if m.guardsPass(ctx, candidates[i], event, data) {
			return &candidates[i], nil
		}
	}
	return nil, &ErrTransitionRejected{StateName: string(m.current), EventName: string(event)}
}

func (m *Machine[S, E]) guardsPass(ctx context.Context, t transition[S, E], event E, data any) bool {
	for _, guard := range t.guards {
		if !guard(ctx, m.current, event, data) {
			return false
		}
	}
	return true
}

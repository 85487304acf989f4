// Package hsm implements a hierarchical state machine engine modeled as
// data (spec §4.4, §9 "HSM as data, not deep inheritance"): states are
// small integers, the table maps state -> (parent, entry, exit, initial,
// handlers), and event dispatch is a single upward table walk with no
// virtual dispatch.
//
// Author: momentics <momentics@gmail.com>
package hsm

import "github.com/momentics/rtc-agent/internal/agenterrors"

// StateID identifies a state by a small integer. RootID is the implicit
// root of the tree and has no parent.
type StateID int

// NoParent marks a state (only ever Root) as having no parent.
const NoParent StateID = -1

// noTransition is the sentinel "nothing pending" value for pendingTransition.
const noTransition StateID = -1

// HandlerResult is returned by an event handler to say whether it consumed
// the event or the dispatch should continue walking toward the root.
type HandlerResult int

const (
	EventNotHandled HandlerResult = iota
	EventHandled
)

// EventHandler processes one event at one state. m.Transition may be
// called to request a transition once the dispatch completes.
type EventHandler func(m *Machine, eventTag string, payload any) (HandlerResult, error)

// LifecycleHook runs on state entry, exit, or initial-substate resolution.
type LifecycleHook func(m *Machine) error

// StateDef is one row of the state table.
type StateDef struct {
	Parent    StateID
	OnEntry   LifecycleHook
	OnExit    LifecycleHook
	OnInitial LifecycleHook
	Handlers  map[string]EventHandler
}

// Table is the compile-time-known state_id -> StateDef mapping.
type Table map[StateID]StateDef

// Machine is one HSM instance: (current_state_id, state_table, user_context).
// UserContext carries whatever the concrete table's handlers and hooks need
// (property store, timer, proxies, ...); the engine itself never inspects it.
type Machine struct {
	table             Table
	current           StateID
	pendingTransition StateID
	UserContext       any

	// OnLeafChange, if set, is invoked after New's initial settle and after
	// every executed transition, with the leaf state before and after. It
	// always fires; callers compare old/new to decide whether to emit a
	// StateChange status event (old == NoParent means "just constructed").
	OnLeafChange func(old, new StateID)
}

// New constructs a Machine starting at root (typically the top-level state
// directly below the implicit Root): root's on_entry runs as if just
// transitioned into, followed by its on_initial chain, so construction
// leaves the machine at root's initial leaf descendant.
//
// onLeafChange, if non-nil, is wired onto the Machine before the initial
// settle runs, so it fires for construction's NoParent -> initial-leaf
// transition exactly like it fires for every later transition. Passing it
// to New rather than assigning Machine.OnLeafChange afterward is what
// makes the construction-time callback actually reachable.
func New(table Table, root StateID, userContext any, onLeafChange func(old, new StateID)) (*Machine, error) {
	m := &Machine{
		table:             table,
		current:           root,
		pendingTransition: noTransition,
		UserContext:       userContext,
		OnLeafChange:      onLeafChange,
	}
	if def, ok := table[root]; ok && def.OnEntry != nil {
		if err := def.OnEntry(m); err != nil {
			return nil, err
		}
	}
	if err := m.resolveInitial(); err != nil {
		return nil, err
	}
	if m.OnLeafChange != nil {
		m.OnLeafChange(NoParent, m.current)
	}
	return m, nil
}

// Current returns the current leaf state.
func (m *Machine) Current() StateID {
	return m.current
}

// Transition requests a transition to target; takes effect once the
// handler that called it returns. Only meaningful from within a handler or
// lifecycle hook.
func (m *Machine) Transition(target StateID) {
	m.pendingTransition = target
}

// Dispatch walks from the current leaf up the ancestor chain, invoking the
// first handler registered for eventTag. Returns EventNotHandled with no
// error if no ancestor (including the implicit root) has a handler.
func (m *Machine) Dispatch(eventTag string, payload any) (HandlerResult, error) {
	for state := m.current; ; {
		if def, ok := m.table[state]; ok {
			if h, ok := def.Handlers[eventTag]; ok {
				result, err := h(m, eventTag, payload)
				if err != nil {
					return result, err
				}
				if result == EventHandled {
					if err := m.applyPendingTransition(); err != nil {
						return result, err
					}
					return result, nil
				}
			}
			if def.Parent == NoParent {
				break
			}
			state = def.Parent
		} else {
			break
		}
	}
	return EventNotHandled, nil
}

// applyPendingTransition executes a transition requested during the last
// Dispatch, if any: exits from current up to (excluding) the LCA, then
// entries from the LCA (exclusive) down to target, then resolves target's
// initial-substate chain.
func (m *Machine) applyPendingTransition() error {
	if m.pendingTransition == noTransition {
		return nil
	}
	target := m.pendingTransition
	m.pendingTransition = noTransition
	return m.transitionTo(target)
}

func (m *Machine) transitionTo(target StateID) error {
	old := m.current
	lca := m.lca(m.current, target)

	for s := m.current; s != lca; s = m.table[s].Parent {
		def := m.table[s]
		if def.OnExit != nil {
			if err := def.OnExit(m); err != nil {
				return err
			}
		}
	}

	entryChain := m.chainTo(target, lca)
	for i := len(entryChain) - 1; i >= 0; i-- {
		// The state being entered is current while its on_entry runs, so a
		// failing on_entry (e.g. Exit raising Termination) leaves the
		// machine in that state.
		m.current = entryChain[i]
		def := m.table[entryChain[i]]
		if def.OnEntry != nil {
			if err := def.OnEntry(m); err != nil {
				return err
			}
		}
	}

	m.current = target
	if err := m.resolveInitial(); err != nil {
		return err
	}
	if m.OnLeafChange != nil {
		m.OnLeafChange(old, m.current)
	}
	return nil
}

// resolveInitial repeatedly runs on_initial for the current state until it
// declares no further initial substate, entering each resolved substate in
// turn. Each on_initial hook is expected to call Transition exactly once.
func (m *Machine) resolveInitial() error {
	for {
		def, ok := m.table[m.current]
		if !ok || def.OnInitial == nil {
			return nil
		}
		m.pendingTransition = noTransition
		if err := def.OnInitial(m); err != nil {
			return err
		}
		if m.pendingTransition == noTransition {
			return nil
		}
		next := m.pendingTransition
		m.pendingTransition = noTransition

		parent := m.current
		entryChain := m.chainTo(next, parent)
		for i := len(entryChain) - 1; i >= 0; i-- {
			d := m.table[entryChain[i]]
			if d.OnEntry != nil {
				if err := d.OnEntry(m); err != nil {
					return err
				}
			}
		}
		m.current = next
	}
}

// chainTo returns the states strictly between ancestor (exclusive) and
// target (inclusive), ordered target-first (i.e. bottom-up); callers walk
// it in reverse for top-down entry order.
func (m *Machine) chainTo(target, ancestor StateID) []StateID {
	var chain []StateID
	for s := target; s != ancestor; s = m.table[s].Parent {
		chain = append(chain, s)
		if s == NoParent {
			break
		}
	}
	return chain
}

// lca returns the least common ancestor of a and b in the state tree.
func (m *Machine) lca(a, b StateID) StateID {
	ancestors := map[StateID]bool{}
	for s := a; ; {
		ancestors[s] = true
		if s == NoParent {
			break
		}
		def, ok := m.table[s]
		if !ok || def.Parent == NoParent {
			ancestors[NoParent] = true
			break
		}
		s = def.Parent
	}
	for s := b; ; {
		if ancestors[s] {
			return s
		}
		def, ok := m.table[s]
		if !ok || def.Parent == NoParent {
			return NoParent
		}
		s = def.Parent
	}
}

// DispatchSafe wraps Dispatch with the error-propagation envelope from
// spec §7: a Termination error is propagated immediately; any other error
// is returned to the caller after being re-dispatched, sequentially, as a
// synthetic Error event so the HSM gets a chance to react (e.g. publish it
// as a status event). The re-dispatch's own error, if any, is ignored to
// avoid unbounded recursion.
func (m *Machine) DispatchSafe(eventTag string, payload any) error {
	_, err := m.Dispatch(eventTag, payload)
	if err == nil {
		return nil
	}
	if agenterrors.IsTermination(err) {
		return err
	}
	_, _ = m.Dispatch("Error", err)
	return err
}

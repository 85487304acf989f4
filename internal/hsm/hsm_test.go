package hsm

import (
	"errors"
	"testing"

	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	top StateID = iota
	a
	aChild
	b
	bChild
)

func simpleTable(log *[]string) Table {
	mark := func(name string) LifecycleHook {
		return func(m *Machine) error {
			*log = append(*log, name)
			return nil
		}
	}
	return Table{
		top: {
			Parent:  NoParent,
			OnEntry: mark("top.entry"),
			OnExit:  mark("top.exit"),
			OnInitial: func(m *Machine) error {
				m.Transition(a)
				return nil
			},
			Handlers: map[string]EventHandler{
				"Ping": func(m *Machine, tag string, payload any) (HandlerResult, error) {
					*log = append(*log, "top.Ping")
					return EventHandled, nil
				},
			},
		},
		a: {
			Parent:  top,
			OnEntry: mark("a.entry"),
			OnExit:  mark("a.exit"),
			OnInitial: func(m *Machine) error {
				m.Transition(aChild)
				return nil
			},
			Handlers: map[string]EventHandler{
				"ToB": func(m *Machine, tag string, payload any) (HandlerResult, error) {
					m.Transition(bChild)
					return EventHandled, nil
				},
			},
		},
		aChild: {
			Parent:   a,
			OnEntry:  mark("aChild.entry"),
			OnExit:   mark("aChild.exit"),
			Handlers: map[string]EventHandler{},
		},
		b: {
			Parent:   top,
			OnEntry:  mark("b.entry"),
			OnExit:   mark("b.exit"),
			Handlers: map[string]EventHandler{},
		},
		bChild: {
			Parent:   b,
			OnEntry:  mark("bChild.entry"),
			OnExit:   mark("bChild.exit"),
			Handlers: map[string]EventHandler{},
		},
	}
}

func TestNewSettlesToInitialLeaf(t *testing.T) {
	var log []string
	m, err := New(simpleTable(&log), top, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, aChild, m.Current())
	assert.Equal(t, []string{"top.entry", "a.entry", "aChild.entry"}, log)
}

func TestOnLeafChangeFiresOnConstructionWithNoParentSentinel(t *testing.T) {
	var log []string
	var gotOld, gotNew StateID

	m, err := New(simpleTable(&log), top, nil, func(old, n StateID) { gotOld, gotNew = old, n })
	require.NoError(t, err)

	assert.Equal(t, NoParent, gotOld)
	assert.Equal(t, aChild, gotNew)
	assert.Equal(t, aChild, m.Current())
}

func TestDispatchWalksToAncestorHandler(t *testing.T) {
	var log []string
	m, err := New(simpleTable(&log), top, nil, nil)
	require.NoError(t, err)

	log = nil
	result, err := m.Dispatch("Ping", nil)
	require.NoError(t, err)
	assert.Equal(t, EventHandled, result)
	assert.Equal(t, []string{"top.Ping"}, log)
}

func TestDispatchReturnsNotHandledWhenNoAncestorMatches(t *testing.T) {
	var log []string
	m, err := New(simpleTable(&log), top, nil, nil)
	require.NoError(t, err)

	result, err := m.Dispatch("Nonexistent", nil)
	require.NoError(t, err)
	assert.Equal(t, EventNotHandled, result)
}

func TestTransitionExitsAndEntersAcrossLCA(t *testing.T) {
	var log []string
	m, err := New(simpleTable(&log), top, nil, nil)
	require.NoError(t, err)

	log = nil
	_, err = m.Dispatch("ToB", nil)
	require.NoError(t, err)
	assert.Equal(t, bChild, m.Current())
	assert.Equal(t, []string{"aChild.exit", "a.exit", "b.entry", "bChild.entry"}, log)
}

func TestDispatchSafePropagatesTerminationImmediately(t *testing.T) {
	table := Table{
		top: {
			Parent: NoParent,
			Handlers: map[string]EventHandler{
				"Die": func(m *Machine, tag string, payload any) (HandlerResult, error) {
					return EventHandled, agenterrors.Termination
				},
				"Error": func(m *Machine, tag string, payload any) (HandlerResult, error) {
					t.Fatal("Error handler must not run for Termination")
					return EventHandled, nil
				},
			},
		},
	}
	m, err := New(table, top, nil, nil)
	require.NoError(t, err)

	err = m.DispatchSafe("Die", nil)
	assert.True(t, agenterrors.IsTermination(err))
}

func TestDispatchSafeRedispatchesOtherErrorsAsErrorEvent(t *testing.T) {
	boom := errors.New("boom")
	var sawError error
	table := Table{
		top: {
			Parent: NoParent,
			Handlers: map[string]EventHandler{
				"Fail": func(m *Machine, tag string, payload any) (HandlerResult, error) {
					return EventHandled, boom
				},
				"Error": func(m *Machine, tag string, payload any) (HandlerResult, error) {
					sawError = payload.(error)
					return EventHandled, nil
				},
			},
		},
	}
	m, err := New(table, top, nil, nil)
	require.NoError(t, err)

	err = m.DispatchSafe("Fail", nil)
	assert.Equal(t, boom, err)
	assert.Equal(t, boom, sawError)
}

package vna

import (
	"sync"
	"sync/atomic"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/logger"
)

// ConnState represents the lifecycle stage of an instrument session.
type ConnState uint32

// Session states.
const (
	// ClosedState indicates that the serial port is not open.
	ClosedState ConnState = iota
	// OpenState indicates that the serial port is open and the device is
	// believed to be responsive.
	OpenState
	// DegradedState indicates that the port is open but the device stopped
	// responding. Only Restart recovers a degraded session.
	DegradedState
)

// IsClosed returns true if the state is closed.
func (cs ConnState) IsClosed() bool { return cs == ClosedState }

// IsOpen returns true if the state is open.
func (cs ConnState) IsOpen() bool { return cs == OpenState }

// IsDegraded returns true if the state is degraded.
func (cs ConnState) IsDegraded() bool { return cs == DegradedState }

// String returns string representation of the current state.
func (cs ConnState) String() string {
	switch cs {
	case ClosedState:
		return "closed"
	case OpenState:
		return "open"
	case DegradedState:
		return "degraded"
	default:
		return "unknown"
	}
}

// StateChangeHandler is invoked after every session state change.
//
// Note: the handler is invoked in a blocking mode. Take care with
// long-running implementations.
type StateChangeHandler func(prevState ConnState, newState ConnState)

// connStateMgr manages the session state and notifies registered handlers
// on transitions. State reads are lock-free; transitions are serialized.
type connStateMgr struct {
	mu       sync.Mutex
	state    atomic.Uint32
	logger   logger.Logger
	handlers []StateChangeHandler
}

func newConnStateMgr(l logger.Logger, handlers ...StateChangeHandler) *connStateMgr {
	mgr := &connStateMgr{
		logger:   l,
		handlers: handlers,
	}
	mgr.state.Store(uint32(ClosedState))

	return mgr
}

// State returns the current session state.
func (cs *connStateMgr) State() ConnState {
	return ConnState(cs.state.Load())
}

func (cs *connStateMgr) IsClosed() bool   { return cs.State().IsClosed() }
func (cs *connStateMgr) IsOpen() bool     { return cs.State().IsOpen() }
func (cs *connStateMgr) IsDegraded() bool { return cs.State().IsDegraded() }

// toOpen transitions to OpenState.
//
// Allowed from ClosedState only; a degraded session must be closed first.
// If the state is already OpenState, the function is a no-op.
func (cs *connStateMgr) toOpen() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState.IsOpen() {
		return nil
	}

	if curState.IsDegraded() {
		return ErrInvalidTransition
	}

	cs.setState(curState, OpenState)

	return nil
}

// toDegraded transitions to DegradedState.
//
// Allowed from OpenState only. A closed session cannot degrade; the call is
// then a no-op.
func (cs *connStateMgr) toDegraded() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if !curState.IsOpen() {
		cs.logger.Debug("vna: ignoring degrade request", "state", curState)

		return
	}

	cs.setState(curState, DegradedState)
}

// toClosed transitions to ClosedState. Allowed from any state.
// If the state is already ClosedState, the function is a no-op.
func (cs *connStateMgr) toClosed() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState.IsClosed() {
		return
	}

	cs.setState(curState, ClosedState)
}

// setState stores newState and invokes the registered handlers.
// Must be called with cs.mu held.
func (cs *connStateMgr) setState(prevState ConnState, newState ConnState) {
	cs.state.Store(uint32(newState))

	cs.logger.Debug("vna: session state changed", "prevState", prevState, "newState", newState)

	for _, handler := range cs.handlers {
		if handler != nil {
			handler(prevState, newState)
		}
	}
}

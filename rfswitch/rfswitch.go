// Package rfswitch activates measurement paths on an RF multiplexer board.
//
// The Switch interface is the port-activation capability consumed by the
// orchestrator; backends wire it to concrete hardware. PE42512 drives the
// production switch over GPIO, Noop serves rigs without switching hardware,
// and MockSwitch backs tests.
package rfswitch

import "errors"

// ErrInvalidPort indicates a port index outside the switch's range.
var ErrInvalidPort = errors.New("rfswitch: invalid port")

// Switch selects one of several RF ports for measurement.
type Switch interface {
	// ActivatePort routes the measurement path to the given port.
	ActivatePort(port int) error

	// Release returns the switch hardware to its idle state.
	Release() error
}

// Noop is a Switch for rigs with a single fixed path and no switching
// hardware. Every activation succeeds without side effects.
type Noop struct{}

var _ Switch = Noop{}

func (Noop) ActivatePort(port int) error { return nil }
func (Noop) Release() error              { return nil }

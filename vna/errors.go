package vna

import "errors"

// Sentinel errors for the instrument protocol.
var (
	// Transport-level errors.

	// ErrTransport indicates a serial port read/write failure. Once it occurs
	// the session is degraded and must be restarted before further use.
	ErrTransport = errors.New("vna: transport failure")
	// ErrDeviceNotFound indicates no matching USB serial device was found
	// during port discovery.
	ErrDeviceNotFound = errors.New("vna: device not found")
	// ErrInvalidTransition indicates a connection state transition that is
	// not allowed, e.g. opening a degraded session without restarting it.
	ErrInvalidTransition = errors.New("vna: invalid connection state transition")

	// Protocol-level errors.

	// ErrTimeout indicates the response budget elapsed before the device
	// printed its prompt. Any lines read so far are returned alongside it.
	ErrTimeout = errors.New("vna: response timeout")
	// ErrDataIncomplete indicates a sweep segment kept returning the wrong
	// number of data points after all retry attempts were spent.
	ErrDataIncomplete = errors.New("vna: incomplete sweep data")

	// Configuration errors.

	// ErrConfig indicates an invalid sweep or session parameter.
	ErrConfig = errors.New("vna: invalid configuration")
)

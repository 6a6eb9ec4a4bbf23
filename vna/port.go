package vna

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the subset of a serial port used by the session.
//
// Read follows go.bug.st/serial timeout semantics: after the configured read
// timeout elapses with no data, Read returns n == 0 with a nil error.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout sets the maximum duration a single Read call blocks.
	SetReadTimeout(t time.Duration) error

	// ResetInputBuffer discards all unread input.
	ResetInputBuffer() error
}

// PortOpener opens the serial device at the given path. It is the injection
// point used by tests to substitute a scripted device.
type PortOpener func(device string, baudRate int) (Port, error)

// openSerialPort is the default PortOpener, backed by go.bug.st/serial.
func openSerialPort(device string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrTransport, device, err)
	}

	return port, nil
}

package rfswitch

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/logger"
)

// PortCount is the number of RF ports on the PE42512 switch.
const PortCount = 12

// BCM pin names of the switch control lines on the readout HAT.
const (
	pinLS = "GPIO24"
	pinV1 = "GPIO23"
	pinV2 = "GPIO22"
	pinV3 = "GPIO27"
	pinV4 = "GPIO17"
)

// controlBits maps a port index to the V4..V1 control line levels. LS stays
// low; the switch then decodes V4..V1 as the port address.
var controlBits = [PortCount][4]gpio.Level{
	{gpio.Low, gpio.Low, gpio.Low, gpio.Low},    // port 0 (RF1)
	{gpio.High, gpio.Low, gpio.Low, gpio.Low},   // port 1 (RF2)
	{gpio.Low, gpio.High, gpio.Low, gpio.Low},   // port 2 (RF3)
	{gpio.High, gpio.High, gpio.Low, gpio.Low},  // port 3 (RF4)
	{gpio.Low, gpio.Low, gpio.High, gpio.Low},   // port 4 (RF5)
	{gpio.High, gpio.Low, gpio.High, gpio.Low},  // port 5 (RF6)
	{gpio.Low, gpio.High, gpio.High, gpio.Low},  // port 6 (RF7)
	{gpio.High, gpio.High, gpio.High, gpio.Low}, // port 7 (RF8)
	{gpio.Low, gpio.Low, gpio.Low, gpio.High},   // port 8 (RF9)
	{gpio.High, gpio.Low, gpio.Low, gpio.High},  // port 9 (RF10)
	{gpio.Low, gpio.High, gpio.Low, gpio.High},  // port 10 (RF11)
	{gpio.High, gpio.High, gpio.Low, gpio.High}, // port 11 (RF12)
}

// PE42512 drives a Peregrine PE42512 SP12T RF switch through five GPIO
// control lines.
type PE42512 struct {
	ls, v1, v2, v3, v4 gpio.PinIO
	logger             logger.Logger
}

var _ Switch = (*PE42512)(nil)

// NewPE42512 initializes the host GPIO subsystem and claims the switch
// control pins.
func NewPE42512(l logger.Logger) (*PE42512, error) {
	if l == nil {
		l = logger.GetLogger()
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("rfswitch: init gpio host: %w", err)
	}

	pins := make([]gpio.PinIO, 0, 5)
	for _, name := range []string{pinLS, pinV1, pinV2, pinV3, pinV4} {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("rfswitch: control pin %s not found", name)
		}
		pins = append(pins, pin)
	}

	return newPE42512(pins[0], pins[1], pins[2], pins[3], pins[4], l), nil
}

func newPE42512(ls, v1, v2, v3, v4 gpio.PinIO, l logger.Logger) *PE42512 {
	return &PE42512{ls: ls, v1: v1, v2: v2, v3: v3, v4: v4, logger: l}
}

// ActivatePort routes the measurement path to the given port (0-11 for
// RF1-RF12) by setting the V4..V1 address lines.
func (s *PE42512) ActivatePort(port int) error {
	if port < 0 || port >= PortCount {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidPort, port, PortCount-1)
	}

	bits := controlBits[port]
	lines := []struct {
		pin   gpio.PinIO
		level gpio.Level
	}{
		{s.ls, gpio.Low},
		{s.v4, bits[0]},
		{s.v3, bits[1]},
		{s.v2, bits[2]},
		{s.v1, bits[3]},
	}

	for _, line := range lines {
		if err := line.pin.Out(line.level); err != nil {
			return fmt.Errorf("rfswitch: set %s: %w", line.pin.Name(), err)
		}
	}

	s.logger.Debug("rfswitch: port activated", "port", port)

	return nil
}

// Release drives every control line low and hands the pins back to the host.
func (s *PE42512) Release() error {
	var firstErr error
	for _, pin := range []gpio.PinIO{s.ls, s.v1, s.v2, s.v3, s.v4} {
		if err := pin.Out(gpio.Low); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("rfswitch: release %s: %w", pin.Name(), err)
		}
		if err := pin.Halt(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("rfswitch: halt %s: %w", pin.Name(), err)
		}
	}

	return firstErr
}

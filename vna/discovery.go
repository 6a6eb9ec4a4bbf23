package vna

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// USB identifiers of the instrument's STM32 CDC-ACM interface.
const (
	DeviceVID = "0483"
	DevicePID = "5740"
)

// listPorts is swapped out by discovery tests.
var listPorts = enumerator.GetDetailedPortsList

// FindDevice scans the USB serial ports for the instrument and returns the
// first matching device path.
//
// It returns ErrDeviceNotFound if no port matches the expected VID/PID pair.
func FindDevice() (string, error) {
	ports, err := listPorts()
	if err != nil {
		return "", fmt.Errorf("%w: enumerate serial ports: %w", ErrTransport, err)
	}

	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		if strings.EqualFold(port.VID, DeviceVID) && strings.EqualFold(port.PID, DevicePID) {
			return port.Name, nil
		}
	}

	return "", ErrDeviceNotFound
}

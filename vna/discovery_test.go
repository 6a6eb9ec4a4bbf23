package vna

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func stubPortList(t *testing.T, ports []*enumerator.PortDetails, err error) {
	t.Helper()

	orig := listPorts
	listPorts = func() ([]*enumerator.PortDetails, error) {
		return ports, err
	}
	t.Cleanup(func() { listPorts = orig })
}

func TestFindDevice(t *testing.T) {
	stubPortList(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyS0", IsUSB: false},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "0483", PID: "5740"},
	}, nil)

	device, err := FindDevice()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", device)
}

func TestFindDevice_FirstMatchWins(t *testing.T) {
	stubPortList(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "0483", PID: "5740"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "0483", PID: "5740"},
	}, nil)

	device, err := FindDevice()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", device)
}

func TestFindDevice_NotFound(t *testing.T) {
	stubPortList(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523"},
	}, nil)

	_, err := FindDevice()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestFindDevice_EnumerationError(t *testing.T) {
	stubPortList(t, nil, errors.New("udev unavailable"))

	_, err := FindDevice()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSession_OpenDiscoversDevice(t *testing.T) {
	stubPortList(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyACM3", IsUSB: true, VID: "0483", PID: "5740"},
	}, nil)

	port := newPromptPort()
	var openedDevice string

	cfg, err := NewSessionConfig("", // empty path: discover at open time
		WithLineTimeout(MinLineTimeout),
		WithResponseTimeout(MinResponseTimeout),
		WithLogger(&nopLogger{}),
		WithPortOpener(func(device string, baudRate int) (Port, error) {
			openedDevice = device

			return port, nil
		}),
	)
	require.NoError(t, err)

	s, err := NewSession(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Open())
	assert.Equal(t, "/dev/ttyACM3", openedDevice)
	assert.Equal(t, "/dev/ttyACM3", s.Device())
}

func TestSession_OpenDiscoveryFails(t *testing.T) {
	stubPortList(t, nil, nil)

	cfg, err := NewSessionConfig("", WithLogger(&nopLogger{}))
	require.NoError(t, err)

	s, err := NewSession(cfg)
	require.NoError(t, err)

	err = s.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.True(t, s.State().IsClosed())
}

package vna

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchange_CollectsLinesUntilPrompt(t *testing.T) {
	port := newFakePort(nil)
	port.script = func(cmd string) {
		port.feedResponse("NanoVNA-H", "2019-12-22")
	}

	s := newTestSession(t, port)

	lines, err := s.Exchange("version")
	require.NoError(t, err)
	assert.Equal(t, []string{"NanoVNA-H", "2019-12-22"}, lines)

	// The command echo is consumed before the response is collected.
	assert.NotContains(t, lines, "version")

	metrics := s.GetMetrics()
	assert.Equal(t, uint64(1), metrics.CommandSendCount.Load())
	assert.Equal(t, uint64(1), metrics.ResponseRecvCount.Load())
	assert.Equal(t, uint64(0), metrics.ResponseTimeoutCount.Load())
}

func TestExchange_BlankLinesSkipped(t *testing.T) {
	port := newFakePort(nil)
	port.script = func(cmd string) {
		port.feedResponse("", "value", "")
	}

	s := newTestSession(t, port)

	lines, err := s.Exchange("echo")
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, lines)
}

func TestExchange_ResponseTimeout_ReturnsPartial(t *testing.T) {
	port := newFakePort(nil)
	port.script = func(cmd string) {
		// Two lines and then silence; the prompt never arrives.
		port.feedLines("0.1 0.2", "0.3 0.4")
	}

	s := newTestSession(t, port)

	lines, err := s.Exchange("data 0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	// The lines collected before the budget expired ride along.
	assert.Equal(t, []string{"0.1 0.2", "0.3 0.4"}, lines)
	assert.Equal(t, uint64(1), s.GetMetrics().ResponseTimeoutCount.Load())
}

func TestExchange_StaleInputDiscarded(t *testing.T) {
	port := newFakePort(nil)
	port.script = func(cmd string) {
		port.feedResponse("fresh")
	}

	s := newTestSession(t, port)

	// Leftovers from an interrupted earlier exchange, stale prompt included.
	port.feedRaw("0.9 0.9\r\nch> ")

	lines, err := s.Exchange("echo")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, lines)
	assert.Equal(t, 1, port.resetCalls)
}

func TestExchange_PromptFromPreviousCommandFlushed(t *testing.T) {
	port := newPromptPort()
	s := newTestSession(t, port)

	// Command leaves the device prompt unread.
	require.NoError(t, s.Command("pause"))

	// The next exchange flushes it and still terminates on its own prompt.
	lines, err := s.Exchange("resume")
	require.NoError(t, err)
	assert.Empty(t, lines)

	assert.Equal(t, []string{"pause", "resume"}, port.commandLog())
	assert.Equal(t, uint64(0), s.GetMetrics().LineTimeoutCount.Load())
}

func TestCommand_MissingEchoTolerated(t *testing.T) {
	port := newFakePort(nil)
	port.mute = true

	s := newTestSession(t, port)

	// The device echoes nothing within the line window; the command still
	// counts as sent.
	require.NoError(t, s.Command("pause"))
	assert.Equal(t, []string{"pause"}, port.commandLog())
	assert.Equal(t, uint64(1), s.GetMetrics().LineTimeoutCount.Load())
}

func TestExchange_WriteErrorDegradesSession(t *testing.T) {
	port := newPromptPort()
	s := newTestSession(t, port)

	port.setWriteErr(errors.New("input/output error"))

	_, err := s.Exchange("pause")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, s.State().IsDegraded())

	// A degraded session refuses further commands until restarted.
	_, err = s.Exchange("resume")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestExchange_ReadErrorDegradesSession(t *testing.T) {
	port := newFakePort(nil)
	port.script = func(cmd string) {
		port.setReadErr(errors.New("device unplugged"))
	}

	s := newTestSession(t, port)

	_, err := s.Exchange("pause")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, s.State().IsDegraded())
}

func TestExchange_AutoOpensSession(t *testing.T) {
	port := newPromptPort()
	cfg := newTestConfig(t, port)

	s, err := NewSession(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.True(t, s.State().IsClosed())

	_, err = s.Exchange("pause")
	require.NoError(t, err)
	assert.True(t, s.State().IsOpen())
}

// --- Device command wrappers ---

func TestDeviceCommands_Wire(t *testing.T) {
	port := newPromptPort()
	s := newTestSession(t, port)

	require.NoError(t, s.Pause())
	require.NoError(t, s.Resume())
	require.NoError(t, s.SetSweep(38e6, 57e6))
	require.NoError(t, s.SetFrequency(433.92e6))
	require.NoError(t, s.SelectPort(1))
	require.NoError(t, s.SetGain(30))
	require.NoError(t, s.SetOffset(5000))
	require.NoError(t, s.SetPower(10))

	assert.Equal(t, []string{
		"pause",
		"resume",
		"sweep start 38000000",
		"sweep stop 57000000",
		"freq 433920000",
		"port 1",
		"gain 30 30",
		"offset 5000",
		"power 10",
	}, port.commandLog())
}

func TestDeviceCommands_Validation(t *testing.T) {
	port := newPromptPort()
	s := newTestSession(t, port)

	assert.ErrorIs(t, s.SetSweep(0, 57e6), ErrConfig)
	assert.ErrorIs(t, s.SetSweep(57e6, 38e6), ErrConfig)
	assert.ErrorIs(t, s.SetFrequency(0), ErrConfig)
	assert.ErrorIs(t, s.SelectPort(2), ErrConfig)
	assert.ErrorIs(t, s.SelectPort(-1), ErrConfig)

	// Rejected commands never reach the device.
	assert.Empty(t, port.commandLog())
}

func TestFetchGamma(t *testing.T) {
	port := newFakePort(nil)
	port.script = func(cmd string) {
		port.feedResponse("-14 3")
	}

	s := newTestSession(t, port)

	g, err := s.FetchGamma()
	require.NoError(t, err)
	assert.Equal(t, complex(-14.0/512, 3.0/512), g)
	assert.Equal(t, []string{"gamma"}, port.commandLog())
}

func TestFetchGamma_NoSample(t *testing.T) {
	port := newPromptPort()
	s := newTestSession(t, port)

	_, err := s.FetchGamma()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataIncomplete)
}

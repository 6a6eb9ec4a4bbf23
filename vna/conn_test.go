package vna

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_NilConfig(t *testing.T) {
	_, err := NewSession(nil)
	require.Error(t, err)
}

func TestSession_OpenIdempotent(t *testing.T) {
	opens := 0
	port := newPromptPort()

	cfg := newTestConfig(t, port, WithPortOpener(func(device string, baudRate int) (Port, error) {
		opens++

		return port, nil
	}))

	s, err := NewSession(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Open())
	require.NoError(t, s.Open())

	assert.Equal(t, 1, opens)
	assert.True(t, s.State().IsOpen())
	assert.Equal(t, "/dev/ttyTEST", s.Device())
}

func TestSession_OpenerFailure(t *testing.T) {
	wantErr := errors.New("permission denied")

	cfg := newTestConfig(t, nil, WithPortOpener(func(device string, baudRate int) (Port, error) {
		return nil, wantErr
	}))

	s, err := NewSession(cfg)
	require.NoError(t, err)

	err = s.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.True(t, s.State().IsClosed())
}

func TestSession_OpenRejectedTransitionLeavesNoHandle(t *testing.T) {
	port := newPromptPort()

	// The opener degrades the session before Open reaches its state
	// transition, standing in for a concurrent degrade sneaking between
	// Open's entry check and toOpen.
	var s *Session
	cfg := newTestConfig(t, nil, WithPortOpener(func(device string, baudRate int) (Port, error) {
		s.stateMgr.state.Store(uint32(DegradedState))

		return port, nil
	}))

	var err error
	s, err = NewSession(cfg)
	require.NoError(t, err)

	err = s.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// The half-opened handle must not leak out of the failed Open.
	assert.Nil(t, s.getPort())
	assert.Nil(t, s.getReader())
	assert.Empty(t, s.Device())
	assert.True(t, port.closed, "serial port must be closed again")
}

func TestSession_CloseIdempotent(t *testing.T) {
	port := newPromptPort()
	s := newTestSession(t, port)

	require.NoError(t, s.Close())
	assert.True(t, s.State().IsClosed())

	// Second close is a no-op, even though the port is gone.
	require.NoError(t, s.Close())
}

func TestSession_CloseBeforeOpen(t *testing.T) {
	cfg := newTestConfig(t, newPromptPort())

	s, err := NewSession(cfg)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.True(t, s.State().IsClosed())
}

func TestSession_IsReady(t *testing.T) {
	port := newPromptPort()
	s := newTestSession(t, port)

	assert.True(t, s.IsReady())
	assert.Equal(t, []string{"pause", "resume"}, port.commandLog())
	assert.True(t, s.State().IsOpen())
}

func TestSession_IsReadyWhenClosed(t *testing.T) {
	cfg := newTestConfig(t, newPromptPort())

	s, err := NewSession(cfg)
	require.NoError(t, err)

	assert.False(t, s.IsReady())
	assert.True(t, s.State().IsClosed())
}

func TestSession_IsReadyDegradesAndRestartRecovers(t *testing.T) {
	// First port: a device that swallows commands without ever prompting.
	// Second port: a healthy device handed out on restart.
	silent := newFakePort(nil)
	healthy := newPromptPort()

	ports := []*fakePort{silent, healthy}
	cfg, err := NewSessionConfig("/dev/ttyTEST",
		WithLineTimeout(MinLineTimeout),
		WithResponseTimeout(MinResponseTimeout),
		WithSettleDelay(0),
		WithLogger(&nopLogger{}),
		WithPortOpener(func(device string, baudRate int) (Port, error) {
			p := ports[0]
			if len(ports) > 1 {
				ports = ports[1:]
			}

			return p, nil
		}),
	)
	require.NoError(t, err)

	s, err := NewSession(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Open())

	// The probe times out and the session degrades.
	assert.False(t, s.IsReady())
	assert.True(t, s.State().IsDegraded())

	// Commands are refused until the session is restarted.
	err = s.Pause()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.Restart())
	assert.True(t, s.State().IsOpen())
	assert.True(t, s.IsReady())
	assert.Equal(t, []string{"pause", "resume"}, healthy.commandLog())
}

func TestSession_StateChangeSequence(t *testing.T) {
	type transition struct {
		prev ConnState
		next ConnState
	}

	var seen []transition
	silent := newFakePort(nil)

	cfg, err := NewSessionConfig("/dev/ttyTEST",
		WithLineTimeout(MinLineTimeout),
		WithResponseTimeout(MinResponseTimeout),
		WithSettleDelay(0),
		WithLogger(&nopLogger{}),
		WithPortOpener(func(device string, baudRate int) (Port, error) {
			return silent, nil
		}),
		WithStateChangeHandler(func(prevState, newState ConnState) {
			seen = append(seen, transition{prevState, newState})
		}),
	)
	require.NoError(t, err)

	s, err := NewSession(cfg)
	require.NoError(t, err)

	require.NoError(t, s.Open())
	assert.False(t, s.IsReady()) // probe fails, session degrades
	require.NoError(t, s.Close())

	assert.Equal(t, []transition{
		{ClosedState, OpenState},
		{OpenState, DegradedState},
		{DegradedState, ClosedState},
	}, seen)
}

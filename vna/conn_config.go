package vna

import (
	"errors"
	"fmt"
	"time"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/logger"
)

// Default session parameters.
const (
	// DefaultBaudRate is the serial baud rate. The device enumerates as a
	// USB CDC-ACM port and ignores the configured rate, but the port mode
	// is still set explicitly.
	DefaultBaudRate = 115200

	// DefaultLineTimeout is the window for a single line read. A read that
	// produces no complete line within this window yields an empty line,
	// not an error.
	DefaultLineTimeout = 500 * time.Millisecond

	// DefaultResponseTimeout is the budget for collecting one complete
	// command response, prompt included. It must cover the sweep time of
	// the largest segment.
	DefaultResponseTimeout = 10 * time.Second

	// DefaultSegmentCapacity is the largest point count a single scan
	// command accepts. Sweeps with more points are split into segments of
	// at most this many points.
	DefaultSegmentCapacity = 101

	// DefaultRetryBackoff is the delay between attempts of a failed
	// segment scan.
	DefaultRetryBackoff = 200 * time.Millisecond

	// DefaultSettleDelay is the pause between closing and reopening the
	// port during Restart, giving the device time to reset its console.
	DefaultSettleDelay = time.Second
)

// Session parameter range limits.
const (
	MinLineTimeout = 10 * time.Millisecond
	MaxLineTimeout = 10 * time.Second

	MinResponseTimeout = 100 * time.Millisecond
	MaxResponseTimeout = 120 * time.Second

	MinSegmentCapacity = 2
	MaxSegmentCapacity = 1021

	MaxRetryBackoff = 10 * time.Second

	MaxSettleDelay = 30 * time.Second
)

// SessionConfig holds all configuration for an instrument session.
type SessionConfig struct {
	// device is the serial port path, e.g. "/dev/ttyACM0".
	// Empty means discover by USB VID/PID at open time.
	device string

	baudRate int

	// Protocol timeouts.
	lineTimeout     time.Duration
	responseTimeout time.Duration

	// Sweep segmentation.
	segmentCapacity int

	// Retry pacing and restart settle.
	retryBackoff time.Duration
	settleDelay  time.Duration

	opener        PortOpener
	stateHandlers []StateChangeHandler

	logger logger.Logger
}

// NewSessionConfig creates a new session configuration for the given serial
// device path. An empty device path enables USB discovery at open time.
//
// opts are functional options applied in order; see With* functions.
func NewSessionConfig(device string, opts ...SessionOption) (*SessionConfig, error) {
	cfg := &SessionConfig{
		device:          device,
		baudRate:        DefaultBaudRate,
		lineTimeout:     DefaultLineTimeout,
		responseTimeout: DefaultResponseTimeout,
		segmentCapacity: DefaultSegmentCapacity,
		retryBackoff:    DefaultRetryBackoff,
		settleDelay:     DefaultSettleDelay,
		opener:          openSerialPort,
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// Device returns the configured serial device path. Empty means the port is
// discovered by USB VID/PID at open time.
func (cfg *SessionConfig) Device() string { return cfg.device }

// BaudRate returns the configured serial baud rate.
func (cfg *SessionConfig) BaudRate() int { return cfg.baudRate }

// LineTimeout returns the single line read window.
func (cfg *SessionConfig) LineTimeout() time.Duration { return cfg.lineTimeout }

// ResponseTimeout returns the whole-response collection budget.
func (cfg *SessionConfig) ResponseTimeout() time.Duration { return cfg.responseTimeout }

// SegmentCapacity returns the largest point count per scan command.
func (cfg *SessionConfig) SegmentCapacity() int { return cfg.segmentCapacity }

// RetryBackoff returns the delay between segment scan attempts.
func (cfg *SessionConfig) RetryBackoff() time.Duration { return cfg.retryBackoff }

// SettleDelay returns the pause between close and reopen during Restart.
func (cfg *SessionConfig) SettleDelay() time.Duration { return cfg.settleDelay }

// GetLogger returns the configured logger.
func (cfg *SessionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- SessionOption ---

// SessionOption is a functional option for configuring a SessionConfig.
type SessionOption interface {
	apply(*SessionConfig) error
}

type sessionOptFunc func(*SessionConfig) error

func (f sessionOptFunc) apply(cfg *SessionConfig) error { return f(cfg) }

// WithBaudRate sets the serial baud rate.
func WithBaudRate(rate int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if rate <= 0 {
			return fmt.Errorf("vna: baud rate %d must be positive", rate)
		}
		cfg.baudRate = rate

		return nil
	})
}

// WithLineTimeout sets the single line read window.
func WithLineTimeout(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d < MinLineTimeout || d > MaxLineTimeout {
			return fmt.Errorf("vna: line timeout %v out of range [%v, %v]", d, MinLineTimeout, MaxLineTimeout)
		}
		cfg.lineTimeout = d

		return nil
	})
}

// WithResponseTimeout sets the whole-response collection budget. It must
// cover the sweep time of the largest segment.
func WithResponseTimeout(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d < MinResponseTimeout || d > MaxResponseTimeout {
			return fmt.Errorf("vna: response timeout %v out of range [%v, %v]", d, MinResponseTimeout, MaxResponseTimeout)
		}
		cfg.responseTimeout = d

		return nil
	})
}

// WithSegmentCapacity sets the largest point count a single scan command
// accepts. Must be in [2, 1021].
func WithSegmentCapacity(n int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n < MinSegmentCapacity || n > MaxSegmentCapacity {
			return fmt.Errorf("vna: segment capacity %d out of range [%d, %d]", n, MinSegmentCapacity, MaxSegmentCapacity)
		}
		cfg.segmentCapacity = n

		return nil
	})
}

// WithRetryBackoff sets the delay between segment scan attempts.
// Zero disables the backoff.
func WithRetryBackoff(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d < 0 || d > MaxRetryBackoff {
			return fmt.Errorf("vna: retry backoff %v out of range [0, %v]", d, MaxRetryBackoff)
		}
		cfg.retryBackoff = d

		return nil
	})
}

// WithSettleDelay sets the pause between close and reopen during Restart.
// Zero disables the pause.
func WithSettleDelay(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d < 0 || d > MaxSettleDelay {
			return fmt.Errorf("vna: settle delay %v out of range [0, %v]", d, MaxSettleDelay)
		}
		cfg.settleDelay = d

		return nil
	})
}

// WithPortOpener sets the function used to open the serial port. It is
// primarily an injection point for tests running against a scripted device.
func WithPortOpener(opener PortOpener) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if opener == nil {
			return errors.New("vna: port opener must not be nil")
		}
		cfg.opener = opener

		return nil
	})
}

// WithStateChangeHandler registers a handler invoked on every session state
// change. Handlers are invoked in registration order.
func WithStateChangeHandler(handler StateChangeHandler) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if handler == nil {
			return errors.New("vna: state change handler must not be nil")
		}
		cfg.stateHandlers = append(cfg.stateHandlers, handler)

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if l == nil {
			return errors.New("vna: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

package vna

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/internal/pool"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/logger"
)

// Session represents a command session with the instrument's serial console.
//
// It manages the serial port lifecycle, the line-oriented command/response
// protocol, and the segmented sweep engine. Individual command exchanges are
// serialized internally, but a running Scan is composed of many exchanges:
// do not issue other commands on the same session while a Scan is in flight.
type Session struct {
	cfg    *SessionConfig
	logger logger.Logger

	// Serial resources.
	portMu sync.RWMutex
	port   Port
	reader *lineReader
	device string // resolved device path, set on Open

	// opMu serializes command/response exchanges.
	opMu sync.Mutex

	stateMgr *connStateMgr

	// Sweep axis. The realized axis from the last Scan is authoritative.
	axisMu sync.RWMutex
	axis   FrequencyAxis

	metrics SessionMetrics
}

// NewSession creates a new instrument session with the given configuration.
//
// The serial port is not opened until Open is called, either directly or
// implicitly by the first command.
func NewSession(cfg *SessionConfig) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("vna: session config is nil")
	}

	s := &Session{
		cfg:      cfg,
		logger:   cfg.logger,
		stateMgr: newConnStateMgr(cfg.logger, cfg.stateHandlers...),
	}

	return s, nil
}

// --- Lifecycle ---

// Open opens the serial port and marks the session usable.
//
// If no device path was configured, the port is discovered by USB VID/PID.
// Opening an already-open session is a no-op. A degraded session cannot be
// reopened directly; call Restart instead.
func (s *Session) Open() error {
	if s.stateMgr.IsOpen() {
		return nil
	}

	if s.stateMgr.IsDegraded() {
		return fmt.Errorf("%w: session degraded, restart required", ErrInvalidTransition)
	}

	device := s.cfg.device
	if device == "" {
		found, err := FindDevice()
		if err != nil {
			return err
		}
		device = found
		s.logger.Debug("vna: discovered device", "device", device)
	}

	port, err := s.cfg.opener(device, s.cfg.baudRate)
	if err != nil {
		return err
	}

	if err := port.SetReadTimeout(s.cfg.lineTimeout); err != nil {
		_ = port.Close()

		return fmt.Errorf("%w: set read timeout: %w", ErrTransport, err)
	}

	s.portMu.Lock()
	s.port = port
	s.reader = newLineReader(port)
	s.device = device
	s.portMu.Unlock()

	if err := s.stateMgr.toOpen(); err != nil {
		// Roll back: a session that failed to open must not expose the
		// half-opened handle.
		s.portMu.Lock()
		s.port = nil
		s.reader = nil
		s.device = ""
		s.portMu.Unlock()

		_ = port.Close()

		return err
	}

	s.logger.Info("vna: session opened", "device", device, "baudRate", s.cfg.baudRate)

	return nil
}

// Close closes the serial port. Closing an already-closed session is a no-op.
func (s *Session) Close() error {
	s.portMu.Lock()
	port := s.port
	device := s.device
	s.port = nil
	s.reader = nil
	s.portMu.Unlock()

	s.stateMgr.toClosed()

	if port == nil {
		return nil
	}

	if err := port.Close(); err != nil {
		s.logger.Error("vna: failed to close serial port", "device", device, "error", err)

		return fmt.Errorf("%w: close: %w", ErrTransport, err)
	}

	s.logger.Info("vna: session closed", "device", device)

	return nil
}

// Restart closes the port, waits for the device console to settle, and opens
// it again. It is the only way to recover a degraded session.
func (s *Session) Restart() error {
	if err := s.Close(); err != nil {
		s.logger.Warn("vna: close during restart failed", "error", err)
	}

	if d := s.cfg.settleDelay; d > 0 {
		settleTimer := pool.GetTimer(d)
		<-settleTimer.C
		pool.PutTimer(settleTimer)
	}

	return s.Open()
}

// IsReady probes the device with a pause/resume round trip.
//
// It returns false without an error when the device stops answering; the
// session is then degraded and must be restarted.
func (s *Session) IsReady() bool {
	if !s.stateMgr.IsOpen() {
		return false
	}

	// A live device reprints its prompt immediately; two line windows is a
	// generous probe budget.
	budget := 2 * s.cfg.lineTimeout

	for _, cmd := range []string{"pause", "resume"} {
		if _, err := s.exchange(cmd, budget); err != nil {
			s.logger.Warn("vna: liveness probe failed", "cmd", cmd, "error", err)
			s.stateMgr.toDegraded()

			return false
		}
	}

	return true
}

// State returns the current session state.
func (s *Session) State() ConnState {
	return s.stateMgr.State()
}

// Device returns the resolved serial device path, or the empty string if the
// session has never been opened.
func (s *Session) Device() string {
	s.portMu.RLock()
	defer s.portMu.RUnlock()

	return s.device
}

// GetLogger returns the logger associated with the session.
func (s *Session) GetLogger() logger.Logger {
	return s.logger
}

// GetMetrics returns the metrics associated with the session.
func (s *Session) GetMetrics() *SessionMetrics {
	return &s.metrics
}

// --- Serial resource access ---

func (s *Session) ensureOpen() error {
	if s.stateMgr.IsOpen() {
		return nil
	}

	return s.Open()
}

func (s *Session) getPort() Port {
	s.portMu.RLock()
	defer s.portMu.RUnlock()

	return s.port
}

func (s *Session) getReader() *lineReader {
	s.portMu.RLock()
	defer s.portMu.RUnlock()

	return s.reader
}

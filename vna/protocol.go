package vna

import (
	"fmt"
	"time"
)

// refLevel scales the raw integer reflection readout of the gamma command.
const refLevel = 1 << 9

// --- Command exchange ---

// Command sends a console command without collecting its response.
//
// The echo line is read and discarded; the prompt that follows is left in
// the stream and flushed by the next exchange.
func (s *Session) Command(cmd string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	return s.writeCommand(cmd)
}

// Exchange sends a console command and collects its response lines up to the
// device prompt, bounded by the configured response budget.
func (s *Session) Exchange(cmd string) ([]string, error) {
	return s.exchange(cmd, s.cfg.responseTimeout)
}

func (s *Session) exchange(cmd string, budget time.Duration) ([]string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.writeCommand(cmd); err != nil {
		return nil, err
	}

	return s.fetchResponse(budget)
}

// writeCommand performs the send half of an exchange: open the port if
// needed, discard stale input, write the command with its carriage return
// terminator, and consume the echo line.
//
// The caller must hold opMu.
func (s *Session) writeCommand(cmd string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	port := s.getPort()
	reader := s.getReader()
	if port == nil || reader == nil {
		return fmt.Errorf("%w: port closed", ErrTransport)
	}

	// Drop whatever the previous exchange left behind, stale prompt included.
	if err := port.ResetInputBuffer(); err != nil {
		s.stateMgr.toDegraded()

		return fmt.Errorf("%w: reset input buffer: %w", ErrTransport, err)
	}
	reader.reset()

	if err := writeAll(port, []byte(cmd+"\r")); err != nil {
		s.stateMgr.toDegraded()

		return fmt.Errorf("%w: write %q: %w", ErrTransport, cmd, err)
	}

	s.metrics.incCommandSendCount()
	s.logger.Debug("vna: command sent", "cmd", cmd)

	// The device echoes every command. An empty read means the echo is
	// still in flight; it is flushed by the next exchange.
	echo, _, err := reader.readLine(false)
	if err != nil {
		s.stateMgr.toDegraded()

		return err
	}
	if echo == "" {
		s.metrics.incLineTimeoutCount()
		s.logger.Debug("vna: command echo not seen within line window", "cmd", cmd)
	}

	return nil
}

// fetchResponse accumulates non-empty response lines until the device prompt
// arrives or the budget expires.
//
// On budget expiry the lines collected so far are returned together with
// ErrTimeout. Blank lines and expired line windows are skipped; only the
// response budget bounds the overall wait. The caller must hold opMu.
func (s *Session) fetchResponse(budget time.Duration) ([]string, error) {
	reader := s.getReader()
	if reader == nil {
		return nil, fmt.Errorf("%w: port closed", ErrTransport)
	}

	deadline := time.Now().Add(budget)

	var lines []string
	for {
		if time.Now().After(deadline) {
			s.metrics.incResponseTimeoutCount()

			return lines, fmt.Errorf("%w: no prompt within %v (%d lines collected)", ErrTimeout, budget, len(lines))
		}

		line, isPrompt, err := reader.readLine(true)
		if err != nil {
			s.stateMgr.toDegraded()

			return lines, err
		}

		if isPrompt {
			s.metrics.incResponseRecvCount()

			return lines, nil
		}

		if line == "" {
			continue
		}

		lines = append(lines, line)
	}
}

func writeAll(port Port, data []byte) error {
	for written := 0; written < len(data); {
		n, err := port.Write(data[written:])
		written += n

		if err != nil {
			return err
		}
	}

	return nil
}

// --- Device commands ---

// Pause stops the device's continuous sweep.
func (s *Session) Pause() error {
	_, err := s.Exchange("pause")

	return err
}

// Resume restarts the device's continuous sweep.
func (s *Session) Resume() error {
	_, err := s.Exchange("resume")

	return err
}

// SetSweep programs the device's continuous sweep bounds in Hz.
func (s *Session) SetSweep(start, stop float64) error {
	if err := validateSpan(start, stop); err != nil {
		return err
	}

	if _, err := s.Exchange(fmt.Sprintf("sweep start %.0f", start)); err != nil {
		return err
	}
	_, err := s.Exchange(fmt.Sprintf("sweep stop %.0f", stop))

	return err
}

// SetFrequency parks the device's stimulus at a single frequency in Hz.
func (s *Session) SetFrequency(hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("%w: frequency %.0f Hz must be positive", ErrConfig, hz)
	}

	_, err := s.Exchange(fmt.Sprintf("freq %.0f", hz))

	return err
}

// SelectPort routes the measurement to device receiver port p (0 or 1).
func (s *Session) SelectPort(p int) error {
	if p != 0 && p != 1 {
		return fmt.Errorf("%w: device port %d must be 0 or 1", ErrConfig, p)
	}

	_, err := s.Exchange(fmt.Sprintf("port %d", p))

	return err
}

// SetGain sets the receiver gain on both channels. The value is passed to
// the device verbatim.
func (s *Session) SetGain(gain int) error {
	_, err := s.Exchange(fmt.Sprintf("gain %d %d", gain, gain))

	return err
}

// SetOffset sets the receiver IF offset in Hz. The value is passed to the
// device verbatim.
func (s *Session) SetOffset(offset int) error {
	_, err := s.Exchange(fmt.Sprintf("offset %d", offset))

	return err
}

// SetPower sets the stimulus power level. The value is passed to the device
// verbatim.
func (s *Session) SetPower(power int) error {
	_, err := s.Exchange(fmt.Sprintf("power %d", power))

	return err
}

// FetchGamma reads one raw reflection coefficient at the current stimulus
// frequency, scaled to the device's unit reference level.
func (s *Session) FetchGamma() (complex128, error) {
	lines, err := s.Exchange("gamma")
	if err != nil {
		return 0, err
	}

	return s.parseGammaLine(lines)
}

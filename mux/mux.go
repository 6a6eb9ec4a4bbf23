// Package mux orchestrates bit readout across the ports of an RF
// multiplexer board.
//
// Each port carries a passive sensor that encodes one bit as an absorption
// dip in its reflection spectrum. Reading a port activates it on the RF
// switch, runs one segmented sweep on the instrument and hands the spectrum
// to the dip detector. The orchestrator holds no protocol logic of its own;
// it composes the switch capability, the instrument session and the
// detector.
package mux

import (
	"context"
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/dip"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/logger"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/rfswitch"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/vna"
)

// ErrInvalidPort indicates a port index outside the multiplexer's range.
var ErrInvalidPort = errors.New("mux: invalid port")

// Scanner is the slice of the instrument session the orchestrator drives.
// *vna.Session satisfies it; tests substitute a scripted fake.
type Scanner interface {
	Resume() error
	Scan(ctx context.Context) (*vna.SweepResult, error)
	Frequencies() vna.FrequencyAxis
	SetFrequencies(start, stop float64, points int) error
	FetchFrequencies() (vna.FrequencyAxis, error)
}

// ProgressFunc is invoked after every successful port read.
type ProgressFunc func(port int, bit dip.Bit)

// Multiplexer reads bit values from the ports of an RF switch board.
//
// Port reads share one instrument session and must not run concurrently;
// the result map may be read from other goroutines at any time.
type Multiplexer struct {
	cfg      *Config
	scanner  Scanner
	sw       rfswitch.Switch
	detector *dip.Detector
	logger   logger.Logger

	results *xsync.MapOf[int, dip.Bit]
}

// New creates a multiplexer over the given instrument session slice and
// switch capability.
func New(scanner Scanner, sw rfswitch.Switch, cfg *Config) (*Multiplexer, error) {
	if scanner == nil {
		return nil, errors.New("mux: scanner is nil")
	}
	if sw == nil {
		return nil, errors.New("mux: switch is nil")
	}
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}

	detector, err := dip.NewDetector(cfg.bitStart, cfg.bitWidth, cfg.bitPadding, cfg.threshold)
	if err != nil {
		return nil, err
	}

	return &Multiplexer{
		cfg:      cfg,
		scanner:  scanner,
		sw:       sw,
		detector: detector,
		logger:   cfg.logger,
		results:  xsync.NewMapOf[int, dip.Bit](),
	}, nil
}

// Size returns the number of multiplexer ports.
func (m *Multiplexer) Size() int { return m.cfg.size }

// Detector returns the dip detector the multiplexer decides bits with.
func (m *Multiplexer) Detector() *dip.Detector { return m.detector }

// Read reads the bit encoded on one port.
//
// The port is activated on the switch, the instrument sweep is resumed and
// one segmented sweep is taken; the reflection spectrum then decides the
// bit. Any failure is fatal to this port's read only.
func (m *Multiplexer) Read(ctx context.Context, port int) (dip.Bit, error) {
	if port < 0 || port >= m.cfg.size {
		return dip.Undetermined, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidPort, port, m.cfg.size-1)
	}

	if err := m.sw.ActivatePort(port); err != nil {
		return dip.Undetermined, fmt.Errorf("mux: activate port %d: %w", port, err)
	}
	m.logger.Debug("mux: port activated", "port", port)

	if err := m.scanner.Resume(); err != nil {
		return dip.Undetermined, fmt.Errorf("mux: resume before port %d: %w", port, err)
	}

	if err := m.ensureAxis(); err != nil {
		return dip.Undetermined, fmt.Errorf("mux: configure sweep for port %d: %w", port, err)
	}

	result, err := m.scanner.Scan(ctx)
	if err != nil {
		return dip.Undetermined, fmt.Errorf("mux: sweep port %d: %w", port, err)
	}

	bit, err := m.detector.Detect(result.Frequencies, result.S11)
	if err != nil {
		return dip.Undetermined, fmt.Errorf("mux: detect port %d: %w", port, err)
	}

	m.results.Store(port, bit)
	m.logger.Info("mux: port read", "port", port, "bit", bit)

	if m.cfg.progress != nil {
		m.cfg.progress(port, bit)
	}

	return bit, nil
}

// ReadAll reads every port in index order.
//
// A failed port is logged and left out of the returned map; the batch keeps
// going. Only context cancellation stops the batch early.
func (m *Multiplexer) ReadAll(ctx context.Context) (map[int]dip.Bit, error) {
	results := make(map[int]dip.Bit, m.cfg.size)

	for port := 0; port < m.cfg.size; port++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		bit, err := m.Read(ctx, port)
		if err != nil {
			m.logger.Error("mux: port read failed", "port", port, "error", err)

			continue
		}

		results[port] = bit
	}

	return results, nil
}

// Results returns a snapshot of the bits read so far, keyed by port.
func (m *Multiplexer) Results() map[int]dip.Bit {
	snapshot := make(map[int]dip.Bit, m.results.Size())
	m.results.Range(func(port int, bit dip.Bit) bool {
		snapshot[port] = bit

		return true
	})

	return snapshot
}

// Close releases the switch hardware.
func (m *Multiplexer) Close() error {
	return m.sw.Release()
}

// ensureAxis configures the detection-band sweep axis if the session has
// none, e.g. on first use or after a session restart.
//
// The axis spans both detection windows plus a guard band on each side, so
// a dip sitting right on a window edge is still sampled.
func (m *Multiplexer) ensureAxis() error {
	if len(m.scanner.Frequencies()) > 0 {
		return nil
	}

	start := m.cfg.bitStart - m.cfg.guardBand
	stop := m.detector.HiStart() + m.cfg.bitWidth + m.cfg.guardBand

	m.logger.Debug("mux: configuring detection sweep", "start", start, "stop", stop, "points", m.cfg.sweepPoints)

	return m.scanner.SetFrequencies(start, stop, m.cfg.sweepPoints)
}

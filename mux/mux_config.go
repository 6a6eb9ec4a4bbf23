package mux

import (
	"errors"
	"fmt"
	"time"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/logger"
)

// MHz expresses config frequencies in Hz.
const MHz = 1e6

// Default multiplexer parameters, matching the production readout HAT.
const (
	// DefaultSize is the number of switch ports.
	DefaultSize = 12

	// DefaultBitStart is the low detection window start.
	DefaultBitStart = 40 * MHz

	// DefaultBitWidth is the width of each detection window.
	DefaultBitWidth = 10 * MHz

	// DefaultBitPadding is the gap between the low and high windows.
	DefaultBitPadding = 5 * MHz

	// DefaultThreshold is the dip depth in dB that counts as a bit.
	DefaultThreshold = -10.0

	// DefaultGuardBand widens the sweep axis past the detection windows on
	// both sides.
	DefaultGuardBand = 2 * MHz

	// DefaultSweepPoints is the sweep axis point count.
	DefaultSweepPoints = 201

	// DefaultDataDir is where sweep snapshots are written.
	DefaultDataDir = "data"
)

// MaxSize bounds the port count; no supported switch exceeds it.
const MaxSize = 64

// Config holds all multiplexer parameters.
type Config struct {
	size int

	// Detection window geometry in Hz and dip threshold in dB.
	bitStart   float64
	bitWidth   float64
	bitPadding float64
	threshold  float64

	// Sweep axis shape.
	guardBand   float64
	sweepPoints int

	dataDir  string
	progress ProgressFunc
	logger   logger.Logger

	now func() time.Time // snapshot timestamps, injectable in tests
}

// NewConfig creates a multiplexer configuration with production defaults.
//
// opts are functional options applied in order; see With* functions.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		size:        DefaultSize,
		bitStart:    DefaultBitStart,
		bitWidth:    DefaultBitWidth,
		bitPadding:  DefaultBitPadding,
		threshold:   DefaultThreshold,
		guardBand:   DefaultGuardBand,
		sweepPoints: DefaultSweepPoints,
		dataDir:     DefaultDataDir,
		logger:      logger.GetLogger(),
		now:         time.Now,
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// Size returns the number of switch ports.
func (cfg *Config) Size() int { return cfg.size }

// BitStart returns the low detection window start in Hz.
func (cfg *Config) BitStart() float64 { return cfg.bitStart }

// BitWidth returns the detection window width in Hz.
func (cfg *Config) BitWidth() float64 { return cfg.bitWidth }

// BitPadding returns the gap between the detection windows in Hz.
func (cfg *Config) BitPadding() float64 { return cfg.bitPadding }

// Threshold returns the dip threshold in dB.
func (cfg *Config) Threshold() float64 { return cfg.threshold }

// GuardBand returns the sweep axis margin in Hz.
func (cfg *Config) GuardBand() float64 { return cfg.guardBand }

// SweepPoints returns the sweep axis point count.
func (cfg *Config) SweepPoints() int { return cfg.sweepPoints }

// DataDir returns the snapshot output directory.
func (cfg *Config) DataDir() string { return cfg.dataDir }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithSize sets the number of switch ports.
func WithSize(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 || n > MaxSize {
			return fmt.Errorf("mux: size %d out of range [1, %d]", n, MaxSize)
		}
		cfg.size = n

		return nil
	})
}

// WithBitStart sets the low detection window start in Hz.
func WithBitStart(hz float64) Option {
	return optFunc(func(cfg *Config) error {
		if hz <= 0 {
			return fmt.Errorf("mux: bit start %.0f Hz must be positive", hz)
		}
		cfg.bitStart = hz

		return nil
	})
}

// WithBitWidth sets the detection window width in Hz.
func WithBitWidth(hz float64) Option {
	return optFunc(func(cfg *Config) error {
		if hz <= 0 {
			return fmt.Errorf("mux: bit width %.0f Hz must be positive", hz)
		}
		cfg.bitWidth = hz

		return nil
	})
}

// WithBitPadding sets the gap between the low and high windows in Hz.
func WithBitPadding(hz float64) Option {
	return optFunc(func(cfg *Config) error {
		if hz <= 0 {
			return fmt.Errorf("mux: bit padding %.0f Hz must be positive", hz)
		}
		cfg.bitPadding = hz

		return nil
	})
}

// WithThreshold sets the dip threshold in dB. It must be negative.
func WithThreshold(db float64) Option {
	return optFunc(func(cfg *Config) error {
		if db >= 0 {
			return fmt.Errorf("mux: threshold %.1f dB must be negative", db)
		}
		cfg.threshold = db

		return nil
	})
}

// WithGuardBand sets the sweep axis margin beyond the detection windows.
func WithGuardBand(hz float64) Option {
	return optFunc(func(cfg *Config) error {
		if hz < 0 {
			return fmt.Errorf("mux: guard band %.0f Hz must not be negative", hz)
		}
		cfg.guardBand = hz

		return nil
	})
}

// WithSweepPoints sets the sweep axis point count.
func WithSweepPoints(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 2 {
			return fmt.Errorf("mux: sweep points %d must be at least 2", n)
		}
		cfg.sweepPoints = n

		return nil
	})
}

// WithDataDir sets the snapshot output directory.
func WithDataDir(dir string) Option {
	return optFunc(func(cfg *Config) error {
		if dir == "" {
			return errors.New("mux: data dir must not be empty")
		}
		cfg.dataDir = dir

		return nil
	})
}

// WithProgress registers a callback invoked after every successful port
// read.
func WithProgress(fn ProgressFunc) Option {
	return optFunc(func(cfg *Config) error {
		if fn == nil {
			return errors.New("mux: progress callback must not be nil")
		}
		cfg.progress = fn

		return nil
	})
}

// WithLogger sets the logger for the multiplexer.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("mux: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

// withClock substitutes the snapshot timestamp source in tests.
func withClock(now func() time.Time) Option {
	return optFunc(func(cfg *Config) error {
		cfg.now = now

		return nil
	})
}

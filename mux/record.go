package mux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/touchstone"
)

// snapshotTimeLayout names recorded sweeps down to the second; the sweep
// index keeps same-second snapshots apart.
const snapshotTimeLayout = "20060102_150405"

// Save takes one sweep of the currently active port and writes it to the
// data directory as a Touchstone file.
//
// The device's realized axis is fetched first so the snapshot reflects what
// the instrument actually measured, including after a restart.
func (m *Multiplexer) Save(ctx context.Context, filename string) error {
	if _, err := m.scanner.FetchFrequencies(); err != nil {
		return fmt.Errorf("mux: fetch axis for snapshot: %w", err)
	}

	result, err := m.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("mux: sweep for snapshot: %w", err)
	}

	if err := os.MkdirAll(m.cfg.dataDir, 0o755); err != nil {
		return fmt.Errorf("mux: create data dir: %w", err)
	}

	path := filepath.Join(m.cfg.dataDir, filename)
	if err := touchstone.Save(path, result.Frequencies, result.S11); err != nil {
		return err
	}

	m.logger.Info("mux: snapshot saved", "path", path, "points", len(result.Frequencies))

	return nil
}

// Record takes a series of sweep snapshots with timestamped file names.
func (m *Multiplexer) Record(ctx context.Context, sweeps int) error {
	if sweeps < 1 {
		return fmt.Errorf("mux: sweep count %d must be at least 1", sweeps)
	}

	for i := 1; i <= sweeps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		filename := fmt.Sprintf("sweep_%d_%s.s1p", i, m.cfg.now().Format(snapshotTimeLayout))
		if err := m.Save(ctx, filename); err != nil {
			return fmt.Errorf("mux: record sweep %d/%d: %w", i, sweeps, err)
		}

		m.logger.Info("mux: sweep recorded", "sweep", i, "total", sweeps, "filename", filename)
	}

	return nil
}

// Package touchstone writes one-port S-parameter data as Touchstone v1
// (.s1p) files, the interchange format downstream RF tooling reads.
package touchstone

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMismatch indicates the frequency axis and the sample array differ in
// length, so no row pairing exists.
var ErrMismatch = errors.New("touchstone: frequency and sample counts differ")

// Write emits freqs and s11 as a Touchstone v1 one-port network in
// real/imaginary format with a 50 ohm reference.
//
// The output is deterministic for identical input; callers wanting
// timestamps put them in the file name.
func Write(w io.Writer, freqs []float64, s11 []complex128) error {
	if len(freqs) != len(s11) {
		return fmt.Errorf("%w: %d frequencies, %d samples", ErrMismatch, len(freqs), len(s11))
	}
	if len(freqs) == 0 {
		return errors.New("touchstone: empty sweep")
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "! 1-port reflection sweep, %d points\n", len(freqs))
	fmt.Fprintln(bw, "# Hz S RI R 50")

	for i, f := range freqs {
		fmt.Fprintf(bw, "%.0f %.9g %.9g\n", f, real(s11[i]), imag(s11[i]))
	}

	return bw.Flush()
}

// Save writes the sweep to path, creating or truncating the file.
func Save(path string, freqs []float64, s11 []complex128) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("touchstone: create %s: %w", path, err)
	}

	if err := Write(f, freqs, s11); err != nil {
		_ = f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("touchstone: close %s: %w", path, err)
	}

	return nil
}

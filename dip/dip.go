// Package dip decides binary digits from reflection spectra.
//
// A sensor encodes one bit as an absorption dip in its reflection response:
// a dip inside the low frequency window means bit 0, a dip inside the high
// window means bit 1, no dip in either window leaves the bit undetermined.
// The decision is a pure function of the frequency axis and the complex
// reflection samples; no instrument state is involved.
package dip

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// Sentinel errors for the decision engine.
var (
	// ErrConfig indicates invalid detector parameters or mismatched input
	// lengths.
	ErrConfig = errors.New("dip: invalid detector configuration")
	// ErrEmptyWindow indicates that the frequency axis does not cover a
	// detection window, leaving its dip undefined.
	ErrEmptyWindow = errors.New("dip: detection window contains no samples")
)

// Bit is the outcome of one dip detection.
type Bit int

const (
	// Bit0 indicates a dip in the low frequency window.
	Bit0 Bit = iota
	// Bit1 indicates a dip in the high frequency window.
	Bit1
	// Undetermined indicates no dip below threshold in either window. It is
	// a valid terminal outcome, not an error.
	Undetermined
)

// String returns string representation of the bit.
func (b Bit) String() string {
	switch b {
	case Bit0:
		return "0"
	case Bit1:
		return "1"
	case Undetermined:
		return "undetermined"
	default:
		return "invalid"
	}
}

// Detector holds the window geometry and threshold of one bit decision.
//
// The low window spans [LoStart, LoStart+Width] and the high window
// [HiStart, HiStart+Width] with HiStart = LoStart + Width + Padding. A
// positive padding keeps the windows disjoint, so a single dip can never
// satisfy both.
type Detector struct {
	loStart   float64
	width     float64
	padding   float64
	threshold float64
}

// NewDetector creates a detector for the given window geometry.
//
// loStart, width and padding are in Hz, threshold in dB. loStart and padding
// must be positive, width non-negative, and threshold negative.
func NewDetector(loStart, width, padding, threshold float64) (*Detector, error) {
	if loStart <= 0 {
		return nil, fmt.Errorf("%w: low window start %.0f Hz must be positive", ErrConfig, loStart)
	}
	if width < 0 {
		return nil, fmt.Errorf("%w: window width %.0f Hz must not be negative", ErrConfig, width)
	}
	if padding <= 0 {
		return nil, fmt.Errorf("%w: window padding %.0f Hz must be positive", ErrConfig, padding)
	}
	if threshold >= 0 {
		return nil, fmt.Errorf("%w: dip threshold %.1f dB must be negative", ErrConfig, threshold)
	}

	return &Detector{
		loStart:   loStart,
		width:     width,
		padding:   padding,
		threshold: threshold,
	}, nil
}

// LoStart returns the low window start frequency in Hz.
func (d *Detector) LoStart() float64 { return d.loStart }

// Width returns the window width in Hz.
func (d *Detector) Width() float64 { return d.width }

// Padding returns the gap between the two windows in Hz.
func (d *Detector) Padding() float64 { return d.padding }

// Threshold returns the dip threshold in dB.
func (d *Detector) Threshold() float64 { return d.threshold }

// HiStart returns the high window start frequency in Hz.
func (d *Detector) HiStart() float64 { return d.loStart + d.width + d.padding }

// Detect decides one bit from a reflection spectrum.
//
// The minimum magnitude in dB is taken over each window. The low window is
// checked first: a spectrum dipping below threshold in both windows reads as
// bit 0, not as ambiguous. A window the axis does not cover fails with
// ErrEmptyWindow rather than comparing against an undefined minimum.
func (d *Detector) Detect(freqs []float64, samples []complex128) (Bit, error) {
	if len(freqs) != len(samples) {
		return Undetermined, fmt.Errorf("%w: axis has %d points but %d samples",
			ErrConfig, len(freqs), len(samples))
	}

	loDip, n := windowMin(freqs, samples, d.loStart, d.loStart+d.width)
	if n == 0 {
		return Undetermined, fmt.Errorf("%w: low window %.0f-%.0f Hz",
			ErrEmptyWindow, d.loStart, d.loStart+d.width)
	}

	hiStart := d.HiStart()
	hiDip, n := windowMin(freqs, samples, hiStart, hiStart+d.width)
	if n == 0 {
		return Undetermined, fmt.Errorf("%w: high window %.0f-%.0f Hz",
			ErrEmptyWindow, hiStart, hiStart+d.width)
	}

	switch {
	case loDip <= d.threshold:
		return Bit0, nil
	case hiDip <= d.threshold:
		return Bit1, nil
	default:
		return Undetermined, nil
	}
}

// windowMin returns the minimum magnitude in dB over the samples whose
// frequency lies in [start, stop], and how many samples the window held.
func windowMin(freqs []float64, samples []complex128, start, stop float64) (float64, int) {
	low := math.Inf(1)
	n := 0

	for i, f := range freqs {
		if f < start || f > stop {
			continue
		}

		if db := LogMag(samples[i]); db < low {
			low = db
		}
		n++
	}

	return low, n
}

// LogMag returns the magnitude of a reflection sample in dB.
func LogMag(s complex128) float64 {
	return 20 * math.Log10(cmplx.Abs(s))
}

package mux

import (
	"context"
	"math"
	"testing"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/vna"
)

// fakeScanner is a scripted Scanner standing in for an instrument session.
type fakeScanner struct {
	axis   vna.FrequencyAxis
	result *vna.SweepResult

	resumeErr error
	scanErr   error
	setErr    error
	fetchErr  error

	resumeCalls int
	scanCalls   int
	fetchCalls  int

	setCalls []sweepSetup
}

type sweepSetup struct {
	start, stop float64
	points      int
}

func (f *fakeScanner) Resume() error {
	f.resumeCalls++

	return f.resumeErr
}

func (f *fakeScanner) Scan(ctx context.Context) (*vna.SweepResult, error) {
	f.scanCalls++

	if f.scanErr != nil {
		return nil, f.scanErr
	}

	return f.result, nil
}

func (f *fakeScanner) Frequencies() vna.FrequencyAxis {
	return f.axis
}

func (f *fakeScanner) SetFrequencies(start, stop float64, points int) error {
	f.setCalls = append(f.setCalls, sweepSetup{start: start, stop: stop, points: points})

	if f.setErr != nil {
		return f.setErr
	}

	f.axis = linspace(start, stop, points)

	return nil
}

func (f *fakeScanner) FetchFrequencies() (vna.FrequencyAxis, error) {
	f.fetchCalls++

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	return f.axis, nil
}

func linspace(start, stop float64, n int) vna.FrequencyAxis {
	axis := make(vna.FrequencyAxis, n)
	step := (stop - start) / float64(n-1)
	for i := range axis {
		axis[i] = start + float64(i)*step
	}

	return axis
}

// dipSweep builds a 201-point sweep over 38-67 MHz with a -12 dB dip at
// dipHz. A zero dipHz leaves the spectrum flat at 0 dB.
func dipSweep(t *testing.T, dipHz float64) *vna.SweepResult {
	t.Helper()

	axis := linspace(38e6, 67e6, 201)
	s11 := make([]complex128, len(axis))
	for i := range s11 {
		s11[i] = complex(1, 0)
	}

	if dipHz > 0 {
		nearest := 0
		for i, f := range axis {
			if math.Abs(f-dipHz) < math.Abs(axis[nearest]-dipHz) {
				nearest = i
			}
		}
		s11[nearest] = complex(0.25, 0) // 20*log10(0.25) ~ -12 dB
	}

	return &vna.SweepResult{
		Frequencies: axis,
		S11:         s11,
		S21:         make([]complex128, len(axis)),
	}
}

package vna

import (
	"fmt"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/internal/util"
)

// FrequencyAxis is a strictly increasing list of stimulus frequencies in Hz.
type FrequencyAxis []float64

// Start returns the first axis frequency, or 0 for an empty axis.
func (a FrequencyAxis) Start() float64 {
	if len(a) == 0 {
		return 0
	}

	return a[0]
}

// Stop returns the last axis frequency, or 0 for an empty axis.
func (a FrequencyAxis) Stop() float64 {
	if len(a) == 0 {
		return 0
	}

	return a[len(a)-1]
}

// Points returns the number of axis points.
func (a FrequencyAxis) Points() int { return len(a) }

// Segment is one contiguous slice of the sweep axis, small enough for a
// single scan command.
type Segment struct {
	Start  float64
	Stop   float64
	Points int
}

// validateSpan checks a frequency span for use in sweep commands.
func validateSpan(start, stop float64) error {
	if start <= 0 {
		return fmt.Errorf("%w: start frequency %.0f Hz must be positive", ErrConfig, start)
	}
	if stop <= start {
		return fmt.Errorf("%w: stop frequency %.0f Hz must exceed start %.0f Hz", ErrConfig, stop, start)
	}

	return nil
}

// SetFrequencies defines the sweep axis as points evenly spaced over
// [start, stop] Hz, endpoints included, and programs the device's sweep
// bounds to match.
//
// Scan drives the device segment by segment from the stored axis; the
// programmed bounds keep the device's own continuous sweep on the same band.
func (s *Session) SetFrequencies(start, stop float64, points int) error {
	if err := validateSpan(start, stop); err != nil {
		return err
	}
	if points < 2 {
		return fmt.Errorf("%w: point count %d must be at least 2", ErrConfig, points)
	}

	s.setAxis(util.Linspace(start, stop, points))

	return s.SetSweep(start, stop)
}

// Frequencies returns a copy of the current sweep axis. After a Scan this is
// the realized axis assembled from the per-segment sub-axes.
func (s *Session) Frequencies() FrequencyAxis {
	s.axisMu.RLock()
	defer s.axisMu.RUnlock()

	return util.CloneSlice(s.axis, 0)
}

// FetchFrequencies asks the device for its current sweep axis and adopts it
// as the session axis.
func (s *Session) FetchFrequencies() (FrequencyAxis, error) {
	lines, err := s.Exchange("frequencies")
	if err != nil {
		return nil, err
	}

	axis := s.parseFrequencyLines(lines)
	if len(axis) == 0 {
		return nil, fmt.Errorf("%w: device returned no frequencies", ErrDataIncomplete)
	}

	s.setAxis(axis)

	return util.CloneSlice(axis, 0), nil
}

func (s *Session) setAxis(axis FrequencyAxis) {
	s.axisMu.Lock()
	s.axis = axis
	s.axisMu.Unlock()
}

func (s *Session) currentAxis() FrequencyAxis {
	s.axisMu.RLock()
	defer s.axisMu.RUnlock()

	return s.axis
}

// partitionSegments splits the axis into contiguous segments of at most
// capacity points.
//
// Every segment spans the first and last frequency of its slice of the axis.
// A trailing single-point segment is kept here; the scan engine drops it,
// since a sweep needs at least two points.
func partitionSegments(axis FrequencyAxis, capacity int) []Segment {
	if len(axis) == 0 || capacity < 1 {
		return nil
	}

	segments := make([]Segment, 0, util.CeilDiv(len(axis), capacity))
	for begin := 0; begin < len(axis); begin += capacity {
		end := min(begin+capacity, len(axis))
		segments = append(segments, Segment{
			Start:  axis[begin],
			Stop:   axis[end-1],
			Points: end - begin,
		})
	}

	return segments
}

package vna

import (
	"context"
	"errors"
	"fmt"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/internal/pool"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/internal/util"
)

// SweepResult holds one complete segmented sweep: the realized frequency
// axis and the raw complex samples of both receiver channels.
type SweepResult struct {
	Frequencies FrequencyAxis
	S11         []complex128 // channel 0, reflection
	S21         []complex128 // channel 1, transmission
}

// attemptResult classifies the outcome of a single segment scan attempt so
// the retry loop can decide whether to retry or abort.
type attemptResult int

const (
	attemptOK    attemptResult = iota // Segment data complete.
	attemptShort                      // Short or timed-out data, retryable.
	attemptAbort                      // Transport or state failure, not retryable.
)

// retryBudget returns the per-segment attempt budget: one attempt per ten
// points of capacity, at least one.
func retryBudget(capacity int) int {
	budget := capacity / 10
	if budget < 1 {
		budget = 1
	}

	return budget
}

// Scan runs one full segmented sweep over the session axis.
//
// The axis is partitioned into segments of at most the configured capacity.
// Each segment is scanned with a bounded attempt budget; a segment that
// keeps returning short data fails the whole scan with ErrDataIncomplete
// and no partial result. After the last segment the device's continuous
// sweep is resumed and the realized axis, assembled from the per-segment
// sub-axes, replaces the session axis.
//
// If no axis was set, the device's current axis is fetched first.
func (s *Session) Scan(ctx context.Context) (*SweepResult, error) {
	axis := s.currentAxis()
	if len(axis) == 0 {
		fetched, err := s.FetchFrequencies()
		if err != nil {
			return nil, err
		}
		axis = fetched
	}

	segments := partitionSegments(axis, s.cfg.segmentCapacity)
	attempts := retryBudget(s.cfg.segmentCapacity)

	result := &SweepResult{
		Frequencies: make(FrequencyAxis, 0, len(axis)),
		S11:         make([]complex128, 0, len(axis)),
		S21:         make([]complex128, 0, len(axis)),
	}

	for _, seg := range segments {
		if seg.Points < 2 {
			s.logger.Warn("vna: dropping trailing single-point segment", "start", seg.Start)

			continue
		}

		s11, s21, err := s.scanSegment(ctx, seg, attempts)
		if err != nil {
			s.metrics.incScanErrorCount()

			return nil, err
		}

		result.S11 = append(result.S11, s11...)
		result.S21 = append(result.S21, s21...)
		result.Frequencies = append(result.Frequencies, util.Linspace(seg.Start, seg.Stop, seg.Points)...)

		s.metrics.incSegmentScanCount()
	}

	if err := s.Resume(); err != nil {
		s.logger.Warn("vna: resume after sweep failed", "error", err)
	}

	// The realized axis is authoritative from here on.
	s.setAxis(util.CloneSlice(result.Frequencies, 0))

	s.metrics.incScanCompleteCount()

	return result, nil
}

// scanSegment drives the bounded attempt loop for one segment.
func (s *Session) scanSegment(ctx context.Context, seg Segment, attempts int) ([]complex128, []complex128, error) {
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		s11, s21, result, err := s.attemptSegment(seg)

		switch result {
		case attemptOK:
			return s11, s21, nil

		case attemptShort:
			s.metrics.incSegmentRetryCount()
			s.logger.Warn("vna: segment data short, retrying",
				"start", seg.Start,
				"stop", seg.Stop,
				"points", seg.Points,
				"got0", len(s11),
				"got1", len(s21),
				"attempt", attempt,
				"maxAttempts", attempts,
				"error", err,
			)

			if attempt < attempts {
				if err := s.backoff(ctx); err != nil {
					return nil, nil, err
				}
			}

		case attemptAbort:
			return nil, nil, err
		}
	}

	return nil, nil, fmt.Errorf("%w: segment %.0f-%.0f Hz (%d points) after %d attempts",
		ErrDataIncomplete, seg.Start, seg.Stop, seg.Points, attempts)
}

// attemptSegment performs one scan command plus both channel fetches and
// validates the returned sample counts.
func (s *Session) attemptSegment(seg Segment) ([]complex128, []complex128, attemptResult, error) {
	cmd := fmt.Sprintf("scan %.0f %.0f %d", seg.Start, seg.Stop, seg.Points)
	if err := s.Command(cmd); err != nil {
		return nil, nil, attemptAbort, err
	}

	s11, result, err := s.fetchChannel(0, seg.Points)
	if result != attemptOK {
		return s11, nil, result, err
	}

	s21, result, err := s.fetchChannel(1, seg.Points)
	if result != attemptOK {
		return s11, s21, result, err
	}

	return s11, s21, attemptOK, nil
}

// fetchChannel reads one channel's samples for the segment in flight.
//
// A response timeout is retryable: the device may still be mid-sweep, in
// which case its stale prompt truncates the fetch and the data comes up
// short.
func (s *Session) fetchChannel(channel int, want int) ([]complex128, attemptResult, error) {
	lines, err := s.Exchange(fmt.Sprintf("data %d", channel))
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, attemptShort, err
		}

		return nil, attemptAbort, err
	}

	samples := s.parseComplexLines(lines)
	if len(samples) != want {
		return samples, attemptShort, nil
	}

	return samples, attemptOK, nil
}

// backoff pauses between attempts, honoring context cancellation.
func (s *Session) backoff(ctx context.Context) error {
	d := s.cfg.retryBackoff
	if d <= 0 {
		return nil
	}

	backoffTimer := pool.GetTimer(d)
	defer pool.PutTimer(backoffTimer)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-backoffTimer.C:
		return nil
	}
}

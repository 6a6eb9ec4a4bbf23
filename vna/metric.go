package vna

import (
	"sync/atomic"
)

// SessionMetrics contains atomic metrics for an instrument session.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type SessionMetrics struct {
	// CommandSendCount indicates the number of commands written to the device.
	CommandSendCount atomic.Uint64
	// ResponseRecvCount indicates the number of complete responses received
	// (prompt seen).
	ResponseRecvCount atomic.Uint64
	// LineTimeoutCount indicates the number of line windows that expired
	// without producing a complete line.
	LineTimeoutCount atomic.Uint64
	// ResponseTimeoutCount indicates the number of responses abandoned when
	// the response budget expired.
	ResponseTimeoutCount atomic.Uint64
	// MalformedLineCount indicates the number of response lines the parsers
	// skipped.
	MalformedLineCount atomic.Uint64

	// SegmentScanCount indicates the number of segments scanned successfully.
	SegmentScanCount atomic.Uint64
	// SegmentRetryCount indicates the total number of segment scan retries.
	SegmentRetryCount atomic.Uint64
	// ScanCompleteCount indicates the number of full sweeps completed.
	ScanCompleteCount atomic.Uint64
	// ScanErrorCount indicates the number of sweeps aborted by an error.
	ScanErrorCount atomic.Uint64
}

func (m *SessionMetrics) incCommandSendCount() {
	m.CommandSendCount.Add(1)
}

func (m *SessionMetrics) incResponseRecvCount() {
	m.ResponseRecvCount.Add(1)
}

func (m *SessionMetrics) incLineTimeoutCount() {
	m.LineTimeoutCount.Add(1)
}

func (m *SessionMetrics) incResponseTimeoutCount() {
	m.ResponseTimeoutCount.Add(1)
}

func (m *SessionMetrics) incMalformedLineCount() {
	m.MalformedLineCount.Add(1)
}

func (m *SessionMetrics) incSegmentScanCount() {
	m.SegmentScanCount.Add(1)
}

func (m *SessionMetrics) incSegmentRetryCount() {
	m.SegmentRetryCount.Add(1)
}

func (m *SessionMetrics) incScanCompleteCount() {
	m.ScanCompleteCount.Add(1)
}

func (m *SessionMetrics) incScanErrorCount() {
	m.ScanErrorCount.Add(1)
}

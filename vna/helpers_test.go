package vna

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

var errFakePortClosed = errors.New("fakeport: closed")

// fakePort implements Port over in-memory buffers with the read timeout
// semantics of go.bug.st/serial: a read window that expires with no data
// returns n == 0 and a nil error.
//
// Writes are parsed into CR-terminated commands. Each command is echoed back
// the way the device console does and handed to the script, which feeds the
// response.
type fakePort struct {
	mu      sync.Mutex
	buf     []byte        // pending device→host output
	notify  chan struct{} // signaled on new output or injected error
	timeout time.Duration

	cmdBuf   []byte   // partial host→device command
	commands []string // every command received, in order

	script func(cmd string)
	mute   bool // suppress the console echo

	readErr  error
	writeErr error
	closed   bool

	resetCalls int
}

func newFakePort(script func(cmd string)) *fakePort {
	return &fakePort{
		notify:  make(chan struct{}, 1),
		timeout: DefaultLineTimeout,
		script:  script,
	}
}

func (p *fakePort) Read(buf []byte) (int, error) {
	timer := time.NewTimer(p.getTimeout())
	defer timer.Stop()

	for {
		p.mu.Lock()
		switch {
		case p.readErr != nil:
			err := p.readErr
			p.mu.Unlock()

			return 0, err

		case p.closed:
			p.mu.Unlock()

			return 0, errFakePortClosed

		case len(p.buf) > 0:
			n := copy(buf, p.buf)
			p.buf = p.buf[n:]
			p.mu.Unlock()

			return n, nil
		}
		p.mu.Unlock()

		select {
		case <-p.notify:
		case <-timer.C:
			return 0, nil
		}
	}
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mu.Lock()
	if p.writeErr != nil {
		err := p.writeErr
		p.mu.Unlock()

		return 0, err
	}
	if p.closed {
		p.mu.Unlock()

		return 0, errFakePortClosed
	}

	p.cmdBuf = append(p.cmdBuf, data...)

	var cmds []string
	for {
		idx := bytes.IndexByte(p.cmdBuf, '\r')
		if idx < 0 {
			break
		}
		cmds = append(cmds, string(p.cmdBuf[:idx]))
		p.cmdBuf = p.cmdBuf[idx+1:]
	}
	p.mu.Unlock()

	for _, cmd := range cmds {
		p.mu.Lock()
		p.commands = append(p.commands, cmd)
		mute := p.mute
		p.mu.Unlock()

		if !mute {
			p.feedRaw(cmd + "\r\n") // console echo
		}
		if p.script != nil {
			p.script(cmd)
		}
	}

	return len(data), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wake()

	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	p.timeout = t
	p.mu.Unlock()

	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	p.buf = p.buf[:0]
	p.resetCalls++
	p.mu.Unlock()

	return nil
}

func (p *fakePort) getTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.timeout
}

func (p *fakePort) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// feedRaw appends raw device output.
func (p *fakePort) feedRaw(s string) {
	p.mu.Lock()
	p.buf = append(p.buf, s...)
	p.mu.Unlock()
	p.wake()
}

// feedLines appends CRLF-terminated lines of device output.
func (p *fakePort) feedLines(lines ...string) {
	for _, line := range lines {
		p.feedRaw(line + "\r\n")
	}
}

// feedPrompt appends the console prompt, which carries no line terminator.
func (p *fakePort) feedPrompt() {
	p.feedRaw("ch> ")
}

// feedResponse appends a complete response: data lines then the prompt.
func (p *fakePort) feedResponse(lines ...string) {
	p.feedLines(lines...)
	p.feedPrompt()
}

func (p *fakePort) setReadErr(err error) {
	p.mu.Lock()
	p.readErr = err
	p.mu.Unlock()
	p.wake()
}

func (p *fakePort) setWriteErr(err error) {
	p.mu.Lock()
	p.writeErr = err
	p.mu.Unlock()
}

// commandLog returns a copy of every command received so far.
func (p *fakePort) commandLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.commands))
	copy(out, p.commands)

	return out
}

// --- Session helpers ---

// newTestConfig creates a SessionConfig with short timeouts suitable for
// tests, backed by the given fake port.
func newTestConfig(t *testing.T, port *fakePort, opts ...SessionOption) *SessionConfig {
	t.Helper()

	defaults := []SessionOption{
		WithLineTimeout(MinLineTimeout),         // 10ms
		WithResponseTimeout(MinResponseTimeout), // 100ms
		WithRetryBackoff(0),
		WithSettleDelay(0),
		WithPortOpener(func(device string, baudRate int) (Port, error) {
			return port, nil
		}),
	}

	cfg, err := NewSessionConfig("/dev/ttyTEST", append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestConfig: %v", err)
	}

	return cfg
}

// newTestSession creates an open Session backed by the given fake port.
func newTestSession(t *testing.T, port *fakePort, opts ...SessionOption) *Session {
	t.Helper()

	cfg := newTestConfig(t, port, opts...)

	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("newTestSession: %v", err)
	}

	if err := s.Open(); err != nil {
		t.Fatalf("newTestSession: open: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// newPromptPort creates a fake port whose device answers every command with
// a bare prompt.
func newPromptPort() *fakePort {
	p := newFakePort(nil)
	p.script = func(string) { p.feedPrompt() }

	return p
}

// dataPairs builds n identical "re im" sample lines.
func dataPairs(n int, re, im string) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = re + " " + im
	}

	return lines
}

// freqLines renders an axis as single-value frequency lines.
func freqLines(axis []float64) []string {
	lines := make([]string, len(axis))
	for i, hz := range axis {
		lines[i] = fmt.Sprintf("%.0f", hz)
	}

	return lines
}

// scanPoints extracts the point count argument of a scan command.
func scanPoints(t *testing.T, cmd string) int {
	t.Helper()

	var start, stop, points int
	if _, err := fmt.Sscanf(cmd, "scan %d %d %d", &start, &stop, &points); err != nil {
		t.Fatalf("scanPoints: parse %q: %v", cmd, err)
	}

	return points
}

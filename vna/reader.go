package vna

import (
	"bytes"
	"fmt"
)

// prompt is the console prompt the device prints when a command completes.
// It arrives without a trailing line feed.
const prompt = "ch>"

// maxLineLength bounds a single accumulated line so a stream without line
// terminators cannot grow the buffer unbounded. Oversized content is emitted
// as a line and rejected by the parsers.
const maxLineLength = 8192

// lineReader assembles console lines from the raw serial stream.
//
// Carriage returns are dropped and a line feed completes a line. When prompt
// detection is enabled, the partial line is checked against the prompt
// sentinel after every byte, matching the device's habit of printing the
// prompt without a line terminator.
//
// This type is NOT goroutine-safe. The session serializes access.
type lineReader struct {
	port    Port
	chunk   []byte
	pending []byte // raw bytes read but not yet consumed
	partial []byte // current line under assembly
}

func newLineReader(port Port) *lineReader {
	return &lineReader{
		port:  port,
		chunk: make([]byte, 256),
	}
}

// reset discards any buffered input, typically right after the port input
// buffer has been flushed.
func (r *lineReader) reset() {
	r.pending = r.pending[:0]
	r.partial = r.partial[:0]
}

// readLine returns the next console line.
//
// The returned line has its line terminator stripped. When detectPrompt is
// true and the accumulated partial line ends with the prompt sentinel, the
// sentinel text is returned with the prompt flag set.
//
// A line window that expires with no complete line yields an empty line and
// a nil error; any partial content stays buffered for the next call.
func (r *lineReader) readLine(detectPrompt bool) (line string, isPrompt bool, err error) {
	if detectPrompt && bytes.HasSuffix(r.partial, []byte(prompt)) {
		return r.takePartial(), true, nil
	}

	for {
		for len(r.pending) > 0 {
			c := r.pending[0]
			r.pending = r.pending[1:]

			switch c {
			case '\r':
				// dropped

			case '\n':
				return r.takePartial(), false, nil

			default:
				r.partial = append(r.partial, c)

				if detectPrompt && bytes.HasSuffix(r.partial, []byte(prompt)) {
					return r.takePartial(), true, nil
				}

				if len(r.partial) >= maxLineLength {
					return r.takePartial(), false, nil
				}
			}
		}

		n, err := r.port.Read(r.chunk)
		if err != nil {
			return "", false, fmt.Errorf("%w: read: %w", ErrTransport, err)
		}
		if n == 0 {
			// Line window expired with no data.
			return "", false, nil
		}

		r.pending = append(r.pending, r.chunk[:n]...)
	}
}

func (r *lineReader) takePartial() string {
	line := string(r.partial)
	r.partial = r.partial[:0]

	return line
}

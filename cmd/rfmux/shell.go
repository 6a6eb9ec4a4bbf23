package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/mux"
	"github.com/Scalable-Readout-for-RF-Sensors/HAT-Code/vna"
)

// statusLine renders transient progress in place on one terminal line, so a
// long read-all over a glitchy link does not scroll warnings past the user.
type statusLine struct {
	out     io.Writer
	lastLen int

	infoc *color.Color
	warnc *color.Color
	errc  *color.Color
}

func newStatusLine(out io.Writer) *statusLine {
	return &statusLine{
		out:   out,
		infoc: color.New(color.FgBlue, color.Bold),
		warnc: color.New(color.FgYellow),
		errc:  color.New(color.FgRed, color.Bold),
	}
}

// progress overwrites the current line with a transient message.
func (s *statusLine) progress(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pad := s.lastLen - len(msg)
	if pad < 0 {
		pad = 0
	}
	s.lastLen = len(msg)

	fmt.Fprintf(s.out, "\r%s%s", s.warnc.Sprint(msg), strings.Repeat(" ", pad))
}

// clear ends the transient line so permanent output starts fresh.
func (s *statusLine) clear() {
	if s.lastLen == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.lastLen))
	s.lastLen = 0
}

func (s *statusLine) info(format string, args ...any) {
	s.clear()
	s.infoc.Fprintf(s.out, format+"\n", args...)
}

func (s *statusLine) plain(format string, args ...any) {
	s.clear()
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *statusLine) fail(format string, args ...any) {
	s.clear()
	s.errc.Fprintf(s.out, format+"\n", args...)
}

func runShell(cmd *cobra.Command, session *vna.Session, m *mux.Multiplexer, status *statusLine) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	status.info("RF multiplexer ready (%d ports). Commands: run <port> | run all | save [name] | record [n] | status | quit", m.Size())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for {
		fmt.Fprint(out, ">>> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if line == "" {
			continue
		}

		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "quit", "exit":
			status.plain("bye")

			return nil

		case "run":
			handleRun(ctx, m, status, arg)

		case "save":
			name := arg
			if name == "" {
				name = "snapshot.s1p"
			}
			if err := m.Save(ctx, name); err != nil {
				status.fail("save failed: %v", err)
			} else {
				status.info("snapshot saved as %s", name)
			}

		case "record":
			sweeps := 5
			if arg != "" {
				n, err := strconv.Atoi(arg)
				if err != nil {
					status.fail("record: %q is not a sweep count", arg)

					continue
				}
				sweeps = n
			}
			if err := m.Record(ctx, sweeps); err != nil {
				status.fail("record failed: %v", err)
			} else {
				status.info("recorded %d sweeps", sweeps)
			}

		case "status":
			printStatus(out, session, m, status)

		default:
			status.fail("unknown command %q: use run <port>, run all, save, record, status or quit", verb)
		}
	}
}

func handleRun(ctx context.Context, m *mux.Multiplexer, status *statusLine, arg string) {
	switch {
	case arg == "all":
		results, err := m.ReadAll(ctx)
		if err != nil {
			status.fail("read all aborted: %v", err)

			return
		}

		status.plain("read %d/%d ports:", len(results), m.Size())
		for port := 0; port < m.Size(); port++ {
			if bit, ok := results[port]; ok {
				status.plain("  port %2d: bit %s", port, bit)
			} else {
				status.fail("  port %2d: read failed", port)
			}
		}

	case arg != "":
		port, err := strconv.Atoi(arg)
		if err != nil {
			status.fail("run: %q is not a port number or 'all'", arg)

			return
		}

		bit, err := m.Read(ctx, port)
		if err != nil {
			status.fail("port %d read failed: %v", port, err)

			return
		}
		status.info("port %d: bit %s", port, bit)

	default:
		status.fail("run needs a port number or 'all'")
	}
}

func printStatus(out io.Writer, session *vna.Session, m *mux.Multiplexer, status *statusLine) {
	status.clear()

	device := session.Device()
	if device == "" {
		device = "(not opened)"
	}
	fmt.Fprintf(out, "session: %s, device %s\n", session.State(), device)

	metrics := session.GetMetrics()
	fmt.Fprintf(out, "metrics: %d commands, %d responses, %d retries, %d sweeps (%d failed)\n",
		metrics.CommandSendCount.Load(),
		metrics.ResponseRecvCount.Load(),
		metrics.SegmentRetryCount.Load(),
		metrics.ScanCompleteCount.Load(),
		metrics.ScanErrorCount.Load(),
	)

	results := m.Results()
	if len(results) == 0 {
		fmt.Fprintln(out, "bits: none read yet")

		return
	}

	ports := make([]int, 0, len(results))
	for port := range results {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	for _, port := range ports {
		fmt.Fprintf(out, "  port %2d: bit %s\n", port, results[port])
	}
}

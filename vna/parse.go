package vna

import (
	"fmt"
	"strconv"
	"strings"
)

// parseComplexLines converts "re im" float pair lines into complex samples.
//
// Malformed lines are skipped with a warning so one corrupt line cannot
// poison a whole segment; the length check downstream catches the shortfall.
func (s *Session) parseComplexLines(lines []string) []complex128 {
	out := make([]complex128, 0, len(lines))

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			s.skipMalformedLine(line, "want two fields")

			continue
		}

		re, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			s.skipMalformedLine(line, "bad real part")

			continue
		}

		im, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			s.skipMalformedLine(line, "bad imaginary part")

			continue
		}

		out = append(out, complex(re, im))
	}

	return out
}

// parseFrequencyLines converts single-value frequency lines into an axis.
func (s *Session) parseFrequencyLines(lines []string) FrequencyAxis {
	out := make(FrequencyAxis, 0, len(lines))

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 1 {
			s.skipMalformedLine(line, "want one field")

			continue
		}

		hz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			s.skipMalformedLine(line, "bad frequency")

			continue
		}

		out = append(out, hz)
	}

	return out
}

func (s *Session) skipMalformedLine(line string, reason string) {
	s.metrics.incMalformedLineCount()
	s.logger.Warn("vna: skipping malformed data line", "line", line, "reason", reason)
}

// parseGammaLine extracts the raw integer reflection pair from a gamma
// response and scales it by the reference level.
//
// Lines that are not an integer pair are skipped with a warning, same as
// the sweep data parsers.
func (s *Session) parseGammaLine(lines []string) (complex128, error) {
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			s.skipMalformedLine(line, "want two fields")

			continue
		}

		re, err := strconv.Atoi(fields[0])
		if err != nil {
			s.skipMalformedLine(line, "bad real part")

			continue
		}

		im, err := strconv.Atoi(fields[1])
		if err != nil {
			s.skipMalformedLine(line, "bad imaginary part")

			continue
		}

		return complex(float64(re)/refLevel, float64(im)/refLevel), nil
	}

	return 0, fmt.Errorf("%w: gamma response carried no sample", ErrDataIncomplete)
}

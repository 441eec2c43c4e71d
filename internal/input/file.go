package input

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nvandessel/spikenet/internal/pathutil"
	"github.com/nvandessel/spikenet/internal/snnerr"
)

// DefaultDelimiter separates input lines in a spike file.
const DefaultDelimiter = "\n"

// Parse reads input lines from r. Each delimiter-separated record is one
// input line: a string of '0'/'1' characters, one per tick. Surrounding
// whitespace is trimmed and empty records are skipped.
func Parse(r io.Reader, delimiter string) ([][]int8, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var lines [][]int8
	for n, record := range strings.Split(string(data), delimiter) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		line, err := ParseLine(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ParseLine converts a string of '0'/'1' characters into spike values.
func ParseLine(s string) ([]int8, error) {
	out := make([]int8, 0, len(s))
	for i, r := range s {
		switch r {
		case '0':
			out = append(out, 0)
		case '1':
			out = append(out, 1)
		default:
			return nil, fmt.Errorf("%w: character %q at offset %d", snnerr.ErrMalformedInput, r, i)
		}
	}
	return out, nil
}

// ReadFile parses the input lines of the file at path. A missing or
// unreadable file is a snnerr.ErrConfig.
func ReadFile(path, delimiter string) ([][]int8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening input file %s: %v", snnerr.ErrConfig, pathutil.RedactPath(path), err)
	}
	defer f.Close()

	lines, err := Parse(f, delimiter)
	if err != nil {
		return nil, fmt.Errorf("input file %s: %w", pathutil.RedactPath(path), err)
	}
	return lines, nil
}

// CheckLines reports snnerr.ErrEmptyInputSet when there are no lines or the
// lines carry no ticks, and snnerr.ErrMalformedInput when their lengths
// differ: every source must advance the same number of ticks.
func CheckLines(lines [][]int8) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no input lines", snnerr.ErrEmptyInputSet)
	}
	ticks := len(lines[0])
	for i, l := range lines {
		if len(l) != ticks {
			return fmt.Errorf("%w: input %d has %d ticks, input 0 has %d", snnerr.ErrMalformedInput, i, len(l), ticks)
		}
		for t, v := range l {
			if v != 0 && v != 1 {
				return fmt.Errorf("%w: input %d tick %d has value %d", snnerr.ErrMalformedInput, i, t, v)
			}
		}
	}
	if ticks == 0 {
		return fmt.Errorf("%w: input lines have no ticks", snnerr.ErrEmptyInputSet)
	}
	return nil
}

// Transpose converts a tick-major raster (one row per tick, one column per
// input) into input-major lines, and back.
func Transpose(rows [][]int8) ([][]int8, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, row 0 has %d", snnerr.ErrMalformedInput, i, len(r), width)
		}
	}
	out := make([][]int8, width)
	for c := range out {
		out[c] = make([]int8, len(rows))
		for r := range rows {
			out[c][r] = rows[r][c]
		}
	}
	return out, nil
}

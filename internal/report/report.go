// Package report reads and writes the files a simulation produces: spike
// count files, per-tick rasters and tick-major input arrangements.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/nvandessel/spikenet/internal/input"
	"github.com/nvandessel/spikenet/internal/pathutil"
	"github.com/nvandessel/spikenet/internal/snnerr"
	"github.com/nvandessel/spikenet/internal/spike"
)

// WriteCounts writes one spike count per line, in neuron order.
func WriteCounts(w io.Writer, counts []int) error {
	bw := bufio.NewWriter(w)
	for _, c := range counts {
		if _, err := fmt.Fprintln(bw, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCounts parses a counts file. Blank lines are skipped.
func ReadCounts(r io.Reader) ([]int, error) {
	var counts []int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: line %d: %q is not a spike count", snnerr.ErrMalformedInput, line, s)
		}
		counts = append(counts, n)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading counts: %w", err)
	}
	return counts, nil
}

// CountFile returns the total number of spikes recorded in the counts file
// at path.
func CountFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening counts file %s: %w", pathutil.RedactPath(path), err)
	}
	defer f.Close()

	counts, err := ReadCounts(f)
	if err != nil {
		return 0, fmt.Errorf("counts file %s: %w", pathutil.RedactPath(path), err)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	return total, nil
}

// Recorder accumulates the batches the sink consumes. Its Observe method
// has the shape of output.Observer.
type Recorder struct {
	mu   sync.Mutex
	rows []spike.Batch
}

// Observe records b as the row for tick. Ticks start at 1.
func (r *Recorder) Observe(tick int, b spike.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.rows) < tick {
		r.rows = append(r.rows, nil)
	}
	r.rows[tick-1] = append(spike.Batch(nil), b...)
}

// Rows returns the recorded batches ordered by tick.
func (r *Recorder) Rows() []spike.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]spike.Batch(nil), r.rows...)
}

// Lines returns the raster as strings like "0110", one per tick.
func (r *Recorder) Lines() []string {
	rows := r.Rows()
	out := make([]string, len(rows))
	for i, b := range rows {
		out[i] = b.String()
	}
	return out
}

// WriteRaster writes one line per tick with one character per neuron.
func (r *Recorder) WriteRaster(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, l := range r.Lines() {
		if _, err := fmt.Fprintln(bw, l); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Arrange reads a tick-major raster (one row per tick, one column per
// input) from in and writes the per-input lines a topology consumes.
func Arrange(in io.Reader, out io.Writer) (int, error) {
	rows, err := input.Parse(in, input.DefaultDelimiter)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: raster has no rows", snnerr.ErrEmptyInputSet)
	}
	lines, err := input.Transpose(rows)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(out)
	for _, l := range lines {
		if _, err := fmt.Fprintln(bw, spike.FromValues(l).String()); err != nil {
			return 0, err
		}
	}
	return len(lines), bw.Flush()
}

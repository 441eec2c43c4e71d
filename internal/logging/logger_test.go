package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nvandessel/spikenet/internal/spike"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"Debug", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"info", "DEBUG", "trace"} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false", s)
		}
	}
	for _, s := range []string{"", "warn", "verbose"} {
		if ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = true", s)
		}
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level      string
		logAtTrace bool
		logAtDebug bool
	}{
		{"info", false, false},
		{"debug", false, true},
		{"trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Log(context.Background(), LevelTrace, "trace message")
			logger.Debug("debug message")
			logger.Info("info message")

			out := buf.String()
			if got := strings.Contains(out, "trace message"); got != tt.logAtTrace {
				t.Errorf("trace logged = %v, want %v", got, tt.logAtTrace)
			}
			if got := strings.Contains(out, "debug message"); got != tt.logAtDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.logAtDebug)
			}
			if !strings.Contains(out, "info message") {
				t.Error("info message missing")
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("trace", &buf).Log(context.Background(), LevelTrace, "tick")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}
}

func TestNewEventLogger_InfoReturnsNil(t *testing.T) {
	dir := t.TempDir()
	if el := NewEventLogger(dir, "info", "r1"); el != nil {
		t.Fatal("expected nil at info level")
	}
	if _, err := os.Stat(filepath.Join(dir, EventsFile)); !os.IsNotExist(err) {
		t.Error("events file should not be created at info level")
	}
}

func TestEventLogger_NilSafe(t *testing.T) {
	var el *EventLogger
	el.Log(map[string]any{"event": "x"})
	el.LogTick(1, spike.Zero(2))
	el.Close()
}

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()

	var events []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSONL line %q: %v", sc.Text(), err)
		}
		events = append(events, m)
	}
	return events
}

func TestEventLogger_LogTick(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	el := NewEventLogger(dir, "debug", "run-1")
	if el == nil {
		t.Fatal("expected logger at debug level")
	}

	el.LogTick(1, spike.Batch{spike.New(1, 0), spike.New(0, 1), spike.New(1, 2)})
	el.Close()

	events := readEvents(t, filepath.Join(dir, EventsFile))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev["event"] != "tick" || ev["output"] != "101" || ev["run_id"] != "run-1" {
		t.Errorf("unexpected event %v", ev)
	}
	if ev["tick"] != float64(1) || ev["fired"] != float64(2) {
		t.Errorf("unexpected tick/fired in %v", ev)
	}
	if _, ok := ev["time"]; !ok {
		t.Error("time field missing")
	}
}

func TestEventLogger_DoesNotMutateInput(t *testing.T) {
	el := NewEventLogger(t.TempDir(), "trace", "")
	defer el.Close()

	event := map[string]any{"event": "start"}
	el.Log(event)
	if len(event) != 1 {
		t.Errorf("caller map mutated: %v", event)
	}
}

func TestEventLogger_Concurrent(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLogger(dir, "debug", "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			el.LogTick(i, spike.Zero(3))
		}(i)
	}
	wg.Wait()
	el.Close()

	if got := len(readEvents(t, filepath.Join(dir, EventsFile))); got != 20 {
		t.Errorf("got %d events, want 20", got)
	}
}

func TestEventLogger_CloseTwice(t *testing.T) {
	el := NewEventLogger(t.TempDir(), "debug", "")
	el.Close()
	el.Close()
	el.Log(map[string]any{"event": "after-close"})
}

package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	discover := tm.Begin("discover")
	time.Sleep(2 * time.Millisecond)
	tm.End(discover, "3 files")
	lint := tm.Begin("lint")
	tm.End(lint, "")
	tm.End(42, "ignored")

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(report.Phases))
	}
	if report.Phases[0].Name != "discover" || report.Phases[0].Note != "3 files" {
		t.Fatalf("unexpected phase %+v", report.Phases[0])
	}
	if report.Phases[0].DurationMS < 2 {
		t.Fatalf("duration too small: %v", report.Phases[0].DurationMS)
	}
	if report.WallMS < report.Phases[0].DurationMS {
		t.Fatalf("wall %v shorter than a phase", report.WallMS)
	}

	summary := tm.Summary()
	if !strings.Contains(summary, "discover") || !strings.Contains(summary, "// 3 files") || !strings.Contains(summary, "wall") {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
}

func TestTimerEmpty(t *testing.T) {
	if r := NewTimer().Report(); r.WallMS != 0 || r.Phases != nil {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestTimerConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("file"), "")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 8 {
		t.Fatalf("expected 8 phases, got %d", got)
	}
}

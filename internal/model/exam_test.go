package model

import (
	"testing"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/timing"
)

func TestNormalizeForcesAsyncWithoutWindow(t *testing.T) {
	e := Exam{TimerMode: timing.ModeSync}
	e.Normalize()
	if e.TimerMode != timing.ModeAsync {
		t.Fatalf("exam without availability window must degrade to ASYNC, got %s", e.TimerMode)
	}
}

func TestNormalizeKeepsSyncWithWindow(t *testing.T) {
	start := time.Now()
	end := start.Add(time.Hour)

	e := Exam{TimerMode: timing.ModeSync, AvailabilityStart: &start, AvailabilityEnd: &end}
	e.Normalize()
	if e.TimerMode != timing.ModeSync {
		t.Fatalf("windowed exam must keep SYNC mode, got %s", e.TimerMode)
	}

	// A single bound is still a window; the outer-bound use case for ASYNC
	// exams must not flip modes either.
	e = Exam{TimerMode: timing.ModeAsync, AvailabilityEnd: &end}
	e.Normalize()
	if e.TimerMode != timing.ModeAsync {
		t.Fatalf("ASYNC exam must stay ASYNC, got %s", e.TimerMode)
	}
}

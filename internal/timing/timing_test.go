package timing

import (
	"testing"
	"time"
)

func TestRemainingSecondsSyncMode(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	end := t0.Add(3600 * time.Second)
	s := Settings{
		Mode:              ModeSync,
		DurationMinutes:   90, // Ignored in SYNC mode
		AvailabilityStart: &t0,
		AvailabilityEnd:   &end,
	}

	got := RemainingSeconds(s, t0, 0, t0.Add(3000*time.Second))
	if got != 600 {
		t.Fatalf("expected 600 remaining, got %d", got)
	}

	// Past the shared deadline: floored at zero, never negative.
	got = RemainingSeconds(s, t0, 0, end.Add(5*time.Minute))
	if got != 0 {
		t.Fatalf("expected 0 remaining after window end, got %d", got)
	}
}

func TestRemainingSecondsAsyncMode(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s := Settings{Mode: ModeAsync, DurationMinutes: 60}

	if got := RemainingSeconds(s, t0, 0, t0.Add(3700*time.Second)); got != 0 {
		t.Fatalf("expected 0 remaining past duration, got %d", got)
	}
	if got := RemainingSeconds(s, t0, 0, t0.Add(30*time.Minute)); got != 1800 {
		t.Fatalf("expected 1800 remaining, got %d", got)
	}
}

func TestRemainingSecondsTimeCredit(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s := Settings{Mode: ModeAsync, DurationMinutes: 10}

	// 10 minutes elapsed, 5 minutes of credit: 300s left.
	got := RemainingSeconds(s, t0, 5*time.Minute, t0.Add(10*time.Minute))
	if got != 300 {
		t.Fatalf("expected 300 remaining with credit, got %d", got)
	}
}

func TestDeadlineSyncWithoutEndFallsBackToAsync(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s := Settings{Mode: ModeSync, DurationMinutes: 45}

	want := t0.Add(45 * time.Minute)
	if got := Deadline(s, t0, 0); !got.Equal(want) {
		t.Fatalf("expected fallback deadline %v, got %v", want, got)
	}
}

func TestSubmitAllowed(t *testing.T) {
	cases := []struct {
		name      string
		remaining int
		minTime   int
		want      bool
	}{
		{"no lockout configured", 3000, 0, true},
		{"outside final window", 900, 10, false},
		{"inside final window", 600, 10, true},
		{"exactly at boundary", 600, 10, true},
		{"expired attempt", 0, 10, true},
	}

	for _, tc := range cases {
		if got := SubmitAllowed(tc.remaining, tc.minTime); got != tc.want {
			t.Errorf("%s: SubmitAllowed(%d, %d) = %v, want %v",
				tc.name, tc.remaining, tc.minTime, got, tc.want)
		}
	}
}

package timing

import "time"

// Mode selects how an exam deadline is derived.
type Mode string

const (
	// ModeSync gives every student the same wall-clock deadline:
	// the exam's availability end.
	ModeSync Mode = "SYNC"
	// ModeAsync gives each student a deadline relative to their own start time.
	ModeAsync Mode = "ASYNC"
)

// Settings is the read-only slice of exam configuration the calculator needs.
// It is deliberately decoupled from the storage model so the functions here
// stay pure and trivially testable.
type Settings struct {
	Mode              Mode
	DurationMinutes   int
	MinTimeMinutes    int
	AvailabilityStart *time.Time
	AvailabilityEnd   *time.Time
}

// Deadline returns the wall-clock instant at which an attempt expires.
// credit is extra time granted to the attempt by an administrator (zero for
// normal attempts). A SYNC exam without an availability end falls back to
// the attempt-relative deadline; settings normalization should prevent that
// combination from ever being stored.
func Deadline(s Settings, attemptStart time.Time, credit time.Duration) time.Time {
	if s.Mode == ModeSync && s.AvailabilityEnd != nil {
		return s.AvailabilityEnd.Add(credit)
	}
	return attemptStart.Add(time.Duration(s.DurationMinutes)*time.Minute + credit)
}

// RemainingSeconds computes the authoritative remaining time of an attempt,
// floored at zero. All arithmetic uses the server clock passed in as now —
// client-reported time is never an input here.
func RemainingSeconds(s Settings, attemptStart time.Time, credit time.Duration, now time.Time) int {
	remaining := Deadline(s, attemptStart, credit).Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// SubmitAllowed reports whether the terminal submit action is open.
// A non-zero minTimeMinutes locks submission until the attempt enters its
// final minTimeMinutes window; zero disables the lockout entirely.
func SubmitAllowed(remainingSeconds, minTimeMinutes int) bool {
	return minTimeMinutes == 0 || remainingSeconds <= minTimeMinutes*60
}

// Package shuffle provides the deterministic per-student reordering of
// questions and answer options. The permutation is re-derived from its seed
// on every request and never persisted: a student who reloads or resumes an
// attempt always sees the same order, without an extra storage column.
package shuffle

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// QuestionSeed builds the seed string for a student's question order.
func QuestionSeed(studentID int, examID string) string {
	return fmt.Sprintf("student:%d:exam:%s", studentID, examID)
}

// OptionSeed builds the seed string for one question's option order.
func OptionSeed(studentID int, examID, questionID string) string {
	return fmt.Sprintf("student:%d:exam:%s:question:%s", studentID, examID, questionID)
}

// Shuffle returns a new slice holding a deterministic permutation of items.
// The same (seed, items) pair always yields the same order, across processes
// and restarts. The input slice is never mutated, so concurrent calls on
// shared payloads are safe.
func Shuffle[T any](seed string, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) < 2 {
		return out
	}

	rng := rand.New(rand.NewSource(seedState(seed)))
	// Fisher–Yates, last index down to 1.
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// seedState hashes the seed string into the 64-bit generator state.
// FNV-1a is stable across Go versions; cryptographic strength is not a goal.
func seedState(seed string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return int64(h.Sum64())
}

package shuffle

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
)

func TestShuffleDeterminism(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	first := Shuffle("student:42:exam:abc", items)
	second := Shuffle("student:42:exam:abc", items)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed produced different orders: %v vs %v", first, second)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	items := []string{"A", "B", "C", "D", "E", "F", "G"}

	for i := 0; i < 50; i++ {
		out := Shuffle(fmt.Sprintf("seed-%d", i), items)
		if len(out) != len(items) {
			t.Fatalf("seed-%d: length changed from %d to %d", i, len(items), len(out))
		}

		sorted := append([]string(nil), out...)
		sort.Strings(sorted)
		if !reflect.DeepEqual(sorted, items) {
			t.Fatalf("seed-%d: output %v is not a permutation of input", i, out)
		}
	}
}

func TestShuffleDistinctSeedsDiverge(t *testing.T) {
	items := make([]int, 30)
	for i := range items {
		items[i] = i
	}

	// Statistical, not guaranteed: across many seed pairs, at least most
	// must produce distinct orders.
	same := 0
	const pairs = 100
	for i := 0; i < pairs; i++ {
		a := Shuffle(fmt.Sprintf("left-%d", i), items)
		b := Shuffle(fmt.Sprintf("right-%d", i), items)
		if reflect.DeepEqual(a, b) {
			same++
		}
	}
	if same > 2 {
		t.Fatalf("%d of %d distinct seed pairs collided, shuffle looks degenerate", same, pairs)
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	original := append([]int(nil), items...)

	_ = Shuffle("any-seed", items)

	if !reflect.DeepEqual(items, original) {
		t.Fatalf("input slice was mutated: %v", items)
	}
}

func TestShuffleEdgeCases(t *testing.T) {
	if out := Shuffle("seed", []int{}); len(out) != 0 {
		t.Fatalf("empty input must return empty output, got %v", out)
	}
	if out := Shuffle("seed", []int{7}); len(out) != 1 || out[0] != 7 {
		t.Fatalf("single element must be returned unchanged, got %v", out)
	}
}

func TestShuffleKeysTravelWithValues(t *testing.T) {
	type option struct {
		Key  string
		Text string
	}
	items := []option{
		{"A", "jawaban a"},
		{"B", "jawaban b"},
		{"C", "jawaban c"},
		{"D", "jawaban d"},
	}

	out := Shuffle("student:1:exam:x:question:q1", items)
	for _, o := range out {
		want := "jawaban " + string(o.Key[0]+('a'-'A'))
		if o.Text != want {
			t.Fatalf("key %s detached from its text: got %q", o.Key, o.Text)
		}
	}
}

func TestSeedBuilders(t *testing.T) {
	if got := QuestionSeed(7, "e1"); got != "student:7:exam:e1" {
		t.Fatalf("unexpected question seed %q", got)
	}
	if got := OptionSeed(7, "e1", "q9"); got != "student:7:exam:e1:question:q9" {
		t.Fatalf("unexpected option seed %q", got)
	}
}

package timeline

import (
	"testing"
	"time"

	"campus-relay/internal/store"
)

func msg(id string, offset int) store.Message {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return store.Message{ID: id, CreatedAt: base.Add(time.Duration(offset) * time.Second)}
}

func ids(msgs []store.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeDedupAndOrder(t *testing.T) {
	a := []store.Message{msg("m3", 30), msg("m1", 10)}
	b := []store.Message{msg("m2", 20), msg("m1", 10)}

	got := Merge(a, b)
	if !equalIDs(ids(got), "m1", "m2", "m3") {
		t.Fatalf("merge order = %v", ids(got))
	}
}

func TestMergeCommutativeAndIdempotent(t *testing.T) {
	a := []store.Message{msg("m1", 10), msg("m2", 20)}
	b := []store.Message{msg("m2", 20), msg("m3", 30)}

	ab := Merge(a, b)
	ba := Merge(b, a)
	if !equalIDs(ids(ab), ids(ba)...) {
		t.Fatalf("merge not commutative: %v vs %v", ids(ab), ids(ba))
	}
	again := Merge(ab, b)
	if !equalIDs(ids(again), ids(ab)...) {
		t.Fatalf("merge not idempotent: %v vs %v", ids(again), ids(ab))
	}
}

func TestMergeTiesBreakOnID(t *testing.T) {
	got := Merge([]store.Message{msg("b", 10)}, []store.Message{msg("a", 10)})
	if !equalIDs(ids(got), "a", "b") {
		t.Fatalf("equal timestamps should order by ID, got %v", ids(got))
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil, nil); got != nil {
		t.Fatalf("merging nothing should stay nil, got %v", got)
	}
}

func TestInsertSorted(t *testing.T) {
	tl := []store.Message{msg("m1", 10), msg("m3", 30)}

	tl = InsertSorted(tl, msg("m2", 20))
	if !equalIDs(ids(tl), "m1", "m2", "m3") {
		t.Fatalf("insert order = %v", ids(tl))
	}

	tl = InsertSorted(tl, msg("m2", 20))
	if !equalIDs(ids(tl), "m1", "m2", "m3") {
		t.Fatalf("duplicate insert should be a no-op, got %v", ids(tl))
	}

	tl = InsertSorted(tl, msg("m4", 40))
	if !equalIDs(ids(tl), "m1", "m2", "m3", "m4") {
		t.Fatalf("append order = %v", ids(tl))
	}
}

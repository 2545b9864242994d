package timeline

import (
	"sort"

	"campus-relay/internal/store"
)

// less is the timeline order: ascending by creation time, ID as the
// tie-break so the order is total and stable across merges.
func less(a, b store.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Merge combines two message sets into one timeline, deduplicating by
// message ID and sorting into timeline order. Idempotent and commutative:
// push events and poll results can interleave in any order and converge on
// the same timeline.
func Merge(a, b []store.Message) []store.Message {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]store.Message, 0, len(a)+len(b))
	for _, set := range [2][]store.Message{a, b} {
		for _, m := range set {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) == 0 {
		return nil
	}
	return out
}

// InsertSorted places m into an already-sorted timeline, keeping order. A
// message whose ID is already present leaves the timeline unchanged.
func InsertSorted(timeline []store.Message, m store.Message) []store.Message {
	for _, existing := range timeline {
		if existing.ID == m.ID {
			return timeline
		}
	}
	i := sort.Search(len(timeline), func(i int) bool { return less(m, timeline[i]) })
	timeline = append(timeline, store.Message{})
	copy(timeline[i+1:], timeline[i:])
	timeline[i] = m
	return timeline
}

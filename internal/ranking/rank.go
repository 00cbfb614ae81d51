package ranking

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"subboard/internal/models"
)

// HotBucket is the age step after which a hot rating decays by one more factor.
const HotBucket = 8 * time.Hour

// TimeFactor is floor(age / 8h) + 1, never below 1.
func TimeFactor(createdOn, now time.Time) int {
	age := now.Sub(createdOn)
	if age < 0 {
		return 1
	}
	return int(age/HotBucket) + 1
}

// HotRating divides positive scores down as items age and multiplies
// negative ones, so old downvoted items sink further.
func HotRating(score int, createdOn, now time.Time) int {
	f := TimeFactor(createdOn, now)
	if score < 0 {
		return score * f
	}
	return score / f
}

type entry[T models.HasVotableState] struct {
	item    T
	id      uint
	key     int
	created time.Time
}

// Rank orders items for mode as of now. The input slice is not modified, and
// equal keys are broken by ascending id so repeated calls agree.
func Rank[T models.HasVotableState](items []T, mode Mode, now time.Time) iter.Seq[T] {
	cutoff, hasCutoff := mode.Cutoff(now)

	entries := make([]entry[T], 0, len(items))
	for _, it := range items {
		st := it.VotableState()
		if hasCutoff && st.CreatedOn.Before(cutoff) {
			continue
		}
		e := entry[T]{item: it, id: it.VotableID(), created: st.CreatedOn}
		switch {
		case mode.IsTop():
			e.key = st.Score
		case mode == Hot:
			e.key = HotRating(st.Score, st.CreatedOn, now)
		}
		entries = append(entries, e)
	}

	slices.SortFunc(entries, compareFor[T](mode))

	return func(yield func(T) bool) {
		for _, e := range entries {
			if !yield(e.item) {
				return
			}
		}
	}
}

func compareFor[T models.HasVotableState](mode Mode) func(a, b entry[T]) int {
	byID := func(a, b entry[T]) int { return cmp.Compare(a.id, b.id) }
	switch mode {
	case Newest:
		return func(a, b entry[T]) int {
			if c := b.created.Compare(a.created); c != 0 {
				return c
			}
			return byID(a, b)
		}
	case Oldest:
		return func(a, b entry[T]) int {
			if c := a.created.Compare(b.created); c != 0 {
				return c
			}
			return byID(a, b)
		}
	}
	return func(a, b entry[T]) int {
		if c := cmp.Compare(b.key, a.key); c != 0 {
			return c
		}
		return byID(a, b)
	}
}

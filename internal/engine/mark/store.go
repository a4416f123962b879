package mark

import (
	"fmt"
	"regexp"

	"github.com/dshills/textmark/internal/engine/buffer"
)

// Match is one pattern occurrence in a buffer.
type Match struct {
	Range   buffer.Range // Half-open span of the occurrence
	Ordinal int          // Index within the rule's ordered sequence
}

// String returns a human-readable representation of the match.
func (m Match) String() string {
	return fmt.Sprintf("#%d%s", m.Ordinal, m.Range)
}

// IsZeroWidth returns true for an empty-span match.
// Zero-width matches are permitted and counted.
func (m Match) IsZeroWidth() bool {
	return m.Range.IsEmpty()
}

// Store holds the ordered, non-overlapping match sequence for one
// (rule, buffer) pair, sorted by start offset.
//
// A Store is not internally synchronized. It is exclusively owned by its
// coordinator entry and borrowed mutably for the duration of one update;
// every mutation path leaves it consistent on exit.
type Store struct {
	matches []Match
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Count returns the number of stored matches.
func (s *Store) Count() int {
	return len(s.matches)
}

// At returns the match at index i.
func (s *Store) At(i int) Match {
	return s.matches[i]
}

// ByOrdinal returns the match with the given ordinal, or false if the
// ordinal is out of bounds. Ordinals always equal slice indices, so this
// is a direct lookup.
func (s *Store) ByOrdinal(ordinal int) (Match, bool) {
	if ordinal < 0 || ordinal >= len(s.matches) {
		return Match{}, false
	}
	return s.matches[ordinal], true
}

// Matches returns a copy of the stored match sequence.
func (s *Store) Matches() []Match {
	out := make([]Match, len(s.matches))
	copy(out, s.matches)
	return out
}

// Ranges returns a copy of the stored ranges in order.
func (s *Store) Ranges() []buffer.Range {
	out := make([]buffer.Range, len(s.matches))
	for i, m := range s.matches {
		out[i] = m.Range
	}
	return out
}

// LookupIntersecting returns the contiguous index run [lo, hi) of matches
// intersecting the given span padded by one byte on each side. The padding
// is the adjacency policy: a match ending exactly at an edit boundary may
// change when text is inserted there, so adjacent matches are treated as
// intersecting.
//
// When no match intersects, lo == hi is the correct insertion point for new
// matches at the span's position.
//
// The probe is a two-phase algorithm: a binary search locates any one
// intersecting match, then linear walks in both directions extend it to the
// maximal contiguous run. Binary search is valid because the sequence is
// sorted and non-overlapping; the walk-out stays linear because intersecting
// runs are expected to be short (edits are local).
func (s *Store) LookupIntersecting(span buffer.Range) (int, int) {
	padded := span.Pad(1)

	i, j := 0, len(s.matches)
	found := -1
	for i < j {
		mid := int(uint(i+j) >> 1)
		m := s.matches[mid].Range
		switch {
		case m.End < padded.Start:
			// Entirely before the span: move right.
			i = mid + 1
		case m.Start > padded.End:
			// Entirely after the span: move left.
			j = mid
		default:
			found = mid
		}
		if found >= 0 {
			break
		}
	}

	if found < 0 {
		// i == j is the index of the first match entirely after the span.
		return i, i
	}

	lo := found
	for lo > 0 && s.matches[lo-1].Range.End >= padded.Start {
		lo--
	}
	hi := found + 1
	for hi < len(s.matches) && s.matches[hi].Range.Start <= padded.End {
		hi++
	}
	return lo, hi
}

// Splice removes matches at indices [lo, hi) and inserts newMatches in
// their place, then renumbers ordinals. The caller guarantees newMatches is
// sorted and does not overlap its post-splice neighbors; the rescanner
// guarantees this by constructing the rescan window to fully contain all
// merged neighbors.
func (s *Store) Splice(lo, hi int, newMatches []Match) {
	tail := s.matches[hi:]
	merged := make([]Match, 0, lo+len(newMatches)+len(tail))
	merged = append(merged, s.matches[:lo]...)
	merged = append(merged, newMatches...)
	merged = append(merged, tail...)
	s.matches = merged
	s.renumber()
}

// ShiftFrom shifts the ranges of all matches at index >= idx by delta.
// Used to carry trailing matches across an edit's length change.
func (s *Store) ShiftFrom(idx int, delta buffer.ByteOffset) {
	if delta == 0 {
		return
	}
	for i := idx; i < len(s.matches); i++ {
		s.matches[i].Range = s.matches[i].Range.Shift(delta)
	}
}

// Rebuild replaces the entire sequence with a full left-to-right scan of
// text, stopping once max matches are found. Matches past the cap are
// simply absent, not an error. A max of zero or less means no cap.
func (s *Store) Rebuild(text string, re *regexp.Regexp, max int) int {
	limit := max
	if limit <= 0 {
		limit = -1
	}

	locs := re.FindAllStringIndex(text, limit)
	s.matches = s.matches[:0]
	for i, loc := range locs {
		s.matches = append(s.matches, Match{
			Range:   buffer.NewRange(buffer.ByteOffset(loc[0]), buffer.ByteOffset(loc[1])),
			Ordinal: i,
		})
	}
	return len(s.matches)
}

// Clear removes all matches.
func (s *Store) Clear() {
	s.matches = s.matches[:0]
}

// Validate checks the store invariants: sorted by start offset, pairwise
// non-overlapping, ordinals equal to indices. A violation is a
// data-integrity fault in the engine's bookkeeping, never user error.
func (s *Store) Validate() error {
	for i, m := range s.matches {
		if !m.Range.IsValid() {
			return fmt.Errorf("match %d has invalid range %s", i, m.Range)
		}
		if m.Ordinal != i {
			return fmt.Errorf("match %d has ordinal %d", i, m.Ordinal)
		}
		if i > 0 && s.matches[i-1].Range.End > m.Range.Start {
			return fmt.Errorf("matches %d and %d overlap: %s, %s",
				i-1, i, s.matches[i-1].Range, m.Range)
		}
	}
	return nil
}

// renumber re-assigns ordinals to match slice indices.
func (s *Store) renumber() {
	for i := range s.matches {
		s.matches[i].Ordinal = i
	}
}

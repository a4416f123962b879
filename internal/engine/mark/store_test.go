package mark

import (
	"regexp"
	"testing"

	"github.com/dshills/textmark/internal/engine/buffer"
)

func storeWith(ranges ...buffer.Range) *Store {
	s := NewStore()
	for i, r := range ranges {
		s.matches = append(s.matches, Match{Range: r, Ordinal: i})
	}
	return s
}

func TestStoreRebuild(t *testing.T) {
	s := NewStore()
	re := regexp.MustCompile("foo")

	n := s.Rebuild("foo bar foo", re, 0)
	if n != 2 {
		t.Fatalf("expected 2 matches, got %d", n)
	}

	want := []buffer.Range{buffer.NewRange(0, 3), buffer.NewRange(8, 11)}
	for i, w := range want {
		if got := s.At(i).Range; got != w {
			t.Errorf("match %d: expected %s, got %s", i, w, got)
		}
		if s.At(i).Ordinal != i {
			t.Errorf("match %d: expected ordinal %d, got %d", i, i, s.At(i).Ordinal)
		}
	}
}

func TestStoreRebuildCap(t *testing.T) {
	s := NewStore()
	re := regexp.MustCompile("a")

	n := s.Rebuild("aaa", re, 1)
	if n != 1 {
		t.Fatalf("expected 1 match, got %d", n)
	}

	if got := s.At(0).Range; got != buffer.NewRange(0, 1) {
		t.Errorf("expected [0:1), got %s", got)
	}
}

func TestStoreRebuildZeroWidth(t *testing.T) {
	s := NewStore()
	re := regexp.MustCompile("x*")

	// Zero-width matches are permitted and counted.
	n := s.Rebuild("ab", re, 0)
	if n != 3 {
		t.Fatalf("expected 3 matches, got %d", n)
	}

	if !s.At(0).IsZeroWidth() {
		t.Error("expected zero-width match at offset 0")
	}
}

func TestStoreRebuildReplacesPrevious(t *testing.T) {
	s := NewStore()
	re := regexp.MustCompile("a")

	s.Rebuild("aaa", re, 0)
	n := s.Rebuild("b", re, 0)
	if n != 0 || s.Count() != 0 {
		t.Errorf("expected empty store after rebuild, got %d", s.Count())
	}
}

func TestLookupIntersectingMiddle(t *testing.T) {
	s := storeWith(
		buffer.NewRange(0, 3),
		buffer.NewRange(10, 13),
		buffer.NewRange(20, 23),
	)

	lo, hi := s.LookupIntersecting(buffer.NewRange(11, 12))
	if lo != 1 || hi != 2 {
		t.Errorf("expected [1, 2), got [%d, %d)", lo, hi)
	}
}

func TestLookupIntersectingAdjacency(t *testing.T) {
	s := storeWith(
		buffer.NewRange(0, 3),
		buffer.NewRange(10, 13),
	)

	// An edit at offset 3 is adjacent to the first match; the one-byte
	// padding treats it as intersecting.
	lo, hi := s.LookupIntersecting(buffer.NewRange(3, 3))
	if lo != 0 || hi != 1 {
		t.Errorf("expected [0, 1), got [%d, %d)", lo, hi)
	}

	// One byte further out, padding still reaches the match.
	lo, hi = s.LookupIntersecting(buffer.NewRange(4, 4))
	if lo != 0 || hi != 1 {
		t.Errorf("expected [0, 1), got [%d, %d)", lo, hi)
	}

	// Two bytes out is no longer adjacent.
	lo, hi = s.LookupIntersecting(buffer.NewRange(5, 5))
	if lo != 1 || hi != 1 {
		t.Errorf("expected empty run at 1, got [%d, %d)", lo, hi)
	}
}

func TestLookupIntersectingNoHit(t *testing.T) {
	s := storeWith(
		buffer.NewRange(0, 3),
		buffer.NewRange(10, 13),
		buffer.NewRange(20, 23),
	)

	tests := []struct {
		span   buffer.Range
		insert int
	}{
		{buffer.NewRange(6, 7), 1},
		{buffer.NewRange(16, 17), 2},
		{buffer.NewRange(30, 31), 3},
	}

	for _, tt := range tests {
		lo, hi := s.LookupIntersecting(tt.span)
		if lo != hi {
			t.Errorf("span %s: expected empty run, got [%d, %d)", tt.span, lo, hi)
		}
		if lo != tt.insert {
			t.Errorf("span %s: expected insertion point %d, got %d", tt.span, tt.insert, lo)
		}
	}
}

func TestLookupIntersectingRun(t *testing.T) {
	s := storeWith(
		buffer.NewRange(0, 3),
		buffer.NewRange(5, 8),
		buffer.NewRange(10, 13),
		buffer.NewRange(30, 33),
	)

	// A span covering the middle three; the walk-out finds the maximal run.
	lo, hi := s.LookupIntersecting(buffer.NewRange(2, 11))
	if lo != 0 || hi != 3 {
		t.Errorf("expected [0, 3), got [%d, %d)", lo, hi)
	}
}

func TestLookupIntersectingEmptyStore(t *testing.T) {
	s := NewStore()

	lo, hi := s.LookupIntersecting(buffer.NewRange(5, 9))
	if lo != 0 || hi != 0 {
		t.Errorf("expected [0, 0), got [%d, %d)", lo, hi)
	}
}

func TestStoreSplice(t *testing.T) {
	s := storeWith(
		buffer.NewRange(0, 3),
		buffer.NewRange(10, 13),
		buffer.NewRange(20, 23),
	)

	s.Splice(1, 2, []Match{
		{Range: buffer.NewRange(9, 12)},
		{Range: buffer.NewRange(14, 16)},
	})

	if s.Count() != 4 {
		t.Fatalf("expected 4 matches, got %d", s.Count())
	}

	want := []buffer.Range{
		buffer.NewRange(0, 3),
		buffer.NewRange(9, 12),
		buffer.NewRange(14, 16),
		buffer.NewRange(20, 23),
	}
	for i, w := range want {
		if got := s.At(i); got.Range != w || got.Ordinal != i {
			t.Errorf("match %d: expected %s ordinal %d, got %s ordinal %d",
				i, w, i, got.Range, got.Ordinal)
		}
	}

	if err := s.Validate(); err != nil {
		t.Errorf("store should be valid after splice: %v", err)
	}
}

func TestStoreSpliceRemoveAll(t *testing.T) {
	s := storeWith(buffer.NewRange(0, 3), buffer.NewRange(5, 8))

	s.Splice(0, 2, nil)
	if s.Count() != 0 {
		t.Errorf("expected empty store, got %d", s.Count())
	}
}

func TestStoreShiftFrom(t *testing.T) {
	s := storeWith(
		buffer.NewRange(0, 3),
		buffer.NewRange(10, 13),
		buffer.NewRange(20, 23),
	)

	s.ShiftFrom(1, 5)

	if got := s.At(0).Range; got != buffer.NewRange(0, 3) {
		t.Errorf("match 0 should not shift, got %s", got)
	}
	if got := s.At(1).Range; got != buffer.NewRange(15, 18) {
		t.Errorf("expected [15:18), got %s", got)
	}
	if got := s.At(2).Range; got != buffer.NewRange(25, 28) {
		t.Errorf("expected [25:28), got %s", got)
	}
}

func TestStoreByOrdinal(t *testing.T) {
	s := storeWith(buffer.NewRange(0, 3), buffer.NewRange(5, 8))

	m, ok := s.ByOrdinal(1)
	if !ok || m.Range != buffer.NewRange(5, 8) {
		t.Errorf("expected [5:8), got %v ok=%v", m, ok)
	}

	if _, ok := s.ByOrdinal(2); ok {
		t.Error("out-of-bounds ordinal should return false")
	}
	if _, ok := s.ByOrdinal(-1); ok {
		t.Error("negative ordinal should return false")
	}
}

func TestStoreValidate(t *testing.T) {
	s := storeWith(buffer.NewRange(0, 5), buffer.NewRange(3, 8))
	if err := s.Validate(); err == nil {
		t.Error("overlapping matches should fail validation")
	}

	s = storeWith(buffer.NewRange(0, 3), buffer.NewRange(5, 8))
	s.matches[1].Ordinal = 7
	if err := s.Validate(); err == nil {
		t.Error("bad ordinal should fail validation")
	}

	s = storeWith(buffer.NewRange(0, 3), buffer.NewRange(3, 6))
	if err := s.Validate(); err != nil {
		t.Errorf("touching matches are legal: %v", err)
	}
}

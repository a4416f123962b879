package buffer

import "fmt"

// Range represents a byte range in the buffer.
// Start is inclusive, End is exclusive: [Start, End).
type Range struct {
	Start ByteOffset // Inclusive start position
	End   ByteOffset // Exclusive end position
}

// NewRange creates a new Range from start and end offsets.
func NewRange(start, end ByteOffset) Range {
	return Range{Start: start, End: end}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}

// Len returns the length of the range in bytes.
func (r Range) Len() ByteOffset {
	return r.End - r.Start
}

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsValid returns true if the range is valid (Start <= End).
func (r Range) IsValid() bool {
	return r.Start <= r.End
}

// Contains returns true if the given offset is within the range.
func (r Range) Contains(offset ByteOffset) bool {
	return offset >= r.Start && offset < r.End
}

// ContainsRange returns true if the given range is entirely within this range.
func (r Range) ContainsRange(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Overlaps returns true if this range overlaps with another range.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Touches returns true if this range overlaps or is directly adjacent to
// another range. Unlike Overlaps, empty ranges at a shared boundary count.
func (r Range) Touches(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Intersect returns the intersection of two ranges, or an empty range if they don't overlap.
func (r Range) Intersect(other Range) Range {
	start := r.Start
	if other.Start > start {
		start = other.Start
	}
	end := r.End
	if other.End < end {
		end = other.End
	}
	if start >= end {
		return Range{Start: start, End: start}
	}
	return Range{Start: start, End: end}
}

// Union returns the smallest range that contains both ranges.
func (r Range) Union(other Range) Range {
	start := r.Start
	if other.Start < start {
		start = other.Start
	}
	end := r.End
	if other.End > end {
		end = other.End
	}
	return Range{Start: start, End: end}
}

// Shift returns a new range shifted by the given delta.
func (r Range) Shift(delta ByteOffset) Range {
	return Range{
		Start: r.Start + delta,
		End:   r.End + delta,
	}
}

// Clamp returns the range restricted to [0, max].
func (r Range) Clamp(max ByteOffset) Range {
	start := r.Start
	if start < 0 {
		start = 0
	}
	if start > max {
		start = max
	}
	end := r.End
	if end > max {
		end = max
	}
	if end < start {
		end = start
	}
	return Range{Start: start, End: end}
}

// Pad returns the range widened by n bytes on each side.
// The result is not clamped to any buffer bounds.
func (r Range) Pad(n ByteOffset) Range {
	return Range{Start: r.Start - n, End: r.End + n}
}

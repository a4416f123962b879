package mark

import (
	"log"
	"regexp"

	"github.com/dshills/textmark/internal/engine/buffer"
)

// Rescanner recomputes the affected portion of a Store after a localized
// edit, re-matching only a small edit-local window instead of the whole
// document.
type Rescanner struct {
	logger *log.Logger
}

// NewRescanner creates a rescanner. A nil logger uses the default logger
// for data-integrity diagnostics.
func NewRescanner(logger *log.Logger) *Rescanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Rescanner{logger: logger}
}

// Update reconciles store with one edit. It must be called after the edit
// has been applied to buf: the store still holds pre-edit ranges, while buf
// holds the post-edit text.
//
// The algorithm:
//  1. Pad the edit's old range by one byte on each side (candidate span).
//  2. Find the maximal contiguous run [lo, hi) of stored matches
//     intersecting the candidate span, and union their ranges with it.
//  3. Carry the edit's length change into the union span and snap it
//     outward to whole-line boundaries in the post-edit buffer, so
//     re-matching never cuts a line mid-way. Snapping happens against the
//     post-edit line layout, which keeps a line joined by a deleted line
//     break inside the window.
//  4. Widen [lo, hi) to cover any stored match the snapped window now
//     touches, grow the window to fully contain every widened match,
//     re-snap, and repeat until both are stable. A multi-line match pulled
//     in at either end extends the window past the lines the edit touched.
//  5. Re-run the pattern over the window only, translating match offsets
//     back to buffer-global offsets, stopping once the global occurrence
//     count reaches max. When the cap makes the windowed result diverge
//     from a capped full scan, fall back to a full rebuild.
//  6. Shift trailing matches by the edit's delta and splice the new
//     matches into [lo, hi).
//
// Returns the new total match count.
func (r *Rescanner) Update(store *Store, edit buffer.Edit, buf *buffer.Buffer, re *regexp.Regexp, max int) int {
	delta := edit.Delta()

	// Candidate span and intersecting run, in pre-edit coordinates.
	lo, hi := store.LookupIntersecting(edit.Range)
	union := edit.Range.Pad(1)
	for i := lo; i < hi; i++ {
		union = union.Union(store.At(i).Range)
	}

	// Map the union span into post-edit coordinates. Its start lies at or
	// before the edit start and its end at or after the edit end, so only
	// the end moves by delta.
	unionNew := buffer.Range{Start: union.Start, End: union.End + delta}.Clamp(buf.Len())

	snapStart, snapEnd := snapLines(buf, unionNew)

	// Line snapping can pull stored matches beyond the intersecting run
	// into the window. Widen the removal run so the splice never duplicates
	// a match the window scan will re-find, then grow the window to fully
	// contain each widened match and re-snap; iterate until neither moves.
	// Matches before the run keep their offsets across the edit; matches
	// after it sit past the edit's old range and shift by delta. Zero-width
	// matches sitting exactly on a window boundary are re-found by the
	// window scan, so they count as inside; a non-empty match ending
	// exactly at the window start or starting exactly at the window end
	// stays outside.
	for {
		preSnapEnd := snapEnd - delta
		prevLo, prevHi := lo, hi
		for lo > 0 {
			m := store.At(lo - 1).Range
			if m.End > snapStart || m.Start >= snapStart {
				lo--
				continue
			}
			break
		}
		for hi < store.Count() {
			m := store.At(hi).Range
			if m.Start < preSnapEnd || (m.IsEmpty() && m.Start == preSnapEnd) {
				hi++
				continue
			}
			break
		}
		if lo == prevLo && hi == prevHi {
			break
		}

		win := buffer.Range{Start: snapStart, End: snapEnd}
		for i := lo; i < prevLo; i++ {
			win = win.Union(store.At(i).Range)
		}
		for i := prevHi; i < hi; i++ {
			win = win.Union(store.At(i).Range.Shift(delta))
		}
		snapStart, snapEnd = snapLines(buf, win.Clamp(buf.Len()))
	}

	// Existing matches outside [lo, hi) count against the cap.
	outside := store.Count() - (hi - lo)
	limit := -1
	if max > 0 {
		limit = max - outside
		if limit < 0 {
			limit = 0
		}
	}

	// Scan one past the allowance so an over-full window is detectable.
	scanLimit := limit
	if scanLimit >= 0 {
		scanLimit++
	}

	var newMatches []Match
	overflow := false
	window := buf.TextRange(snapStart, snapEnd)
	locs := re.FindAllStringIndex(window, scanLimit)
	if limit >= 0 && len(locs) > limit {
		overflow = true
		locs = locs[:limit]
	}
	for _, loc := range locs {
		newMatches = append(newMatches, Match{
			Range: buffer.NewRange(
				snapStart+buffer.ByteOffset(loc[0]),
				snapStart+buffer.ByteOffset(loc[1]),
			),
		})
	}

	// A capped store cannot always be reconciled locally: matches past the
	// cap are invisible, so a removal from a full store may have to
	// resurrect one, and an over-full window displaces trailing matches a
	// capped left-to-right scan would not keep. Both cases fall back to a
	// full rebuild.
	if max > 0 {
		wasFull := store.Count() >= max
		newTotal := outside + len(newMatches)
		if (wasFull && newTotal < max) || (overflow && hi < store.Count()) {
			return store.Rebuild(buf.Text(), re, max)
		}
	}

	store.ShiftFrom(hi, delta)
	store.Splice(lo, hi, newMatches)

	if err := store.Validate(); err != nil {
		// Bookkeeping fault: log and keep serving the data we have. The
		// editing flow is never interrupted by internal integrity errors.
		r.logger.Printf("mark: store integrity violation after rescan: %v", err)
	}

	return store.Count()
}

// snapLines widens a post-edit span outward to whole-line boundaries: the
// start of the first spanned line through the start of the line after the
// last spanned line.
func snapLines(buf *buffer.Buffer, span buffer.Range) (buffer.ByteOffset, buffer.ByteOffset) {
	start := buf.LineStartOffset(buf.LineForOffset(span.Start))
	endLine := buf.LineForOffset(span.End)
	end := buf.Len()
	if endLine+1 < buf.LineCount() {
		end = buf.LineStartOffset(endLine + 1)
	}
	return start, end
}

// Package mark implements the incremental occurrence tracking core: an
// ordered, non-overlapping interval set of pattern matches over one buffer,
// kept current across edits without rescanning the whole document.
//
// Store is the interval set for one (rule, buffer) pair. Its invariant:
// ranges are sorted by start offset, pairwise non-overlapping, and exactly
// equal to a left-to-right scan of the rule's pattern over the buffer's
// current text, up to the occurrence cap.
//
// Rescanner is the incremental engine. Given one edit it binary-searches the
// store for invalidated matches, merges the invalidated span with its
// neighbors' textual context, re-matches exactly that line-snapped window,
// and splices the results back in.
//
// Known limitation: re-matching is line-aligned, so a pattern spanning the
// re-scan window boundary is matched against the window text only. The
// window always covers whole lines of the post-edit buffer, which also
// covers lines joined by a deleted line break.
package mark

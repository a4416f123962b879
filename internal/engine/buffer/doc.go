// Package buffer provides the text buffer used by the occurrence tracking
// engine.
//
// A Buffer holds the full text of one document together with a line-start
// index for fast offset/point conversion. Positions are byte offsets
// (ByteOffset) into the text; Point gives the equivalent line/column form.
// Ranges are half-open: [Start, End).
//
// Edits are expressed as a single contiguous replacement (Edit) and applied
// with ApplyEdit, which reports the old and new ranges so trackers can
// reconcile derived state. The buffer itself never diffs text; consumers
// re-read affected regions after an edit.
//
// All Buffer methods are safe for concurrent use. Line endings are
// normalized to LF on load and on every edit.
package buffer

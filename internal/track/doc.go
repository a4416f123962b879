// Package track coordinates rule lifecycles over the incremental matching
// core and publishes occurrence state to downstream consumers.
//
// The Coordinator owns the per-rule interval stores for the active buffer
// and decides, on every rule-set change, whether a rule needs nothing, a
// restyle, or a full rebuild. Edit notifications route to the mark
// rescanner. Filename filters and pattern compilation are evaluated per
// rule, and failures degrade that rule to zero occurrences without
// touching any other rule.
//
// The Publisher is the external boundary: serialized occurrence lists with
// line snapshots, counts, and a jump-to-ordinal lookup. Nothing in this
// package renders; consumers subscribe to the publisher's broadcaster.
package track

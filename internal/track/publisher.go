package track

import (
	"github.com/dshills/textmark/internal/engine/buffer"
	"github.com/dshills/textmark/internal/engine/mark"
	"github.com/dshills/textmark/internal/notify"
)

// Occurrence is one match serialized for consumers outside the engine:
// the lines it spans, a snapshot of the first spanned line, and intra-line
// offsets relative to that line's start.
type Occurrence struct {
	Ordinal   int    // Index within the rule's ordered sequence
	StartLine uint32 // First spanned line (0-indexed)
	EndLine   uint32 // Last spanned line (0-indexed)
	LineText  string // Snapshot of the first spanned line
	StartCol  int64  // Start offset relative to the first spanned line
	EndCol    int64  // End-exclusive offset relative to the first spanned line
}

// OccurrenceSet is the published state of one rule: its current count and
// full ordered occurrence list. Consumers may persist or transmit it; the
// engine treats it as a value, not a stored format.
type OccurrenceSet struct {
	RuleID      string
	Count       int
	Occurrences []Occurrence
}

// Publisher serializes match ranges and reports them outward through a
// broadcaster. Every rescan, rebuild, and clear publishes, including the
// zero-occurrence case, so downstream renderers always converge on current
// state.
type Publisher struct {
	broadcaster *notify.Broadcaster[OccurrenceSet]
}

// NewPublisher creates a publisher over the given broadcaster.
func NewPublisher(b *notify.Broadcaster[OccurrenceSet]) *Publisher {
	return &Publisher{broadcaster: b}
}

// Broadcaster returns the underlying broadcaster for subscribing.
func (p *Publisher) Broadcaster() *notify.Broadcaster[OccurrenceSet] {
	return p.broadcaster
}

// Snapshot serializes a store against its buffer without broadcasting.
// Callers that hold locks over the store build the snapshot first and
// broadcast it once the locks are released.
func (p *Publisher) Snapshot(ruleID string, store *mark.Store, buf *buffer.Buffer) OccurrenceSet {
	set := OccurrenceSet{
		RuleID:      ruleID,
		Count:       store.Count(),
		Occurrences: make([]Occurrence, 0, store.Count()),
	}

	for i := 0; i < store.Count(); i++ {
		m := store.At(i)
		start := buf.OffsetToPoint(m.Range.Start)
		end := buf.OffsetToPoint(m.Range.End)
		lineText, lineStart := buf.LineAt(start.Line)

		set.Occurrences = append(set.Occurrences, Occurrence{
			Ordinal:   m.Ordinal,
			StartLine: start.Line,
			EndLine:   end.Line,
			LineText:  lineText,
			StartCol:  m.Range.Start - lineStart,
			EndCol:    m.Range.End - lineStart,
		})
	}

	return set
}

// Publish broadcasts a prebuilt occurrence set under its rule ID.
func (p *Publisher) Publish(set OccurrenceSet) {
	p.broadcaster.Publish(set.RuleID, set)
}

// PublishStore serializes a store against its buffer and broadcasts it.
func (p *Publisher) PublishStore(ruleID string, store *mark.Store, buf *buffer.Buffer) {
	p.Publish(p.Snapshot(ruleID, store, buf))
}

// PublishEmpty broadcasts the zero-occurrence state for a rule.
func (p *Publisher) PublishEmpty(ruleID string) {
	p.Publish(OccurrenceSet{RuleID: ruleID})
}

// Current returns the last published state for a rule.
func (p *Publisher) Current(ruleID string) (OccurrenceSet, bool) {
	return p.broadcaster.Last(ruleID)
}

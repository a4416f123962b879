package track

import (
	"log"
	"regexp"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/textmark/internal/engine/buffer"
	"github.com/dshills/textmark/internal/engine/mark"
	"github.com/dshills/textmark/internal/notify"
	"github.com/dshills/textmark/internal/rule"
)

// entry is the tracked state for one (rule, buffer) pair. An entry exists
// only while the pair is in the Tracked state; Absent pairs have no entry.
type entry struct {
	rule  rule.Rule
	re    *regexp.Regexp // nil when the pattern or a filter rejected the rule
	store *mark.Store
}

// Coordinator owns one interval store per enabled rule for the active
// buffer. It classifies rule-set changes into no-op, cosmetic-only, and
// content-affecting work, routes edit notifications to the rescanner, and
// publishes occurrence state after every change.
//
// One Coordinator tracks one active buffer at a time. Edit notifications
// are serialized by an internal mutex; distinct buffers belong to distinct
// Coordinators and share no mutable state. Occurrence sets are snapshotted
// under the mutex but broadcast after it is released, so observers may call
// back into the coordinator.
type Coordinator struct {
	mu sync.Mutex

	buf       *buffer.Buffer
	rules     []rule.Rule
	entries   map[string]*entry
	rescanner *mark.Rescanner
	publisher *Publisher
	logger    *log.Logger

	// Cooperative advisory flag: while set, rescans and rebuilds are
	// silently skipped, never queued. The next triggering event after
	// unlock re-requests an update, so events coalesce rather than race
	// an in-flight rule persistence write.
	locked atomic.Bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for integrity diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithPublisher sets the occurrence publisher.
func WithPublisher(p *Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// NewCoordinator creates a coordinator with no active buffer.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		entries: make(map[string]*entry),
		logger:  log.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.publisher == nil {
		c.publisher = NewPublisher(notify.New[OccurrenceSet]())
	}
	c.rescanner = mark.NewRescanner(c.logger)

	return c
}

// Publisher returns the coordinator's occurrence publisher.
func (c *Coordinator) Publisher() *Publisher {
	return c.publisher
}

// Locked returns the advisory lock state.
func (c *Coordinator) Locked() bool {
	return c.locked.Load()
}

// SetLocked sets the advisory lock. Callers set it around rule persistence
// writes and clear it when the write completes.
func (c *Coordinator) SetLocked(locked bool) {
	c.locked.Store(locked)
}

// SetBuffer activates a buffer, discarding all state tracked for the
// previous one. A nil buffer deactivates tracking: every rule's store is
// discarded and zero occurrences are published.
func (c *Coordinator) SetBuffer(buf *buffer.Buffer) {
	c.mu.Lock()
	c.buf = buf
	c.entries = make(map[string]*entry)

	var sets []OccurrenceSet
	if buf == nil {
		for _, r := range c.rules {
			sets = append(sets, OccurrenceSet{RuleID: r.ID})
		}
	} else {
		sets = c.rebuildAll(c.rules)
	}
	c.mu.Unlock()

	c.publish(sets)
}

// NotifyRuleSetChanged applies a new ordered enabled-rule list. Each rule
// is classified as no-op (nothing to do), cosmetic-only (republish with
// unchanged ranges), or content-affecting (full rebuild); removed rules
// drop to Absent and publish zero occurrences.
func (c *Coordinator) NotifyRuleSetChanged(rules []rule.Rule) {
	if c.locked.Load() {
		return
	}

	c.mu.Lock()
	changes := rule.Classify(c.rules, rules)
	c.rules = rules

	var sets []OccurrenceSet
	for _, id := range changes.Removed {
		delete(c.entries, id)
		sets = append(sets, OccurrenceSet{RuleID: id})
	}

	if c.buf == nil {
		c.mu.Unlock()
		c.publish(sets)
		return
	}

	var rebuild []rule.Rule
	for _, r := range rules {
		verdict, survived := changes.Verdicts[r.ID]
		if !survived {
			// Newly added rule.
			rebuild = append(rebuild, r)
			continue
		}
		switch verdict {
		case rule.VerdictContent:
			rebuild = append(rebuild, r)
		case rule.VerdictCosmetic:
			if e, ok := c.entries[r.ID]; ok {
				e.rule = r
				// Stores are untouched, but renderers re-style.
				sets = append(sets, c.publisher.Snapshot(r.ID, e.store, c.buf))
			} else {
				sets = append(sets, OccurrenceSet{RuleID: r.ID})
			}
		case rule.VerdictNoOp:
			if e, ok := c.entries[r.ID]; ok {
				e.rule = r
			}
		}
	}

	sets = append(sets, c.rebuildAll(rebuild)...)
	c.mu.Unlock()

	c.publish(sets)
}

// NotifyEdit reconciles every tracked store with one edit. The edit must
// already have been applied to the buffer; the engine re-reads affected
// text rather than diffing. Edits for buffers other than the active one
// are ignored.
func (c *Coordinator) NotifyEdit(bufferName string, edit buffer.Edit) {
	if c.locked.Load() {
		return
	}

	c.mu.Lock()
	if c.buf == nil || c.buf.Name() != bufferName {
		c.mu.Unlock()
		return
	}

	var sets []OccurrenceSet
	for _, r := range c.rules {
		e, ok := c.entries[r.ID]
		if !ok || e.re == nil {
			continue
		}
		c.rescanner.Update(e.store, edit, c.buf, e.re, e.rule.Cap())
		sets = append(sets, c.publisher.Snapshot(r.ID, e.store, c.buf))
	}
	c.mu.Unlock()

	c.publish(sets)
}

// Jump returns the match with the given ordinal for a rule, or false when
// the rule is untracked or the ordinal is out of bounds (for example after
// a rescan shrank the match list).
func (c *Coordinator) Jump(ruleID string, ordinal int) (mark.Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ruleID]
	if !ok {
		return mark.Match{}, false
	}
	return e.store.ByOrdinal(ordinal)
}

// Tracked returns true when the rule has a live store for the active
// buffer.
func (c *Coordinator) Tracked(ruleID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[ruleID]
	return ok
}

// rebuildAll rebuilds the given rules from scratch against the active
// buffer, in parallel, and returns the occurrence sets to broadcast.
// Stores for distinct rules are independent and the buffer is only read,
// so the fan-out needs no extra locking. Caller must hold c.mu and
// guarantee c.buf != nil.
func (c *Coordinator) rebuildAll(rules []rule.Rule) []OccurrenceSet {
	if len(rules) == 0 {
		return nil
	}

	text := c.buf.Text()
	name := c.buf.Name()

	var g errgroup.Group
	results := make([]*entry, len(rules))

	for i, r := range rules {
		i, r := i, r
		g.Go(func() error {
			results[i] = c.buildEntry(r, text, name)
			return nil
		})
	}
	_ = g.Wait()

	sets := make([]OccurrenceSet, 0, len(rules))
	for i, r := range rules {
		e := results[i]
		c.entries[r.ID] = e
		if e.re == nil {
			sets = append(sets, OccurrenceSet{RuleID: r.ID})
			continue
		}
		sets = append(sets, c.publisher.Snapshot(r.ID, e.store, c.buf))
	}
	return sets
}

// publish broadcasts collected occurrence sets. It runs with no
// coordinator lock held, so observers may call back into the coordinator.
func (c *Coordinator) publish(sets []OccurrenceSet) {
	for _, set := range sets {
		c.publisher.Publish(set)
	}
}

// buildEntry evaluates filters, compiles the pattern, and scans the full
// text for one rule. Filter and pattern failures are per-rule: the entry
// stays tracked with zero matches so one bad rule never blocks others.
func (c *Coordinator) buildEntry(r rule.Rule, text, name string) *entry {
	e := &entry{rule: r, store: mark.NewStore()}

	applies, err := r.MatchesFile(name)
	if err != nil {
		c.logger.Printf("track: rule %s filter error: %v", r.ID, err)
		return e
	}
	if !applies {
		// Filters are evaluated before any pattern work; a filtered-out
		// rule performs no pattern evaluation at all.
		return e
	}

	re, err := r.Compile()
	if err != nil {
		c.logger.Printf("track: rule %s pattern error: %v", r.ID, err)
		return e
	}

	e.re = re
	e.store.Rebuild(text, re, r.Cap())
	return e
}

package rule

// Verdict classifies what a rule-set change means for one rule's tracked
// state.
type Verdict uint8

const (
	// VerdictNoOp means nothing about the rule changed.
	VerdictNoOp Verdict = iota

	// VerdictCosmetic means only display attributes changed. Stored
	// matches stay valid but renderers must restyle.
	VerdictCosmetic

	// VerdictContent means a match-affecting field changed, the rule
	// entered or left the enabled set, or the enabled-rule order changed.
	// The rule's matches must be rebuilt from scratch.
	VerdictContent
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictNoOp:
		return "no-op"
	case VerdictCosmetic:
		return "cosmetic"
	case VerdictContent:
		return "content"
	default:
		return "unknown"
	}
}

// Changes describes the difference between two enabled-rule lists.
type Changes struct {
	// Verdicts maps each surviving rule ID to its classification.
	Verdicts map[string]Verdict

	// Added lists rules present only in the new set, in list order.
	Added []Rule

	// Removed lists rule IDs present only in the old set.
	Removed []string

	// Reordered is true when the surviving members appear in a different
	// relative order. Downstream rendering order follows list order, so a
	// reorder forces content-affecting treatment for every survivor.
	Reordered bool
}

// Classify compares two ordered enabled-rule lists and reports, per rule,
// whether it needs no work, a restyle, or a full rebuild.
func Classify(old, new []Rule) Changes {
	oldByID := make(map[string]Rule, len(old))
	for _, r := range old {
		oldByID[r.ID] = r
	}
	newIDs := make(map[string]bool, len(new))
	for _, r := range new {
		newIDs[r.ID] = true
	}

	c := Changes{Verdicts: make(map[string]Verdict, len(new))}

	for _, r := range old {
		if !newIDs[r.ID] {
			c.Removed = append(c.Removed, r.ID)
		}
	}

	// Relative order of survivors in the old list.
	var oldOrder []string
	for _, r := range old {
		if newIDs[r.ID] {
			oldOrder = append(oldOrder, r.ID)
		}
	}
	var newOrder []string
	for _, r := range new {
		if _, ok := oldByID[r.ID]; ok {
			newOrder = append(newOrder, r.ID)
		}
	}
	for i := range newOrder {
		if oldOrder[i] != newOrder[i] {
			c.Reordered = true
			break
		}
	}

	for _, r := range new {
		prev, existed := oldByID[r.ID]
		if !existed {
			c.Added = append(c.Added, r)
			continue
		}
		switch {
		case c.Reordered:
			c.Verdicts[r.ID] = VerdictContent
		case prev.ContentDigest() != r.ContentDigest():
			c.Verdicts[r.ID] = VerdictContent
		case prev.CosmeticDigest() != r.CosmeticDigest():
			c.Verdicts[r.ID] = VerdictCosmetic
		default:
			c.Verdicts[r.ID] = VerdictNoOp
		}
	}

	return c
}

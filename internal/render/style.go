// Package render manages per-rule visual style handles.
//
// A Handle is the opaque style resource a renderer applies to a rule's
// occurrences. Handles are created per rule, recreated whenever the rule's
// cosmetic attributes change, and disposed when the rule is removed or its
// buffer deactivates. The tracking core never touches handles; create and
// dispose are paired by the rendering side.
package render

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/textmark/internal/rule"
)

// Handle is one rule's realized terminal style.
type Handle struct {
	ruleID   string
	style    tcell.Style
	cosmetic uint64
	disposed bool
}

// RuleID returns the owning rule's ID.
func (h *Handle) RuleID() string {
	return h.ruleID
}

// Style returns the terminal style to apply to the rule's occurrences.
func (h *Handle) Style() tcell.Style {
	return h.style
}

// Disposed returns true once the handle has been released.
func (h *Handle) Disposed() bool {
	return h.disposed
}

// Registry owns the live style handles, one per rule.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

// NewRegistry creates an empty handle registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Acquire returns the handle for a rule, creating it on first use and
// recreating it when the rule's cosmetic attributes have changed since the
// handle was built. The replaced handle is disposed.
func (r *Registry) Acquire(ru rule.Rule) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	digest := ru.CosmeticDigest()
	if h, ok := r.handles[ru.ID]; ok && h.cosmetic == digest {
		return h
	}

	if old, ok := r.handles[ru.ID]; ok {
		old.disposed = true
	}

	h := &Handle{
		ruleID:   ru.ID,
		style:    styleFor(ru.Style),
		cosmetic: digest,
	}
	r.handles[ru.ID] = h
	return h
}

// Release disposes and removes a rule's handle.
func (r *Registry) Release(ruleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[ruleID]; ok {
		h.disposed = true
		delete(r.handles, ruleID)
	}
}

// ReleaseAll disposes every handle, for buffer deactivation.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, h := range r.handles {
		h.disposed = true
		delete(r.handles, id)
	}
}

// Count returns the number of live handles.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// styleFor converts a rule's cosmetic attributes to a tcell style.
// Color values are tcell color names or #rrggbb hex. A border has no
// terminal equivalent and is approximated with reverse video.
func styleFor(s rule.Style) tcell.Style {
	style := tcell.StyleDefault

	if s.Color != "" {
		style = style.Foreground(tcell.GetColor(s.Color))
	}
	if s.Background != "" {
		style = style.Background(tcell.GetColor(s.Background))
	}
	if s.Border != "" {
		style = style.Reverse(true)
	}
	if s.Bold {
		style = style.Bold(true)
	}
	if s.Italic {
		style = style.Italic(true)
	}
	if s.Underline {
		style = style.Underline(true)
	}

	return style
}

package rule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Errors returned by rule operations.
var (
	ErrEmptyPattern = errors.New("empty pattern")
)

// DefaultMaxOccurrences caps match counts for rules that do not set their
// own limit. The cap bounds worst-case scan cost per rescan.
const DefaultMaxOccurrences = 1000

// Flags select pattern matching behavior. They map onto Go regexp mode
// flags and never include cosmetic concerns.
type Flags uint8

const (
	// FlagIgnoreCase makes matching case-insensitive.
	FlagIgnoreCase Flags = 1 << iota

	// FlagMultiline makes ^ and $ match at line boundaries.
	FlagMultiline

	// FlagDotAll makes . match newlines.
	FlagDotAll
)

// String returns the regexp mode prefix for the flags, e.g. "(?im)".
func (f Flags) String() string {
	if f == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("(?")
	if f&FlagIgnoreCase != 0 {
		b.WriteByte('i')
	}
	if f&FlagMultiline != 0 {
		b.WriteByte('m')
	}
	if f&FlagDotAll != 0 {
		b.WriteByte('s')
	}
	b.WriteByte(')')
	return b.String()
}

// Style holds a rule's cosmetic display attributes. They affect rendering
// only, never which text matches.
type Style struct {
	Color      string `toml:"color,omitempty"`
	Background string `toml:"background,omitempty"`
	Border     string `toml:"border,omitempty"`
	Bold       bool   `toml:"bold,omitempty"`
	Italic     bool   `toml:"italic,omitempty"`
	Underline  bool   `toml:"underline,omitempty"`
}

// Rule is one user-defined matching policy: an identifier, a pattern with
// flags, optional filename filters, an occurrence cap, and cosmetic display
// attributes.
//
// The tracking core never creates or destroys rules; it only reads their
// match-affecting fields and reacts to changes.
type Rule struct {
	ID           string `toml:"id"`
	Enabled      bool   `toml:"enabled"`
	Pattern      string `toml:"pattern"`
	Flags        Flags  `toml:"flags,omitempty"`
	IncludeFiles string `toml:"include_files,omitempty"`
	ExcludeFiles string `toml:"exclude_files,omitempty"`
	MaxMatches   int    `toml:"max_matches,omitempty"`
	Style        Style  `toml:"style,omitempty"`
}

// New creates an enabled rule with a fresh ID and the given pattern.
func New(pattern string, opts ...Option) Rule {
	r := Rule{
		ID:      uuid.NewString(),
		Enabled: true,
		Pattern: pattern,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Option configures a Rule during construction.
type Option func(*Rule)

// WithFlags sets the rule's match flags.
func WithFlags(f Flags) Option {
	return func(r *Rule) { r.Flags = f }
}

// WithMaxMatches sets the rule's occurrence cap.
func WithMaxMatches(n int) Option {
	return func(r *Rule) { r.MaxMatches = n }
}

// WithStyle sets the rule's cosmetic attributes.
func WithStyle(s Style) Option {
	return func(r *Rule) { r.Style = s }
}

// WithFilters sets the include/exclude filename filters.
func WithFilters(include, exclude string) Option {
	return func(r *Rule) {
		r.IncludeFiles = include
		r.ExcludeFiles = exclude
	}
}

// Cap returns the rule's effective occurrence cap.
func (r Rule) Cap() int {
	if r.MaxMatches > 0 {
		return r.MaxMatches
	}
	return DefaultMaxOccurrences
}

// Compile compiles the rule's pattern with its flag prefix.
func (r Rule) Compile() (*regexp.Regexp, error) {
	if r.Pattern == "" {
		return nil, ErrEmptyPattern
	}
	re, err := regexp.Compile(r.Flags.String() + r.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return re, nil
}

// MatchesFile reports whether the rule applies to the given buffer path,
// evaluating the include and exclude filters as regular expressions against
// the path. An empty include filter admits every path. A filter that fails
// to compile is an error; callers treat it as the rule contributing zero
// occurrences.
func (r Rule) MatchesFile(path string) (bool, error) {
	if r.IncludeFiles != "" {
		inc, err := regexp.Compile(r.IncludeFiles)
		if err != nil {
			return false, fmt.Errorf("rule %s include filter: %w", r.ID, err)
		}
		if !inc.MatchString(path) {
			return false, nil
		}
	}
	if r.ExcludeFiles != "" {
		exc, err := regexp.Compile(r.ExcludeFiles)
		if err != nil {
			return false, fmt.Errorf("rule %s exclude filter: %w", r.ID, err)
		}
		if exc.MatchString(path) {
			return false, nil
		}
	}
	return true, nil
}

// ContentDigest hashes every match-affecting field: pattern, flags,
// filters, cap, and the enabled flag. Two rules with equal content digests
// match exactly the same text.
func (r Rule) ContentDigest() uint64 {
	d := xxhash.New()
	writeField(d, r.Pattern)
	writeField(d, r.Flags.String())
	writeField(d, r.IncludeFiles)
	writeField(d, r.ExcludeFiles)
	writeField(d, fmt.Sprintf("%d", r.Cap()))
	writeField(d, fmt.Sprintf("%t", r.Enabled))
	return d.Sum64()
}

// CosmeticDigest hashes the display-only fields.
func (r Rule) CosmeticDigest() uint64 {
	d := xxhash.New()
	writeField(d, r.Style.Color)
	writeField(d, r.Style.Background)
	writeField(d, r.Style.Border)
	writeField(d, fmt.Sprintf("%t%t%t", r.Style.Bold, r.Style.Italic, r.Style.Underline))
	return d.Sum64()
}

// writeField writes a length-delimited field into the digest so that
// adjacent fields cannot alias.
func writeField(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(fmt.Sprintf("%d:", len(s)))
	_, _ = d.WriteString(s)
}

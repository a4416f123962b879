// Package main is the entry point for the textmark CLI.
//
// textmark scans a file against a TOML rules file and reports pattern
// occurrences per rule. With -watch it keeps running and re-reports when
// the rules file changes on disk.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dshills/textmark/internal/engine/buffer"
	"github.com/dshills/textmark/internal/render"
	"github.com/dshills/textmark/internal/rule"
	"github.com/dshills/textmark/internal/rulestore"
	"github.com/dshills/textmark/internal/track"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
)

func main() {
	os.Exit(run())
}

func run() int {
	rulesPath := flag.String("rules", "rules.toml", "path to the TOML rules file")
	watch := flag.Bool("watch", false, "keep running and reload on rules file changes")
	list := flag.Bool("list", false, "list each occurrence, not just counts")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("textmark", version)
		return 0
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: textmark [flags] <file>")
		flag.PrintDefaults()
		return 2
	}

	target, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	store := rulestore.NewStore(*rulesPath)
	rules, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	f, err := os.Open(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	buf, err := buffer.NewBufferFromReader(f, buffer.WithName(target))
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	reporter := newReporter(rules, *list)
	coord := track.NewCoordinator()
	sub := coord.Publisher().Broadcaster().Subscribe(reporter.report)
	defer sub.Unsubscribe()

	coord.NotifyRuleSetChanged(enabled(rules))
	coord.SetBuffer(buf)

	if !*watch {
		return 0
	}

	watcher, err := rulestore.NewWatcher(store, func(rules []rule.Rule) {
		fmt.Println("-- rules reloaded --")
		reporter.setRules(rules)
		coord.NotifyRuleSetChanged(enabled(rules))
	}, rulestore.WithErrorFunc(func(err error) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer watcher.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	return 0
}

// enabled filters the rule list down to the ordered enabled set the
// coordinator tracks.
func enabled(rules []rule.Rule) []rule.Rule {
	out := make([]rule.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// reporter prints occurrence sets with the pattern each rule matches.
// Style handles are acquired per rule so cosmetic rule edits surface as
// handle churn even in a non-rendering consumer.
type reporter struct {
	mu       sync.Mutex
	patterns map[string]string
	styles   map[string]rule.Rule
	registry *render.Registry
	list     bool
}

func newReporter(rules []rule.Rule, list bool) *reporter {
	r := &reporter{
		patterns: make(map[string]string),
		styles:   make(map[string]rule.Rule),
		registry: render.NewRegistry(),
		list:     list,
	}
	r.setRules(rules)
	return r
}

func (r *reporter) setRules(rules []rule.Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(rules))
	for _, ru := range rules {
		r.patterns[ru.ID] = ru.Pattern
		r.styles[ru.ID] = ru
		seen[ru.ID] = true
	}
	for id := range r.patterns {
		if !seen[id] {
			delete(r.patterns, id)
			delete(r.styles, id)
			r.registry.Release(id)
		}
	}
}

func (r *reporter) report(ruleID string, set track.OccurrenceSet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pattern, ok := r.patterns[ruleID]
	if !ok {
		return
	}
	r.registry.Acquire(r.styles[ruleID])

	fmt.Printf("%-24q %d\n", pattern, set.Count)
	if !r.list {
		return
	}
	for _, occ := range set.Occurrences {
		fmt.Printf("  %4d:%-3d %s\n", occ.StartLine+1, occ.StartCol+1, occ.LineText)
	}
}

// Package rule defines user-defined matching policies and the
// classification of rule-set changes.
//
// A Rule pairs a regular-expression pattern (with mode flags) with
// filename filters, an occurrence cap, and cosmetic display attributes.
// Match-affecting and display-only fields are digested separately with
// xxhash so a rule-set change can be classified cheaply as no-op,
// cosmetic-only, or content-affecting without field-by-field comparison at
// every call site.
package rule

// Package registry holds the structured verb specifications for a domain.
// It is the single source of truth feeding the reference card, the tool
// description builder and dispatch-table validation.
package registry

import (
	"strings"
	"sync"
)

// VerbSpec describes a single verb in a domain's op-string protocol.
type VerbSpec struct {
	Verb        string
	Syntax      string
	Category    string
	Params      []string
	Description string
}

// Section is a titled block of static text appended to the reference card
// after the verb listings.
type Section struct {
	Title   string
	Content string
}

// Registry is an ordered collection of verb specifications.
type Registry struct {
	mu    sync.RWMutex
	verbs []VerbSpec
	byKey map[string]VerbSpec
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]VerbSpec)}
}

// Register adds a verb specification.
// Re-registering a verb overwrites its lookup entry.
func (r *Registry) Register(spec VerbSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verbs = append(r.verbs, spec)
	r.byKey[spec.Verb] = spec
}

// RegisterMany adds multiple verb specifications in order.
func (r *Registry) RegisterMany(specs []VerbSpec) {
	for _, spec := range specs {
		r.Register(spec)
	}
}

// Lookup returns the specification for a verb, if registered.
func (r *Registry) Lookup(verb string) (VerbSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.byKey[verb]
	return spec, ok
}

// Verbs returns all registered specifications in insertion order.
func (r *Registry) Verbs() []VerbSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]VerbSpec, len(r.verbs))
	copy(out, r.verbs)
	return out
}

// VerbNames returns the registered verb names in insertion order. Useful as
// candidates for fuzzy suggestions.
func (r *Registry) VerbNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.verbs))
	for i, spec := range r.verbs {
		names[i] = spec.Verb
	}
	return names
}

// categories returns the distinct categories in first-seen order.
// Caller must hold at least a read lock.
func (r *Registry) categories() []string {
	var seen []string
	for _, v := range r.verbs {
		found := false
		for _, c := range seen {
			if c == v.Category {
				found = true
				break
			}
		}
		if !found {
			seen = append(seen, v.Category)
		}
	}
	return seen
}

// headline rewrites a category key like "session_mgmt" as "SESSION MGMT:".
func headline(category string) string {
	h := strings.NewReplacer("_", " ", "-", " ").Replace(category)
	return strings.ToUpper(h) + ":"
}

// ReferenceCard renders the registered verbs grouped by category in
// first-seen order, with any extra sections appended. An empty registry
// with no sections renders as an empty string.
func (r *Registry) ReferenceCard(extra []Section) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lines []string
	for _, cat := range r.categories() {
		lines = append(lines, headline(cat))
		for _, v := range r.verbs {
			if v.Category == cat {
				lines = append(lines, "  "+v.Syntax)
			}
		}
		lines = append(lines, "")
	}

	for _, section := range extra {
		lines = append(lines, headline(section.Title), section.Content, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

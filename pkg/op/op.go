// Package op parses op strings into structured operations.
//
// The first token is the verb; every remaining token is classified as a
// selector, a key:value param or a positional argument. Parsing is purely
// syntactic: unknown verbs, odd values and domain-specific shapes all pass
// through untouched. Interpretation belongs to the domain adapter.
package op

import (
	"fmt"
	"strings"

	"github.com/aretw0/opcmd/pkg/token"
)

// Op is a successfully parsed operation.
type Op struct {
	Verb        string
	Positionals []string
	Params      map[string]string
	Selectors   []string
	Raw         string
}

// ParseError describes a parsing failure. It carries the trimmed input for
// diagnostics.
type ParseError struct {
	Msg string
	Raw string
}

func (e *ParseError) Error() string {
	return e.Msg
}

// Role is the classification of a non-verb token.
type Role int

const (
	RolePositional Role = iota
	RoleParam
	RoleSelector
)

// Classify decides the role of a single non-verb token. Precedence:
//
//  1. `@` prefix -> selector
//  2. standalone-quoted -> positional (quoting always forces positional,
//     even if the text looks like key:value)
//  3. domain predicate says positional -> positional
//  4. key:value shape -> param
//  5. otherwise -> positional
//
// isPositional may be nil.
func Classify(tok token.Token, isPositional func(string) bool) Role {
	switch {
	case token.IsSelector(tok.Text):
		return RoleSelector
	case tok.WasQuoted:
		return RolePositional
	case isPositional != nil && isPositional(tok.Text):
		return RolePositional
	case token.IsKeyValue(tok.Text):
		return RoleParam
	default:
		return RolePositional
	}
}

// Option configures Parse.
type Option func(*config)

type config struct {
	isPositional func(string) bool
}

// WithPositional installs a domain predicate that forces matching tokens to
// be positionals. It is the escape hatch for shapes the generic classifier
// cannot disambiguate, such as spreadsheet column ranges (`B:G`).
func WithPositional(pred func(string) bool) Option {
	return func(c *config) {
		c.isPositional = pred
	}
}

// Parse tokenizes and classifies an op string. Exactly one of the results is
// non-nil; the error is always a *ParseError.
func Parse(input string, opts ...Option) (*Op, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, &ParseError{Msg: "Empty op string", Raw: raw}
	}

	tokens, err := token.Tokenize(raw)
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("Tokenization failed: %v", err), Raw: raw}
	}
	if len(tokens) == 0 {
		return nil, &ParseError{Msg: "No tokens after tokenization", Raw: raw}
	}

	parsed := &Op{
		Verb:   strings.ToLower(tokens[0].Text),
		Params: make(map[string]string),
		Raw:    raw,
	}

	for _, tok := range tokens[1:] {
		switch Classify(tok, cfg.isPositional) {
		case RoleSelector:
			parsed.Selectors = append(parsed.Selectors, tok.Text)
		case RoleParam:
			k, v := token.SplitKeyValue(tok.Text)
			parsed.Params[k] = v // last occurrence wins
		default:
			parsed.Positionals = append(parsed.Positionals, tok.Text)
		}
	}

	return parsed, nil
}

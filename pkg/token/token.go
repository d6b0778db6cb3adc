// Package token implements the quote-aware tokenizer for op strings and the
// predicates used to classify individual tokens.
//
// An op string is split on whitespace, except that quoted substrings (single
// or double quotes) are kept together. Quoting comes in two flavours:
//
//   - Standalone quotes: the whole token is wrapped in one quote pair. The
//     delimiters are stripped and the token is flagged WasQuoted.
//     `"LTV:CAC"` -> Token{Text: "LTV:CAC", WasQuoted: true}
//   - Embedded quotes: a quote opens mid-token, typically after a colon. The
//     quoted span is consumed whole but the delimiters stay in the text so
//     SplitKeyValue can strip them later.
//     `title:"Score Chart"` -> Token{Text: `title:"Score Chart"`, WasQuoted: false}
//
// Backslash escapes are decoded everywhere: `\"` and `\'` produce a literal
// quote without closing the span, `\\` a backslash, `\n` a newline. Any other
// escape keeps both characters.
package token

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnclosedQuote is returned by Tokenize when a standalone quote is opened
// and never closed before the end of the input.
var ErrUnclosedQuote = errors.New("no closing quotation")

// Token is a single lexed token plus how it was originally written.
type Token struct {
	Text      string
	WasQuoted bool
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}

// decodeEscape maps the character following a backslash to its replacement.
// The boolean is false when the escape is not recognized and both characters
// should be kept as written.
func decodeEscape(c byte) (byte, bool) {
	switch c {
	case '"', '\'', '\\':
		return c, true
	case 'n':
		return '\n', true
	default:
		return 0, false
	}
}

// consumeQuoted reads from s[i] (the opening quote) until the matching
// unescaped closing quote. It returns the decoded content without delimiters
// and the index just past the closing quote.
func consumeQuoted(s string, i int, quote byte) (string, int, error) {
	var buf strings.Builder
	i++ // opening quote
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			if dec, ok := decodeEscape(s[i+1]); ok {
				buf.WriteByte(dec)
				i += 2
				continue
			}
		}
		if c == quote {
			return buf.String(), i + 1, nil
		}
		buf.WriteByte(c)
		i++
	}
	return "", i, ErrUnclosedQuote
}

// Tokenize splits an op string into tokens, respecting quoted substrings.
// Empty or all-whitespace input yields an empty slice. The only error
// condition is an unclosed standalone quote (ErrUnclosedQuote).
func Tokenize(s string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}

		if isQuote(s[i]) {
			content, next, err := consumeQuoted(s, i, s[i])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Text: content, WasQuoted: true})
			i = next
			continue
		}

		// Unquoted token: accumulate until unescaped whitespace. A quote
		// opening mid-token is consumed as a sub-region with its delimiters
		// preserved, so `title:"Score Chart"` stays one token.
		var buf strings.Builder
		for i < len(s) && !isSpace(s[i]) {
			c := s[i]
			switch {
			case c == '\\' && i+1 < len(s):
				if dec, ok := decodeEscape(s[i+1]); ok {
					buf.WriteByte(dec)
					i += 2
				} else {
					buf.WriteByte(c)
					i++
				}
			case isQuote(c):
				buf.WriteByte(c)
				i++
				for i < len(s) && s[i] != c {
					if s[i] == '\\' && i+1 < len(s) {
						if dec, ok := decodeEscape(s[i+1]); ok {
							buf.WriteByte(dec)
							i += 2
							continue
						}
					}
					buf.WriteByte(s[i])
					i++
				}
				if i < len(s) {
					buf.WriteByte(s[i]) // closing quote
					i++
				}
			default:
				buf.WriteByte(c)
				i++
			}
		}
		tokens = append(tokens, Token{Text: buf.String()})
	}
	return tokens, nil
}

// Texts returns just the token texts, dropping quote metadata.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

// Cell reference patterns (spreadsheet A1 notation): 1-3 letters followed by
// digits, or a bare row number.
var (
	cellRefRe = regexp.MustCompile(`^[A-Za-z]{1,3}\d+$`)
	rowRefRe  = regexp.MustCompile(`^[0-9]+$`)
)

// isCellRange reports whether text looks like a spreadsheet range, with an
// optional `Sheet!` prefix: A1:F1, AA1:BB23, 3:3, 1:5, Sheet2!A1:B10.
//
// Pure column ranges (A:E, B:B) are intentionally not matched here: they are
// indistinguishable from key:value pairs like `vel:mf`. Domains that need
// them supply a positional predicate to the parser instead.
func isCellRange(text string) bool {
	ref := text
	if bang := strings.IndexByte(ref, '!'); bang >= 0 {
		ref = ref[bang+1:]
	}
	left, right, found := strings.Cut(ref, ":")
	if !found || left == "" || right == "" {
		return false
	}
	if cellRefRe.MatchString(left) && cellRefRe.MatchString(right) {
		return true
	}
	return rowRefRe.MatchString(left) && rowRefRe.MatchString(right)
}

// IsSelector reports whether text is a selector token (starts with `@`).
func IsSelector(text string) bool {
	return strings.HasPrefix(text, "@")
}

// IsArrow reports whether text is an edge arrow: `->`, `<->` or `--`.
func IsArrow(text string) bool {
	return text == "->" || text == "<->" || text == "--"
}

// IsKeyValue reports whether text qualifies as a key:value pair. The `:`
// glyph is overloaded (key:value separator, cell-range separator, formula
// argument separator), so several shapes are excluded: selectors, tokens
// containing `->`, formulas (leading `=`) and spreadsheet ranges.
func IsKeyValue(text string) bool {
	if strings.HasPrefix(text, "@") {
		return false
	}
	if strings.Contains(text, "->") {
		return false
	}
	if strings.HasPrefix(text, "=") {
		return false
	}
	if isCellRange(text) {
		return false
	}
	return strings.Contains(text, ":")
}

// SplitKeyValue splits text on the first `:`. A value wholly wrapped in one
// matching quote pair (delimiters preserved by the tokenizer for embedded
// quoting) is unquoted.
func SplitKeyValue(text string) (key, value string) {
	key, value, _ = strings.Cut(text, ":")
	if len(value) >= 2 && value[0] == value[len(value)-1] && isQuote(value[0]) {
		value = value[1 : len(value)-1]
	}
	return key, value
}

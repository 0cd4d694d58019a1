// Package repl implements robota's interactive read-eval-print loop.
package repl

import "strings"

// Tokenize splits a line on runs of whitespace.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// Parse joins double-quoted groups of tokens into single arguments.
//
// The pass works on whitespace tokens, not characters: a token that starts
// with `"` and does not end with one opens a group, and the group closes at
// the first later token ending with `"`. The words of a group are joined
// with one space, so runs of whitespace inside quotes collapse. A token that
// is quoted on both ends is unquoted in place, an unterminated group is
// flushed at the end of input, and quotes anywhere else (including escaped
// ones) are kept verbatim.
func Parse(tokens []string) []string {
	var (
		args  []string
		group []string
		open  bool
	)

	for _, tok := range tokens {
		switch {
		case open:
			if strings.HasSuffix(tok, `"`) {
				group = append(group, strings.TrimSuffix(tok, `"`))
				args = append(args, strings.Join(group, " "))
				group, open = nil, false
				continue
			}
			group = append(group, tok)
		case tok == `"`:
			// a lone quote opens an empty group
			open = true
		case strings.HasPrefix(tok, `"`) && !strings.HasSuffix(tok, `"`):
			group = append(group, strings.TrimPrefix(tok, `"`))
			open = true
		case len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`):
			args = append(args, tok[1:len(tok)-1])
		default:
			args = append(args, tok)
		}
	}

	if open && len(group) > 0 {
		args = append(args, strings.Join(group, " "))
	}
	return args
}

// Split is Parse(Tokenize(line)).
func Split(line string) []string {
	return Parse(Tokenize(line))
}

package translate

import "strconv"

// rewritePlaceholders is stage 1 of the pipeline.
//
// `?` in order becomes $1,$2,…. `:name`/`@name` become $N where N is
// assigned on first encounter; a later occurrence of the same name reuses
// the same N. String literals and double-quoted identifiers are never
// touched because they are already whole tokens the stage skips over.
//
// Returns the rewritten tokens and the ordered list of parameter names
// (nil entries for positional `?` parameters), indexed by N-1.
func rewritePlaceholders(toks []Token) ([]Token, []*string) {
	out := make([]Token, 0, len(toks))
	var names []*string
	seen := make(map[string]int)
	next := 1

	for _, t := range toks {
		switch t.Kind {
		case PlaceholderQ:
			out = append(out, Token{Punct, "$" + strconv.Itoa(next)})
			names = append(names, nil)
			next++
		case PlaceholderN:
			name := t.Text[1:] // strip : or @ sigil
			n, ok := seen[name]
			if !ok {
				n = next
				seen[name] = n
				nm := name
				names = append(names, &nm)
				next++
			}
			out = append(out, Token{Punct, "$" + strconv.Itoa(n)})
		default:
			out = append(out, t)
		}
	}
	return out, names
}

// paramCount counts distinct placeholders directly, the fallback for
// callers that only have the original, untranslated SQL.
func paramCount(sql string) int {
	toks := Lex(sql)
	n := 0
	seen := make(map[string]bool)
	for _, t := range toks {
		switch t.Kind {
		case PlaceholderQ:
			n++
		case PlaceholderN:
			name := t.Text[1:]
			if !seen[name] {
				seen[name] = true
				n++
			}
		}
	}
	return n
}

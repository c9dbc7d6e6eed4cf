package translate

import "strconv"

// Normalize supports the direct-exec caching path: it
// extracts every numeric literal in sql and replaces it with a $N
// placeholder, so that two statements differing only in a literal value
// (e.g. "WHERE id = 5" vs "WHERE id = 6") normalize to the same SQL text
// and therefore the same cache key. The extracted literal text, in
// appearance order, is returned alongside so the caller can still bind the
// original values when executing the now-parameterized statement.
func Normalize(sql string) (normalizedSQL string, values []string) {
	toks := Lex(sql)
	out := make([]Token, 0, len(toks))
	n := 0
	for _, t := range toks {
		if t.Kind == Number {
			n++
			values = append(values, t.Text)
			out = append(out, Token{Punct, "$" + strconv.Itoa(n)})
			continue
		}
		out = append(out, t)
	}
	return Render(out), values
}

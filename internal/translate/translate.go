package translate

import "github.com/jabrown93/plex-postgresql-sub000/internal/shimerr"

// Result is the outcome of translating one SQLite statement into its
// server-dialect equivalent.
type Result struct {
	SQL        string
	ParamNames []*string // nil entries mark positional (?) parameters
	ParamCount int
	Success    bool
	Err        error
}

// Translate runs the fixed four-stage rewrite pipeline over sql:
// placeholder numbering, function/expression rewrites, DDL type rewrites,
// then keyword and quoting rewrites. Each stage only ever consumes and
// produces a token stream, so a stage never needs to re-lex partially
// rewritten SQL and can never match inside a string literal or quoted
// identifier it didn't itself introduce.
func Translate(sql string) Result {
	if hasUnterminatedQuote(sql) {
		return Result{Success: false, Err: shimerr.New(shimerr.TranslationFailure, "unterminated quoted literal or identifier")}
	}

	toks := Lex(sql)
	toks, names := rewritePlaceholders(toks)
	toks = applyFunctionStage(toks)
	toks = applyTypeStage(toks)
	toks = applyKeywordStage(toks)

	return Result{
		SQL:        Render(toks),
		ParamNames: names,
		ParamCount: len(names),
		Success:    true,
	}
}

// hasUnterminatedQuote scans the raw text for a ', ", or ` that never
// closes. Lex itself never fails — an unterminated quote just consumes to
// end-of-input — so this check runs independently, before tokenizing, to
// give Translate a real TranslationFailure instead of silently mangling the
// rest of the statement into the trailing end of a string literal.
func hasUnterminatedQuote(sql string) bool {
	r := []rune(sql)
	n := len(r)
	i := 0
	for i < n {
		switch r[i] {
		case '\'', '"':
			q := r[i]
			j := i + 1
			closed := false
			for j < n {
				if r[j] == q {
					if j+1 < n && r[j+1] == q {
						j += 2
						continue
					}
					closed = true
					j++
					break
				}
				j++
			}
			if !closed {
				return true
			}
			i = j
		case '`':
			j := i + 1
			closed := false
			for j < n {
				if r[j] == '`' {
					closed = true
					j++
					break
				}
				j++
			}
			if !closed {
				return true
			}
			i = j
		default:
			i++
		}
	}
	return false
}

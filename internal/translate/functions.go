package translate

import "strings"

var sp = Token{Space, " "}

// rewriteCalls repeatedly finds the next call to name and replaces it with
// whatever build returns, until no call remains. build returns
// handled=false to leave a particular call untouched (e.g. single-argument
// max/min, which stay aggregates).
//
// Replacement tokens built here intentionally splice the *original*
// argument token slices back in (rather than re-lexing rendered text), so
// that any literal/identifier boundaries inside an argument survive
// verbatim. A later pipeline stage that needs to see inside a rewritten
// call's arguments (e.g. a nested backtick identifier) will not — this is a
// deliberate, documented simplification; Plex's own generated SQL never
// nests a keyword-stage rewrite inside one of these function arguments.
func rewriteCalls(toks []Token, name string, build func(args [][]Token) ([]Token, bool)) []Token {
	out := toks
	pos := 0
	for {
		identIdx, openIdx, closeIdx, ok := findCall(out, pos, name)
		if !ok {
			break
		}
		args := splitArgs(out, openIdx, closeIdx)
		repl, handled := build(args)
		if !handled {
			pos = closeIdx + 1
			continue
		}
		next := make([]Token, 0, len(out)-(closeIdx-identIdx)+len(repl))
		next = append(next, out[:identIdx]...)
		next = append(next, repl...)
		next = append(next, out[closeIdx+1:]...)
		pos = identIdx + len(repl)
		out = next
	}
	return out
}

func rewriteIif(toks []Token) []Token {
	return rewriteCalls(toks, "iif", func(args [][]Token) ([]Token, bool) {
		if len(args) != 3 {
			return nil, false
		}
		var out []Token
		out = append(out, Token{Ident, "CASE"}, sp, Token{Ident, "WHEN"}, sp)
		out = append(out, args[0]...)
		out = append(out, sp, Token{Ident, "THEN"}, sp)
		out = append(out, args[1]...)
		out = append(out, sp, Token{Ident, "ELSE"}, sp)
		out = append(out, args[2]...)
		out = append(out, sp, Token{Ident, "END"})
		return out, true
	})
}

func rewriteTypeof(toks []Token) []Token {
	found := false
	out := rewriteCalls(toks, "typeof", func(args [][]Token) ([]Token, bool) {
		if len(args) != 1 {
			return nil, false
		}
		found = true
		var r []Token
		r = append(r, Token{Ident, "pg_typeof"}, Token{Punct, "("})
		r = append(r, args[0]...)
		r = append(r, Token{Punct, ")"}, Token{Punct, "::text"})
		return r, true
	})
	if !found {
		return out
	}
	for i, t := range out {
		if t.Kind == QString && strings.EqualFold(unquoteSingle(t.Text), "real") {
			out[i] = Token{QString, "'double precision'"}
		}
	}
	return out
}

var strftimeFormatMap = []struct{ from, to string }{
	{"%Y", "YYYY"}, {"%m", "MM"}, {"%d", "DD"},
	{"%H", "HH24"}, {"%M", "MI"}, {"%S", "SS"},
	{"%j", "DDD"}, {"%f", "SS.MS"},
}

func translateStrftimeFormat(lit string) string {
	inner := unquoteSingle(lit)
	for _, m := range strftimeFormatMap {
		inner = strings.ReplaceAll(inner, m.from, m.to)
	}
	return "'" + strings.ReplaceAll(inner, "'", "''") + "'"
}

func rewriteStrftime(toks []Token) []Token {
	return rewriteCalls(toks, "strftime", func(args [][]Token) ([]Token, bool) {
		if len(args) < 2 {
			return nil, false
		}
		fmtArg := trimSpace(args[0])
		if len(fmtArg) != 1 || fmtArg[0].Kind != QString {
			return nil, false
		}
		expr := args[1]
		if strings.EqualFold(unquoteSingle(fmtArg[0].Text), "%s") {
			var r []Token
			r = append(r, Token{Ident, "EXTRACT"}, Token{Punct, "("}, Token{Ident, "EPOCH"}, sp, Token{Ident, "FROM"}, sp)
			r = append(r, expr...)
			r = append(r, Token{Punct, ")"}, Token{Punct, "::bigint"})
			return r, true
		}
		var r []Token
		r = append(r, Token{Ident, "TO_CHAR"}, Token{Punct, "("})
		r = append(r, expr...)
		r = append(r, Token{Punct, ","}, sp, Token{QString, translateStrftimeFormat(fmtArg[0].Text)}, Token{Punct, ")"})
		return r, true
	})
}

func rewriteUnixepoch(toks []Token) []Token {
	return rewriteCalls(toks, "unixepoch", func(args [][]Token) ([]Token, bool) {
		if len(args) < 1 {
			return nil, false
		}
		base := trimSpace(args[0])
		if len(base) != 1 || base[0].Kind != QString || !strings.EqualFold(unquoteSingle(base[0].Text), "now") {
			return nil, false
		}
		var r []Token
		r = append(r, Token{Ident, "EXTRACT"}, Token{Punct, "("}, Token{Ident, "EPOCH"}, sp, Token{Ident, "FROM"}, sp, Token{Ident, "NOW"}, Token{Punct, "("}, Token{Punct, ")"})
		if len(args) >= 2 {
			mod := trimSpace(args[1])
			if len(mod) == 1 && mod[0].Kind == QString {
				r = append(r, sp, Token{Punct, "+"}, sp, Token{Ident, "INTERVAL"}, sp, mod[0])
			}
		}
		r = append(r, Token{Punct, ")"}, Token{Punct, "::bigint"})
		return r, true
	})
}

func rewriteDatetimeNow(toks []Token) []Token {
	return rewriteCalls(toks, "datetime", func(args [][]Token) ([]Token, bool) {
		if len(args) != 1 {
			return nil, false
		}
		a := trimSpace(args[0])
		if len(a) != 1 || a[0].Kind != QString || !strings.EqualFold(unquoteSingle(a[0].Text), "now") {
			return nil, false
		}
		return []Token{{Ident, "NOW"}, {Punct, "("}, {Punct, ")"}}, true
	})
}

// renameSimpleFunctions handles ifnull->coalesce and substr->substring:
// same argument shape, just a different server-side name.
func renameSimpleFunctions(toks []Token) []Token {
	out := toks
	out = renameCallIdent(out, "ifnull", "coalesce")
	out = renameCallIdent(out, "substr", "substring")
	return out
}

func renameCallIdent(toks []Token, oldName, newName string) []Token {
	out := make([]Token, len(toks))
	copy(out, toks)
	pos := 0
	for {
		identIdx, _, _, ok := findCall(out, pos, oldName)
		if !ok {
			break
		}
		out[identIdx] = Token{Ident, newName}
		pos = identIdx + 1
	}
	return out
}

// rewriteMinMax rewrites scalar max(a,b,...)/min(a,b,...) (>= 2 args) into
// GREATEST/LEAST; single-argument max/min are left as aggregates.
func rewriteMinMax(toks []Token) []Token {
	out := toks
	out = rewriteScalarMinMax(out, "max", "GREATEST")
	out = rewriteScalarMinMax(out, "min", "LEAST")
	return out
}

func rewriteScalarMinMax(toks []Token, name, newName string) []Token {
	out := make([]Token, len(toks))
	copy(out, toks)
	pos := 0
	for {
		identIdx, openIdx, closeIdx, ok := findCall(out, pos, name)
		if !ok {
			break
		}
		args := splitArgs(out, openIdx, closeIdx)
		if len(args) >= 2 {
			out[identIdx] = Token{Ident, newName}
		}
		pos = closeIdx + 1
	}
	return out
}

// rewriteBooleanCaseMirror turns "CASE … THEN 0 ELSE 1 END" and its 1/0
// mirror into "THEN FALSE ELSE TRUE END" / "THEN TRUE ELSE FALSE END", to
// satisfy the target's strict boolean typing in boolean contexts.
func rewriteBooleanCaseMirror(toks []Token) []Token {
	out := make([]Token, len(toks))
	copy(out, toks)

	nonSpace := func(from int) int {
		for from < len(out) && out[from].Kind == Space {
			from++
		}
		return from
	}

	for i := range out {
		if !out[i].Is("THEN") {
			continue
		}
		a := nonSpace(i + 1)
		if a >= len(out) || out[a].Kind != Number || (out[a].Text != "0" && out[a].Text != "1") {
			continue
		}
		e := nonSpace(a + 1)
		if e >= len(out) || !out[e].Is("ELSE") {
			continue
		}
		b := nonSpace(e + 1)
		if b >= len(out) || out[b].Kind != Number {
			continue
		}
		end := nonSpace(b + 1)
		if end >= len(out) || !out[end].Is("END") {
			continue
		}
		if out[a].Text == "0" && out[b].Text == "1" {
			out[a] = Token{Ident, "FALSE"}
			out[b] = Token{Ident, "TRUE"}
		} else if out[a].Text == "1" && out[b].Text == "0" {
			out[a] = Token{Ident, "TRUE"}
			out[b] = Token{Ident, "FALSE"}
		}
	}
	return out
}

// rewriteSubqueryAlias auto-aliases FROM (subquery) ... with no alias to
// "AS subqN", in first-appearance order.
func rewriteSubqueryAlias(toks []Token) []Token {
	out := toks
	n := 0
	pos := 0
	for {
		fromIdx := -1
		for i := pos; i < len(out); i++ {
			if out[i].Is("FROM") {
				fromIdx = i
				break
			}
		}
		if fromIdx == -1 {
			break
		}
		j := skipSpace(out, fromIdx+1)
		if j >= len(out) || !out[j].IsPunct("(") {
			pos = fromIdx + 1
			continue
		}
		depth := 0
		close := -1
		for k := j; k < len(out); k++ {
			if out[k].IsPunct("(") {
				depth++
			} else if out[k].IsPunct(")") {
				depth--
				if depth == 0 {
					close = k
					break
				}
			}
		}
		if close == -1 {
			break
		}
		after := skipSpace(out, close+1)
		hasAlias := after < len(out) && (out[after].Is("AS") || (out[after].Kind == Ident && !isClauseKeyword(out[after])) || out[after].Kind == QIdent)
		if !hasAlias {
			n++
			alias := []Token{sp, Token{Ident, "AS"}, sp, {Ident, aliasName(n)}}
			next := make([]Token, 0, len(out)+len(alias))
			next = append(next, out[:close+1]...)
			next = append(next, alias...)
			next = append(next, out[close+1:]...)
			out = next
			pos = close + 1 + len(alias)
		} else {
			pos = close + 1
		}
	}
	return out
}

// isClauseKeyword reports whether t is a keyword that can follow a FROM
// item, and so is not an alias for it.
func isClauseKeyword(t Token) bool {
	for _, kw := range []string{"WHERE", "GROUP", "ORDER", "LIMIT", "OFFSET", "HAVING", "UNION", "EXCEPT", "INTERSECT",
		"JOIN", "LEFT", "RIGHT", "INNER", "OUTER", "CROSS", "FULL", "NATURAL", "ON", "USING", "WINDOW"} {
		if t.Is(kw) {
			return true
		}
	}
	return false
}

func aliasName(n int) string {
	const digits = "0123456789"
	if n < 10 {
		return "subq" + string(digits[n])
	}
	return "subq" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func unquoteSingle(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, "''", "'")
}

// applyFunctionStage runs every function-level rewrite, in a fixed order.
func applyFunctionStage(toks []Token) []Token {
	toks = rewriteIif(toks)
	toks = rewriteTypeof(toks)
	toks = rewriteStrftime(toks)
	toks = rewriteUnixepoch(toks)
	toks = rewriteDatetimeNow(toks)
	toks = renameSimpleFunctions(toks)
	toks = rewriteMinMax(toks)
	toks = rewriteBooleanCaseMirror(toks)
	toks = rewriteSubqueryAlias(toks)
	return toks
}

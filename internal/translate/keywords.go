package translate

import "strings"

// applyKeywordStage runs the keyword- and quoting-level rewrites, in
// order.
func applyKeywordStage(toks []Token) []Token {
	toks = rewriteBeginMode(toks)
	toks = rewriteReplaceInto(toks)
	toks = rewriteGlob(toks)
	toks = rewriteBackticks(toks)
	toks = rewriteQuotedIdentLiterals(toks)
	toks = stripCollate(toks)
	toks = rewriteEmptyIn(toks)
	toks = stripIndexedBy(toks)
	toks = rewriteSqliteMaster(toks)
	return toks
}

// rewriteBeginMode drops SQLite's transaction-mode qualifiers; the server
// has no equivalent and always takes the strongest lock a statement needs.
func rewriteBeginMode(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	i := 0
	for i < len(toks) {
		if toks[i].Is("BEGIN") {
			out = append(out, toks[i])
			i++
			j := skipSpace(toks, i)
			if j < len(toks) && (toks[j].Is("IMMEDIATE") || toks[j].Is("DEFERRED") || toks[j].Is("EXCLUSIVE")) {
				i = j + 1
				continue
			}
			continue
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

// rewriteReplaceInto folds REPLACE INTO / INSERT OR REPLACE INTO / INSERT OR
// IGNORE INTO down to plain INSERT INTO. The upsert semantics those forms
// imply are handled separately, by an UpsertRule matched on table name
// (internal/policy), not by this textual stage.
func rewriteReplaceInto(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	i := 0
	for i < len(toks) {
		if toks[i].Is("REPLACE") {
			j := skipSpace(toks, i+1)
			if j < len(toks) && toks[j].Is("INTO") {
				out = append(out, Token{Ident, "INSERT"}, sp, Token{Ident, "INTO"})
				i = j + 1
				continue
			}
		}
		if toks[i].Is("INSERT") {
			j := skipSpace(toks, i+1)
			if j < len(toks) && toks[j].Is("OR") {
				k := skipSpace(toks, j+1)
				if k < len(toks) && (toks[k].Is("REPLACE") || toks[k].Is("IGNORE")) {
					l := skipSpace(toks, k+1)
					if l < len(toks) && toks[l].Is("INTO") {
						out = append(out, Token{Ident, "INSERT"}, sp, Token{Ident, "INTO"})
						i = l + 1
						continue
					}
				}
			}
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

func rewriteGlob(toks []Token) []Token {
	out := make([]Token, len(toks))
	copy(out, toks)
	for i, t := range out {
		if t.Is("GLOB") {
			out[i] = Token{Ident, "LIKE"}
		}
	}
	return out
}

// rewriteBackticks converts `backtick` identifiers to the server's
// "double quoted" form, doubling any embedded double quote.
func rewriteBackticks(toks []Token) []Token {
	out := make([]Token, len(toks))
	for i, t := range toks {
		if t.Kind == Backtick {
			inner := t.Text
			if len(inner) >= 2 {
				inner = inner[1 : len(inner)-1]
			}
			inner = strings.ReplaceAll(inner, "\"", "\"\"")
			out[i] = Token{QIdent, "\"" + inner + "\""}
		} else {
			out[i] = t
		}
	}
	return out
}

// rewriteQuotedIdentLiterals handles SQLite's historical leniency allowing a
// single-quoted string anywhere an identifier is expected: "AS 'alias'" and
// "tbl.'col'" both become double-quoted identifiers.
func rewriteQuotedIdentLiterals(toks []Token) []Token {
	out := make([]Token, len(toks))
	copy(out, toks)
	for i := range out {
		if out[i].Kind != QString {
			continue
		}
		isAliasPosition := false
		for p := i - 1; p >= 0; p-- {
			if out[p].Kind == Space {
				continue
			}
			isAliasPosition = out[p].Is("AS") || out[p].IsPunct(".")
			break
		}
		if isAliasPosition {
			out[i] = Token{QIdent, "\"" + strings.ReplaceAll(unquoteSingle(out[i].Text), "\"", "\"\"") + "\""}
		}
	}
	return out
}

// stripCollate drops "COLLATE name" entirely; the server's default
// collation is used instead in every case the shim observed.
func stripCollate(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	i := 0
	for i < len(toks) {
		if toks[i].Is("COLLATE") {
			j := skipSpace(toks, i+1)
			if j < len(toks) && (toks[j].Kind == Ident || toks[j].Kind == QString || toks[j].Kind == QIdent) {
				i = j + 1
				continue
			}
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

// rewriteEmptyIn turns "IN ()" into "IN (NULL)"; the server rejects an
// empty IN-list as a syntax error where SQLite silently treats it as
// always-false.
func rewriteEmptyIn(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	i := 0
	for i < len(toks) {
		if toks[i].Is("IN") {
			j := skipSpace(toks, i+1)
			if j < len(toks) && toks[j].IsPunct("(") {
				k := skipSpace(toks, j+1)
				if k < len(toks) && toks[k].IsPunct(")") {
					out = append(out, toks[i], sp, Token{Punct, "("}, Token{Ident, "NULL"}, Token{Punct, ")"})
					i = k + 1
					continue
				}
			}
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

// stripIndexedBy drops "INDEXED BY name"; the query planner chooses its own
// index on the server and SQLite's index hint has no equivalent.
func stripIndexedBy(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	i := 0
	for i < len(toks) {
		if toks[i].Is("INDEXED") {
			j := skipSpace(toks, i+1)
			if j < len(toks) && toks[j].Is("BY") {
				k := skipSpace(toks, j+1)
				if k < len(toks) && toks[k].Kind == Ident {
					i = k + 1
					continue
				}
			}
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

// sqliteMasterView is the shadow relation substituted for a reference to
// sqlite_master/sqlite_schema, built from the server's own catalog.
const sqliteMasterView = `(SELECT table_name AS name, 'table' AS type, table_name AS tbl_name, 0 AS rootpage, NULL AS sql FROM information_schema.tables WHERE table_schema = current_schema() UNION ALL SELECT indexname AS name, 'index' AS type, tablename AS tbl_name, 0 AS rootpage, indexdef AS sql FROM pg_indexes WHERE schemaname = current_schema())`

func rewriteSqliteMaster(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == Ident && (strings.EqualFold(t.Text, "sqlite_master") || strings.EqualFold(t.Text, "sqlite_schema")) {
			out = append(out, Token{Punct, sqliteMasterView})
			j := skipSpace(toks, i+1)
			hasExplicitAlias := j < len(toks) && (toks[j].Is("AS") || (toks[j].Kind == Ident && !isClauseKeyword(toks[j])))
			if !hasExplicitAlias {
				out = append(out, sp, Token{Ident, "AS"}, sp, Token{Ident, t.Text})
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

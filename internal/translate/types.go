package translate

import "strings"

// applyTypeStage rewrites SQLite DDL column-type spellings into their
// server-side equivalents. Translate runs it on every statement, DDL or
// not; that is harmless since none of its patterns occur outside a
// column-type position in practice.
func applyTypeStage(toks []Token) []Token {
	toks = rewriteAutoincrement(toks)
	toks = rewriteBlobType(toks)
	toks = rewriteBooleanDefaults(toks)
	return toks
}

// rewriteAutoincrement turns "INTEGER PRIMARY KEY AUTOINCREMENT" into
// "SERIAL PRIMARY KEY" (dropping the redundant AUTOINCREMENT keyword, which
// the server expresses through the SERIAL pseudo-type instead).
func rewriteAutoincrement(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	i := 0
	for i < len(toks) {
		if toks[i].Is("INTEGER") {
			j := skipSpace(toks, i+1)
			if j < len(toks) && toks[j].Is("PRIMARY") {
				k := skipSpace(toks, j+1)
				if k < len(toks) && toks[k].Is("KEY") {
					l := skipSpace(toks, k+1)
					if l < len(toks) && toks[l].Is("AUTOINCREMENT") {
						out = append(out, Token{Ident, "SERIAL"}, sp, Token{Ident, "PRIMARY"}, sp, Token{Ident, "KEY"})
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

func rewriteBlobType(toks []Token) []Token {
	out := make([]Token, len(toks))
	copy(out, toks)
	for i, t := range out {
		if t.Is("BLOB") {
			out[i] = Token{Ident, "BYTEA"}
		}
	}
	return out
}

// rewriteBooleanDefaults rewrites "DEFAULT 't'"/"DEFAULT 'f'" to
// "DEFAULT TRUE"/"DEFAULT FALSE", the only single-character literal forms
// SQLite's boolean convention uses in Plex's own schema.
func rewriteBooleanDefaults(toks []Token) []Token {
	out := make([]Token, 0, len(toks))
	i := 0
	for i < len(toks) {
		if toks[i].Is("DEFAULT") {
			j := skipSpace(toks, i+1)
			if j < len(toks) && toks[j].Kind == QString {
				inner := strings.ToLower(unquoteSingle(toks[j].Text))
				if inner == "t" || inner == "f" {
					out = append(out, Token{Ident, "DEFAULT"}, sp)
					if inner == "t" {
						out = append(out, Token{Ident, "TRUE"})
					} else {
						out = append(out, Token{Ident, "FALSE"})
					}
					i = j + 1
					continue
				}
			}
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

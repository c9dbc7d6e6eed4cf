package translate

// findCall locates the next call to name (case-insensitive identifier
// immediately followed, modulo whitespace, by an open paren) at or after
// index from. Returns the index of the identifier token, the index of the
// open paren, the index of the matching close paren, and ok=false if no
// more calls exist.
func findCall(toks []Token, from int, name string) (identIdx, openIdx, closeIdx int, ok bool) {
	for i := from; i < len(toks); i++ {
		if !toks[i].Is(name) {
			continue
		}
		j := skipSpace(toks, i+1)
		if j >= len(toks) || !toks[j].IsPunct("(") {
			continue
		}
		depth := 0
		k := j
		for ; k < len(toks); k++ {
			if toks[k].IsPunct("(") {
				depth++
			} else if toks[k].IsPunct(")") {
				depth--
				if depth == 0 {
					return i, j, k, true
				}
			}
		}
		// unbalanced; give up on this occurrence and keep scanning.
	}
	return 0, 0, 0, false
}

// splitArgs splits the tokens strictly between openIdx and closeIdx into
// top-level comma-separated argument token slices, trimming surrounding
// Space tokens from each argument. A call with no arguments at all (only
// whitespace between the parens) yields a nil slice.
func splitArgs(toks []Token, openIdx, closeIdx int) [][]Token {
	inner := toks[openIdx+1 : closeIdx]
	if len(trimSpace(inner)) == 0 {
		return nil
	}

	var args [][]Token
	depth := 0
	start := 0
	for i, t := range inner {
		switch {
		case t.IsPunct("(") || t.IsPunct("["):
			depth++
		case t.IsPunct(")") || t.IsPunct("]"):
			depth--
		case t.IsPunct(",") && depth == 0:
			args = append(args, trimSpace(inner[start:i]))
			start = i + 1
		}
	}
	args = append(args, trimSpace(inner[start:]))
	return args
}

func trimSpace(toks []Token) []Token {
	i, j := 0, len(toks)
	for i < j && toks[i].Kind == Space {
		i++
	}
	for j > i && toks[j-1].Kind == Space {
		j--
	}
	return toks[i:j]
}

func renameIdent(toks []Token, from int, oldName, newName string) []Token {
	out := make([]Token, len(toks))
	copy(out, toks)
	for i := from; i < len(out); i++ {
		if out[i].Is(oldName) {
			out[i] = Token{Ident, newName}
		}
	}
	return out
}

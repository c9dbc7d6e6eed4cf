package engine

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/jabrown93/plex-postgresql-sub000/internal/classify"
	"github.com/jabrown93/plex-postgresql-sub000/internal/connreg"
	"github.com/jabrown93/plex-postgresql-sub000/internal/genid"
	"github.com/jabrown93/plex-postgresql-sub000/internal/hashkey"
	"github.com/jabrown93/plex-postgresql-sub000/internal/policy"
	"github.com/jabrown93/plex-postgresql-sub000/internal/result"
	"github.com/jabrown93/plex-postgresql-sub000/internal/translate"
)

// Deps bundles the shared, process-wide collaborators Prepare needs beyond
// the per-call SQL and Connection: the classifier for redirect/skip/kind
// decisions, the settings-upsert policy registry, and the generator-id
// singleton.
type Deps struct {
	Classifier *classify.Classifier
	Policy     *policy.Registry
	GenID      *genid.Store
	DeclTypes  *result.DeclTypeCache
	// Pool is non-nil when the database being prepared against is
	// configured as a pooled (high-traffic) path.
	Pool *connreg.Pool
	Log  zerolog.Logger
}

// Prepare classifies and translates originalSQL and returns a Statement
// ready for Bind/Step. It performs no server I/O: the server-side PREPARE
// happens lazily, on first Step.
func Prepare(conn *connreg.Connection, originalSQL string, deps Deps) *Statement {
	s := &Statement{
		Conn:        conn,
		Pool:        deps.Pool,
		GenID:       deps.GenID,
		OriginalSQL: originalSQL,
		DeclTypes:   deps.DeclTypes,
		log:         deps.Log,
	}

	if deps.Classifier.Skip(originalSQL) {
		s.Role = RoleSkip
		return s
	}

	res := translate.Translate(originalSQL)
	if !res.Success {
		s.Role = RoleSkip
		s.TranslationFailed = true
		return s
	}

	sql := res.SQL
	kind := classify.Classify(originalSQL)

	switch kind {
	case classify.Read:
		s.Role = RoleRead
	case classify.Write:
		s.Role = RoleWrite
	default:
		s.Role = RoleOther
	}

	names := make([]string, len(res.ParamNames))
	for i, n := range res.ParamNames {
		if n != nil {
			names[i] = *n
		}
	}
	s.ParamNames = names
	s.ParamCount = res.ParamCount
	if s.ParamCount > MaxParams {
		s.ParamCount = MaxParams
	}

	if s.Role == RoleWrite {
		if rewritten, ok := tryRewriteInsertUpsert(sql, deps.Policy); ok {
			sql = rewritten
		} else if !containsFold(sql, "RETURNING") {
			sql = sql + " RETURNING id"
			s.ReturningInjected = true
		}
	}

	s.SQL = sql
	s.SQLHash = hashkey.SQL(sql)
	s.StmtName = hashkey.StatementName(s.SQLHash)
	return s
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(substr))
}

// tryRewriteInsertUpsert recognizes a plain "INSERT INTO table (cols...)
// VALUES (phs...)" with no ON CONFLICT clause and, if table matches a
// configured policy.UpsertRule, rewrites it into the rule's explicit
// upsert form.
func tryRewriteInsertUpsert(sql string, reg *policy.Registry) (string, bool) {
	if reg == nil {
		return sql, false
	}
	toks := translate.Lex(sql)

	i := skipSp(toks, 0)
	if !at(toks, i, "INSERT") {
		return sql, false
	}
	i = skipSp(toks, i+1)
	if !at(toks, i, "INTO") {
		return sql, false
	}
	i = skipSp(toks, i+1)
	if i >= len(toks) || toks[i].Kind != translate.Ident {
		return sql, false
	}
	table := toks[i].Text
	i = skipSp(toks, i+1)
	if i >= len(toks) || !toks[i].IsPunct("(") {
		return sql, false
	}
	colsOpen := i
	colsClose := matchParen(toks, colsOpen)
	if colsClose < 0 {
		return sql, false
	}
	columns := identList(splitTopLevel(toks[colsOpen+1 : colsClose]))

	i = skipSp(toks, colsClose+1)
	if !at(toks, i, "VALUES") {
		return sql, false
	}
	i = skipSp(toks, i+1)
	if i >= len(toks) || !toks[i].IsPunct("(") {
		return sql, false
	}
	valsOpen := i
	valsClose := matchParen(toks, valsOpen)
	if valsClose < 0 {
		return sql, false
	}
	placeholders := renderList(splitTopLevel(toks[valsOpen+1 : valsClose]))

	tail := translate.Render(toks[valsClose+1:])
	if containsFold(tail, "ON CONFLICT") {
		return sql, false
	}

	rule, ok := reg.Lookup(table)
	if !ok {
		return sql, false
	}
	return policy.BuildUpsertSQL(table, columns, placeholders, rule) + tail, true
}

func skipSp(toks []translate.Token, i int) int {
	for i < len(toks) && toks[i].Kind == translate.Space {
		i++
	}
	return i
}

func at(toks []translate.Token, i int, word string) bool {
	return i < len(toks) && toks[i].Is(word)
}

// matchParen returns the index of the Punct ")" matching the Punct "(" at
// open, or -1 if unbalanced.
func matchParen(toks []translate.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].IsPunct("("):
			depth++
		case toks[i].IsPunct(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits toks on Punct "," at paren-depth zero.
func splitTopLevel(toks []translate.Token) [][]translate.Token {
	var groups [][]translate.Token
	depth := 0
	start := 0
	for i, t := range toks {
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
		case t.IsPunct(",") && depth == 0:
			groups = append(groups, toks[start:i])
			start = i + 1
		}
	}
	groups = append(groups, toks[start:])
	return groups
}

func trimSp(toks []translate.Token) []translate.Token {
	i, j := 0, len(toks)
	for i < j && toks[i].Kind == translate.Space {
		i++
	}
	for j > i && toks[j-1].Kind == translate.Space {
		j--
	}
	return toks[i:j]
}

// identList renders each group as a bare column name, stripping
// double-quote delimiters so policy.UpsertRule compares plain names.
func identList(groups [][]translate.Token) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		g = trimSp(g)
		if len(g) == 1 && g[0].Kind == translate.QIdent {
			out[i] = strings.Trim(g[0].Text, `"`)
		} else {
			out[i] = translate.Render(g)
		}
	}
	return out
}

func renderList(groups [][]translate.Token) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = translate.Render(trimSp(g))
	}
	return out
}

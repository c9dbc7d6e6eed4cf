// Package classify decides, for a given database path and SQL string,
// whether the database should be redirected, whether the statement is a
// no-op, and whether it reads or writes.
package classify

import "strings"

// Kind is the first-keyword classification of a statement.
type Kind int

const (
	Other Kind = iota
	Read
	Write
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "other"
	}
}

// Classifier holds the configured redirect and skip pattern lists. It is
// pure and holds no per-call state, so one instance may be shared freely.
type Classifier struct {
	redirectPatterns []string
	skipPatterns     []string
}

// New builds a Classifier from the configured pattern lists. Patterns are
// matched case-insensitively.
func New(redirectPatterns, skipPatterns []string) *Classifier {
	c := &Classifier{
		redirectPatterns: lower(redirectPatterns),
		skipPatterns:     lower(skipPatterns),
	}
	return c
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Redirect reports whether path matches any configured redirect pattern.
// A substring match anywhere in the path is sufficient.
func (c *Classifier) Redirect(path string) bool {
	lp := strings.ToLower(path)
	for _, p := range c.redirectPatterns {
		if p != "" && strings.Contains(lp, p) {
			return true
		}
	}
	return false
}

// Skip reports whether sql should be treated as a no-op: a substring match
// anywhere in the (whitespace-tolerant, case-insensitive) SQL text is
// sufficient, deliberately, to catch embedded references to internal
// catalogs.
func (c *Classifier) Skip(sql string) bool {
	ls := strings.ToLower(sql)
	for _, p := range c.skipPatterns {
		if p != "" && strings.Contains(ls, p) {
			return true
		}
	}
	return false
}

// Classify reports the read/write/other kind of sql, from its first
// keyword, case-insensitively and ignoring leading whitespace.
func Classify(sql string) Kind {
	trimmed := strings.TrimLeft(sql, " \t\r\n")
	word := firstWord(trimmed)
	switch strings.ToUpper(word) {
	case "SELECT":
		return Read
	case "INSERT", "UPDATE", "DELETE", "REPLACE":
		return Write
	default:
		return Other
	}
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' {
			return s[:i]
		}
	}
	return s
}

// Package policy keeps the host-specific rewrite rules out of the engine:
// a plain INSERT into a configured table is rewritten into an explicit
// "INSERT ... ON CONFLICT ... DO UPDATE" upsert through a small pluggable
// interface instead of a hardcoded path.
package policy

import (
	"fmt"
	"strings"
)

// UpsertRule decides whether a plain INSERT into table should instead be
// rewritten as an explicit upsert, and if so with which conflict key and
// update-column set.
type UpsertRule interface {
	Matches(table string) bool
	ConflictColumns() []string
	ToggleColumn() string // "" if no toggle column applies
}

// SettingsToggleRule is the one shipped implementation: the
// watched/unwatched toggle rule for a settings-like table, selected by
// configured table name rather than hardcoded.
type SettingsToggleRule struct {
	Table     string
	Conflict  []string
	ToggleCol string
}

func NewSettingsToggleRule(table string, conflictColumns []string, toggleColumn string) *SettingsToggleRule {
	return &SettingsToggleRule{Table: table, Conflict: conflictColumns, ToggleCol: toggleColumn}
}

func (r *SettingsToggleRule) Matches(table string) bool {
	return strings.EqualFold(table, r.Table)
}

func (r *SettingsToggleRule) ConflictColumns() []string { return r.Conflict }

func (r *SettingsToggleRule) ToggleColumn() string { return r.ToggleCol }

// Registry looks up the matching rule, if any, for a given table name.
type Registry struct {
	rules []UpsertRule
}

func NewRegistry(rules ...UpsertRule) *Registry {
	return &Registry{rules: rules}
}

func (reg *Registry) Lookup(table string) (UpsertRule, bool) {
	for _, r := range reg.rules {
		if r.Matches(table) {
			return r, true
		}
	}
	return nil, false
}

// BuildUpsertSQL rewrites a plain "INSERT INTO table (columns) VALUES
// ($1,...)" into its upsert form for rule. Columns not in the conflict set
// are updated from EXCLUDED; the rule's toggle column, if any, flips its
// boolean value on conflict instead of overwriting it from the incoming
// row, preserving the watched/unwatched toggle semantics.
func BuildUpsertSQL(table string, columns []string, placeholders []string, rule UpsertRule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(quoteIdents(columns), ", "), strings.Join(placeholders, ", "))

	conflict := rule.ConflictColumns()
	fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET ", strings.Join(quoteIdents(conflict), ", "))

	conflictSet := make(map[string]bool, len(conflict))
	for _, c := range conflict {
		conflictSet[strings.ToLower(c)] = true
	}

	var sets []string
	for _, c := range columns {
		if conflictSet[strings.ToLower(c)] {
			continue
		}
		qc := quoteIdent(c)
		if strings.EqualFold(c, rule.ToggleColumn()) {
			sets = append(sets, fmt.Sprintf("%s = NOT %s.%s", qc, quoteIdent(table), qc))
		} else {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", qc, qc))
		}
	}
	b.WriteString(strings.Join(sets, ", "))
	return b.String()
}

func quoteIdent(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

func quoteIdents(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = quoteIdent(s)
	}
	return out
}

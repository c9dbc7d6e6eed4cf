// Package genid holds the process-wide "last generator id" singleton:
// explicitly initialized process state, an accepted cross-thread coupling
// hack for one specific host behavior. Generator-inserts carry an encoded
// item id in a URI literal; the id is extracted here and stashed for later
// translated SELECTs containing `IN (NULL)` to have that literal
// substituted at prepare time.
package genid

import (
	"regexp"
	"strconv"
	"sync/atomic"
)

// uriIDPattern matches the numeric id immediately following a scheme's
// "://" in a generator-agent URI literal, e.g. 'com.plexapp.agents.none://12345/6/7'.
var uriIDPattern = regexp.MustCompile(`://(\d+)`)

// ExtractID pulls the generator item id out of sql, if present.
func ExtractID(sql string) (int64, bool) {
	m := uriIDPattern.FindStringSubmatch(sql)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Store is the process-wide last-generator-id slot. Zero value is ready to
// use; Get returns 0 until the first Set, matching the C original's
// zero-initialized global.
type Store struct {
	last atomic.Int64
}

func (s *Store) Set(id int64) { s.last.Store(id) }

func (s *Store) Get() int64 { return s.last.Load() }

// SubstituteEmptyIN replaces the first "IN (NULL)" in sql with the stored
// id, when nonzero. Returns sql
// unchanged when the slot is zero or no such placeholder is present.
func (s *Store) SubstituteEmptyIN(sql string) string {
	id := s.Get()
	if id == 0 {
		return sql
	}
	const placeholder = "IN (NULL)"
	idx := indexFold(sql, placeholder)
	if idx < 0 {
		return sql
	}
	return sql[:idx] + "IN (" + strconv.FormatInt(id, 10) + ")" + sql[idx+len(placeholder):]
}

func indexFold(s, substr string) int {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(substr))
	loc := re.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

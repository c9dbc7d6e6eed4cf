package engine

import (
	"strconv"

	"github.com/jabrown93/plex-postgresql-sub000/internal/genid"
	"github.com/jabrown93/plex-postgresql-sub000/internal/hashkey"
)

func sqlHashOf(sql string) uint64   { return hashkey.SQL(sql) }
func stmtNameOf(hash uint64) string { return hashkey.StatementName(hash) }
func hashText(hash uint64) string   { return strconv.FormatUint(hash, 16) }

func genIDFromInsert(sql string) (int64, bool) { return genid.ExtractID(sql) }

// Package adapter provides the concrete backend adapters (C5) the
// composition engine formats placeholders through: Postgres (`$N`,
// 1-based) and the question-mark family shared by MySQL and SQLite.
package adapter

import (
	"strconv"

	"github.com/kelsora/sqltpl"
)

// Postgres formats `$N` placeholders, 1-based and monotonically
// increasing with the engine's placeholder index.
type Postgres struct{}

func (Postgres) BindVarTag(index int, _ string) string {
	return "$" + strconv.Itoa(index)
}

func (Postgres) StartOffset() int { return 1 }

func (Postgres) Dialect() sqltpl.Dialect { return sqltpl.DialectPostgres }

// questionMark formats the `?` placeholder shared by MySQL and SQLite;
// both drivers ignore the placeholder index entirely.
type questionMark struct {
	dialect sqltpl.Dialect
}

func (questionMark) BindVarTag(_ int, _ string) string { return "?" }

func (questionMark) StartOffset() int { return 1 }

func (q questionMark) Dialect() sqltpl.Dialect { return q.dialect }

// MySQL formats `?` placeholders, ignoring the placeholder index.
func MySQL() sqltpl.Adapter { return questionMark{dialect: sqltpl.DialectMySQL} }

// SQLite formats `?` placeholders, ignoring the placeholder index.
func SQLite() sqltpl.Adapter { return questionMark{dialect: sqltpl.DialectSQLite} }

// ForDialect resolves a Dialect (e.g. parsed from a `--uri` scheme) to its
// Adapter.
func ForDialect(d sqltpl.Dialect) (sqltpl.Adapter, bool) {
	switch d {
	case sqltpl.DialectPostgres:
		return Postgres{}, true
	case sqltpl.DialectMySQL:
		return MySQL(), true
	case sqltpl.DialectSQLite:
		return SQLite(), true
	default:
		return nil, false
	}
}

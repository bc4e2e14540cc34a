package sqltpl

// Dialect names a supported SQL backend family. It is shared across the
// library and the CLI.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// Adapter is the narrow contract the composition engine (C4) consumes
// from a backend. It is never consulted for structural decisions —
// spacing, command expansion, and mock layout are engine-owned — only
// for placeholder formatting.
type Adapter interface {
	// BindVarTag formats one placeholder. SQLite and MySQL adapters
	// ignore index and return "?"; the PostgreSQL adapter returns "$N".
	BindVarTag(index int, name string) string

	// StartOffset reports the adapter's preferred initial placeholder
	// index. It exists for documentation and for adapters embedded as a
	// sub-engine starting point other than 1; Compose's public entry
	// point always begins at 1 regardless (see DESIGN.md).
	StartOffset() int

	// Dialect identifies the backend family this adapter targets.
	Dialect() Dialect
}

package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kelsora/sqltpl"
	"github.com/kelsora/sqltpl/adapter"
)

// resolved bundles everything query execution needs for one backend:
// the composition adapter, the database/sql driver name registered by a
// blank import, and the connection string to hand sql.Open.
type resolved struct {
	adapter sqltpl.Adapter
	driver  string
	dsn     string
}

// resolveTarget picks a backend from --uri when given, or from --dialect
// for a dry run with no live connection.
func resolveTarget(uri, dialect string) (resolved, error) {
	if uri != "" {
		return resolveURI(uri)
	}
	if dialect != "" {
		return resolveDialect(dialect)
	}
	return resolved{}, fmt.Errorf("%w: pass --uri or --dialect", errNoTarget)
}

func resolveURI(uri string) (resolved, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return resolved{}, fmt.Errorf("invalid --uri %q: %w", uri, err)
	}
	r, err := resolveDialect(u.Scheme)
	if err != nil {
		return resolved{}, err
	}
	r.dsn = strings.TrimPrefix(uri, u.Scheme+"://")
	return r, nil
}

func resolveDialect(name string) (resolved, error) {
	dialect, driver, ok := canonicalDialect(name)
	if !ok {
		return resolved{}, fmt.Errorf("%w: %s", errUnsupportedDialect, name)
	}
	a, ok := adapter.ForDialect(dialect)
	if !ok {
		return resolved{}, fmt.Errorf("%w: %s", errUnsupportedDialect, name)
	}
	return resolved{adapter: a, driver: driver}, nil
}

func canonicalDialect(name string) (sqltpl.Dialect, string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return sqltpl.DialectPostgres, "pgx", true
	case "mysql", "mariadb":
		return sqltpl.DialectMySQL, "mysql", true
	case "sqlite", "sqlite3":
		return sqltpl.DialectSQLite, "sqlite3", true
	default:
		return "", "", false
	}
}

package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kelsora/sqltpl"
	"github.com/kelsora/sqltpl/adapter"
)

func TestPostgresBindVarTag(t *testing.T) {
	p := adapter.Postgres{}
	assert.Equal(t, "$1", p.BindVarTag(1, "name"))
	assert.Equal(t, "$42", p.BindVarTag(42, "name"))
	assert.Equal(t, 1, p.StartOffset())
	assert.Equal(t, sqltpl.DialectPostgres, p.Dialect())
}

func TestQuestionMarkAdaptersIgnoreIndex(t *testing.T) {
	for _, a := range []sqltpl.Adapter{adapter.MySQL(), adapter.SQLite()} {
		assert.Equal(t, "?", a.BindVarTag(1, "name"))
		assert.Equal(t, "?", a.BindVarTag(99, "name"))
	}
}

func TestForDialect(t *testing.T) {
	a, ok := adapter.ForDialect(sqltpl.DialectMySQL)
	assert.True(t, ok)
	assert.Equal(t, sqltpl.DialectMySQL, a.Dialect())

	_, ok = adapter.ForDialect(sqltpl.Dialect("oracle"))
	assert.False(t, ok)
}

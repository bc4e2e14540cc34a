package compose_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsora/sqltpl"
	"github.com/kelsora/sqltpl/adapter"
	"github.com/kelsora/sqltpl/compose"
	"github.com/kelsora/sqltpl/parser"
)

func mustParse(t *testing.T, src string) *sqltpl.Composition {
	t.Helper()
	comp, err := parser.ParseTemplate([]byte(src), "inline")
	require.NoError(t, err)
	return comp
}

func TestComposeSimpleBinding(t *testing.T) {
	tpl := mustParse(t, "INSERT INTO person (name, data) VALUES (:name:, :data:);")
	binds := sqltpl.BindMap{"name": {"Steven"}, "data": {nil}}

	sql, params, err := compose.Compose(tpl, adapter.Postgres{}, binds, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO person (name, data) VALUES ($1, $2);", sql)
	assert.Equal(t, []sqltpl.Value{"Steven", nil}, params)
}

func TestComposeQuotedBindingReused(t *testing.T) {
	tpl := mustParse(t, "SELECT id FROM person WHERE name = ':name:' AND name = ':name:';")
	binds := sqltpl.BindMap{"name": {"Steven"}}

	sql, params, err := compose.Compose(tpl, adapter.Postgres{}, binds, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM person WHERE name = $1 AND name = $2;", sql)
	assert.Equal(t, []sqltpl.Value{"Steven", "Steven"}, params)
}

func TestComposeIncludeExpansion(t *testing.T) {
	tpl, err := parser.ParsePath("../parser/testdata/outer.tql")
	require.NoError(t, err)
	binds := sqltpl.BindMap{"a": {"x"}, "b": {"y"}}

	sql, params, err := compose.Compose(tpl, adapter.SQLite(), binds, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM (SELECT ? AS col_1, ? AS col_2) AS t;", sql)
	assert.Equal(t, []sqltpl.Value{"x", "y"}, params)
}

func TestComposeMultiValueIn(t *testing.T) {
	tpl := mustParse(t, "SELECT * FROM t WHERE c IN (:xs:);")
	binds := sqltpl.BindMap{"xs": {"a", "b", "c"}}

	sql, params, err := compose.Compose(tpl, adapter.Postgres{}, binds, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE c IN ($1, $2, $3);", sql)
	assert.Equal(t, []sqltpl.Value{"a", "b", "c"}, params)
}

func TestComposeMockSubstitution(t *testing.T) {
	tpl := mustParse(t, "SELECT * FROM ::people::;")
	mocks := sqltpl.MockMap{
		sqltpl.DbObject("people"): {
			{{Name: "id", Value: 1}, {Name: "name", Value: "A"}},
			{{Name: "id", Value: 2}, {Name: "name", Value: "B"}},
		},
	}

	sql, params, err := compose.Compose(tpl, adapter.Postgres{}, nil, nil, mocks)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM ( SELECT $1 AS id, $2 AS name UNION ALL SELECT $3 AS id, $4 AS name ) AS people;", sql)
	assert.Equal(t, []sqltpl.Value{1, "A", 2, "B"}, params)
}

func TestComposeCountCommand(t *testing.T) {
	sub := mustParse(t, "SELECT x FROM t WHERE y = :y:")
	root := &sqltpl.Composition{
		SourceID: "root",
		Command:  &sqltpl.Command{Verb: sqltpl.VerbCount, Of: []sqltpl.AliasKey{sqltpl.DbObject("q")}},
		Aliases:  map[sqltpl.AliasKey]*sqltpl.Composition{sqltpl.DbObject("q"): sub},
		Fragments: []sqltpl.Fragment{
			{Kind: sqltpl.FragmentEnding, Text: ";"},
		},
	}
	binds := sqltpl.BindMap{"y": {7}}

	sql, params, err := compose.Compose(root, adapter.Postgres{}, binds, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(1) FROM ( SELECT x FROM t WHERE y = $1 ) AS count_main;", sql)
	assert.Equal(t, []sqltpl.Value{7}, params)
}

func TestComposeCommandEvaluatesOnlyFirstOfEntry(t *testing.T) {
	a := mustParse(t, "SELECT x FROM a WHERE y = :y:")
	b := mustParse(t, "SELECT x FROM b")
	root := &sqltpl.Composition{
		SourceID: "root",
		Command:  &sqltpl.Command{Verb: sqltpl.VerbCompose, Of: []sqltpl.AliasKey{sqltpl.DbObject("a"), sqltpl.DbObject("b")}},
		Aliases: map[sqltpl.AliasKey]*sqltpl.Composition{
			sqltpl.DbObject("a"): a,
			sqltpl.DbObject("b"): b,
		},
		Fragments: []sqltpl.Fragment{
			{Kind: sqltpl.FragmentEnding, Text: ";"},
		},
	}
	binds := sqltpl.BindMap{"y": {7}}

	sql, params, err := compose.Compose(root, adapter.Postgres{}, binds, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT x FROM a WHERE y = $1;", sql)
	assert.Equal(t, []sqltpl.Value{7}, params)
}

func TestComposeCommandMockPathBranch(t *testing.T) {
	sub := mustParse(t, "SELECT x FROM a")
	root := &sqltpl.Composition{
		SourceID: "root",
		Command:  &sqltpl.Command{Verb: sqltpl.VerbCompose, Of: []sqltpl.AliasKey{sqltpl.Path("/tmp/q.tql")}},
		Aliases:  map[sqltpl.AliasKey]*sqltpl.Composition{sqltpl.Path("/tmp/q.tql"): sub},
	}
	mocks := sqltpl.MockMap{
		sqltpl.Path("/tmp/q.tql"): {
			{{Name: "id", Value: 1}},
		},
	}

	sql, params, err := compose.Compose(root, adapter.Postgres{}, nil, nil, mocks)
	require.NoError(t, err)
	assert.Equal(t, "SELECT $1 AS id", sql)
	assert.Equal(t, []sqltpl.Value{1}, params)
}

func TestComposeUnionCommandHappyPath(t *testing.T) {
	a := mustParse(t, "SELECT x FROM a")
	b := mustParse(t, "SELECT x FROM b")
	root := &sqltpl.Composition{
		SourceID: "root",
		Command:  &sqltpl.Command{Verb: sqltpl.VerbUnion, Of: []sqltpl.AliasKey{sqltpl.DbObject("a"), sqltpl.DbObject("b")}},
		Aliases: map[sqltpl.AliasKey]*sqltpl.Composition{
			sqltpl.DbObject("a"): a,
			sqltpl.DbObject("b"): b,
		},
		Fragments: []sqltpl.Fragment{
			{Kind: sqltpl.FragmentEnding, Text: ";"},
		},
	}

	sql, params, err := compose.Compose(root, adapter.Postgres{}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT x FROM a UNION SELECT x FROM b;", sql)
	assert.Empty(t, params)
}

func TestComposeUnionCommandRequiresTwoEntries(t *testing.T) {
	sub := mustParse(t, "SELECT 1")
	root := &sqltpl.Composition{
		SourceID: "root",
		Command:  &sqltpl.Command{Verb: sqltpl.VerbUnion, Of: []sqltpl.AliasKey{sqltpl.DbObject("a")}},
		Aliases:  map[sqltpl.AliasKey]*sqltpl.Composition{sqltpl.DbObject("a"): sub},
	}
	_, _, err := compose.Compose(root, adapter.Postgres{}, nil, nil, nil)
	require.Error(t, err)
	var arityErr *sqltpl.CommandArityError
	require.ErrorAs(t, err, &arityErr)
}

func TestComposeMissingBindingErrors(t *testing.T) {
	tpl := mustParse(t, "SELECT :missing:;")
	_, _, err := compose.Compose(tpl, adapter.Postgres{}, nil, nil, nil)
	require.Error(t, err)
	var mbErr *sqltpl.MissingBindingError
	require.ErrorAs(t, err, &mbErr)
}

func TestComposeEmptyMockErrors(t *testing.T) {
	tpl := mustParse(t, "SELECT * FROM ::people::;")
	mocks := sqltpl.MockMap{sqltpl.DbObject("people"): {}}
	_, _, err := compose.Compose(tpl, adapter.Postgres{}, nil, nil, mocks)
	require.Error(t, err)
	var emErr *sqltpl.EmptyMockError
	require.ErrorAs(t, err, &emErr)
}

func TestComposeMockShapeErrors(t *testing.T) {
	tpl := mustParse(t, "SELECT * FROM ::people::;")
	mocks := sqltpl.MockMap{
		sqltpl.DbObject("people"): {
			{{Name: "id", Value: 1}},
			{{Name: "id", Value: 2}, {Name: "name", Value: "B"}},
		},
	}
	_, _, err := compose.Compose(tpl, adapter.Postgres{}, nil, nil, mocks)
	require.Error(t, err)
	var shapeErr *sqltpl.MockShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestComposeChildSuppressesEnding(t *testing.T) {
	// outer.tql ends with ';'; included as a child, that ending is dropped.
	outer := mustParse(t, "SELECT * FROM (::../parser/testdata/outer.tql::) AS o;")
	binds := sqltpl.BindMap{"a": {"x"}, "b": {"y"}}

	sql, _, err := compose.Compose(outer, adapter.SQLite(), binds, nil, nil)
	require.NoError(t, err)
	assert.False(t, strings.Contains(sql, "AS t;"))
	assert.True(t, strings.HasSuffix(sql, ";"))
}

func TestComposeNoDoubleSpacesOrSpaceBeforePunctuation(t *testing.T) {
	tpl := mustParse(t, "SELECT * FROM t WHERE c IN (:xs:);")
	binds := sqltpl.BindMap{"xs": {"a", "b", "c"}}

	sql, _, err := compose.Compose(tpl, adapter.Postgres{}, binds, nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, sql, "  ")
	assert.NotContains(t, sql, " ,")
	assert.NotContains(t, sql, " ;")
}

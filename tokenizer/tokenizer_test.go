package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsora/sqltpl/tokenizer"
)

func TestTokenizeBindingAndEnding(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte("INSERT INTO person (name, data) VALUES (:name:, :data:);"))
	require.NoError(t, err)

	var kinds []tokenizer.TokenType
	for _, tok := range toks {
		kinds = append(kinds, tok.Type)
	}
	assert.Equal(t, []tokenizer.TokenType{
		tokenizer.LITERAL, tokenizer.BINDING, tokenizer.LITERAL, tokenizer.BINDING,
		tokenizer.LITERAL, tokenizer.ENDING, tokenizer.EOF,
	}, kinds)
	assert.Equal(t, "name", toks[1].Value)
	assert.Equal(t, "data", toks[3].Value)
}

func TestTokenizeQuotedBindingStripsQuotes(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte("WHERE name = ':name:' AND name = ':name:';"))
	require.NoError(t, err)

	var bindings int
	for _, tok := range toks {
		if tok.Type == tokenizer.BINDING {
			bindings++
			assert.Equal(t, "name", tok.Value)
		}
		// the quotes must never survive as literal text
		assert.NotContains(t, tok.Value, "'")
	}
	assert.Equal(t, 2, bindings)
}

func TestTokenizeInclude(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte("SELECT * FROM (::inner.tql::) AS t;"))
	require.NoError(t, err)

	var found bool
	for _, tok := range toks {
		if tok.Type == tokenizer.INCLUDE {
			found = true
			assert.Equal(t, "inner.tql", tok.Value)
		}
	}
	assert.True(t, found)
}

func TestTokenizeCommand(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte(":count(q):"))
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, tokenizer.COMMAND, toks[0].Type)
	assert.Equal(t, "count(q)", toks[0].Value)
}

func TestTokenizeUnterminatedIncludeErrors(t *testing.T) {
	_, err := tokenizer.Tokenize([]byte("SELECT ::broken"))
	require.Error(t, err)
}

func TestTokenizeUnterminatedBindingErrors(t *testing.T) {
	_, err := tokenizer.Tokenize([]byte("SELECT :name no_closing_colon"))
	require.Error(t, err)
}

func TestTokenizeLoneColonIsLiteral(t *testing.T) {
	toks, err := tokenizer.Tokenize([]byte("SELECT '12:30:00';"))
	require.NoError(t, err)
	assert.Equal(t, tokenizer.LITERAL, toks[0].Type)
	assert.Contains(t, toks[0].Value, "12:30:00")
}

package tokenizer

// TokenType identifies what a Token represents.
type TokenType int

const (
	// EOF marks the end of input.
	EOF TokenType = iota
	// LITERAL is a run of opaque SQL text containing no meta-tokens.
	LITERAL
	// BINDING is a `:name:` (optionally single-quote wrapped) token.
	// Value holds the bare name.
	BINDING
	// INCLUDE is a `::path_or_alias::` token. Value holds the inner text.
	INCLUDE
	// COMMAND is a `:verb(args):` token. Value holds "verb(args)" with
	// surrounding whitespace trimmed.
	COMMAND
	// ENDING is a trailing `;`.
	ENDING
)

// Token is one lexical unit produced by the Tokenizer.
type Token struct {
	Type TokenType
	// Value holds the token's semantic payload: raw text for LITERAL and
	// ENDING, the bare name for BINDING, the inner path/alias text for
	// INCLUDE, and "verb(args)" for COMMAND.
	Value string
	// Offset is the byte offset of the token's first byte in the source.
	Offset int
}

package sqltpl

import (
	"fmt"
	"strings"
)

// Value is a single opaque parameter value. The engine moves these by
// reference only — it never inspects, coerces, or copies the underlying
// data; that is a driver/adapter concern.
type Value = any

// FragmentKind tags the variant held by a Fragment (§3 data model).
type FragmentKind int

const (
	// FragmentLiteral is opaque SQL text, emitted verbatim.
	FragmentLiteral FragmentKind = iota
	// FragmentKeyword is a reserved token recognized by the parser so
	// that inclusion and command boundaries parse unambiguously. It is
	// emitted exactly like FragmentLiteral.
	FragmentKeyword
	// FragmentBinding is a named parameter slot, `:name:`.
	FragmentBinding
	// FragmentDbObject is a table/view reference eligible for mocking.
	FragmentDbObject
	// FragmentSub is an inlined template, from an `::path::` include or a
	// command's `of` list.
	FragmentSub
	// FragmentEnding is the terminating token, usually `;`. Suppressed
	// when the enclosing composition is emitted as a child.
	FragmentEnding
)

// Fragment is one element of a Composition's fragment sequence. It is a
// tagged union: only the fields relevant to Kind are populated.
type Fragment struct {
	Kind FragmentKind

	// Text holds the literal text for FragmentLiteral, FragmentKeyword,
	// and FragmentEnding fragments.
	Text string

	// Name holds the binding name for FragmentBinding fragments.
	Name string

	// ObjectName and ObjectAlias hold the table/view reference and its
	// optional alias for FragmentDbObject fragments.
	ObjectName  string
	ObjectAlias string

	// Sub holds the nested Composition for FragmentSub fragments.
	Sub *Composition
}

// CommandVerb enumerates the structural SQL generators a Composition's
// command metadata may name.
type CommandVerb string

const (
	VerbCompose CommandVerb = "compose"
	VerbCount   CommandVerb = "count"
	VerbUnion   CommandVerb = "union"
)

// Command is the optional structural-generator metadata a Composition may
// carry instead of (or alongside) its own fragment list.
type Command struct {
	Verb CommandVerb
	Of   []AliasKey
}

// AliasKeyKind tags the variant held by an AliasKey.
type AliasKeyKind int

const (
	// AliasKeyPath identifies an include by its canonicalized file path.
	AliasKeyPath AliasKeyKind = iota
	// AliasKeyDbObject identifies a mockable table/view or an inline
	// alias name introduced outside the include grammar.
	AliasKeyDbObject
)

// AliasKey is a tagged variant identifying an entry in an alias table or
// a mock map. Equality is structural, so AliasKey is safe to use directly
// as a map key; Path values must already be canonicalized (I5) before use.
type AliasKey struct {
	Kind  AliasKeyKind
	Value string
}

// Path builds a Path-kind AliasKey from an already-canonicalized path.
func Path(canonicalPath string) AliasKey {
	return AliasKey{Kind: AliasKeyPath, Value: canonicalPath}
}

// DbObject builds a DbObject-kind AliasKey.
func DbObject(name string) AliasKey {
	return AliasKey{Kind: AliasKeyDbObject, Value: name}
}

func (k AliasKey) String() string {
	switch k.Kind {
	case AliasKeyPath:
		return fmt.Sprintf("path(%s)", k.Value)
	case AliasKeyDbObject:
		return fmt.Sprintf("db_object(%s)", k.Value)
	default:
		return fmt.Sprintf("alias(%s)", k.Value)
	}
}

// Composition is a parsed template tree: an ordered sequence of fragments,
// plus optional command metadata and an alias table mapping an alias key
// to a nested Composition (§3).
type Composition struct {
	// SourceID identifies where this composition came from, for error
	// messages (a file path, or a synthetic id for inline text).
	SourceID string

	Fragments []Fragment
	Command   *Command
	Aliases   map[AliasKey]*Composition
}

// Alias looks up a nested composition by key, honoring I2/I5 (the alias
// table is the single source of truth for "is this alias known here").
func (c *Composition) Alias(key AliasKey) (*Composition, bool) {
	if c == nil || c.Aliases == nil {
		return nil, false
	}
	sub, ok := c.Aliases[key]
	return sub, ok
}

// BindMap maps a binding name to its ordered sequence of parameter values.
type BindMap map[string][]Value

// MockColumn is one ordered (name, value) pair within a MockRow.
type MockColumn struct {
	Name  string
	Value Value
}

// MockRow is an ordered mapping from column name to parameter value (I3:
// every row under one mock key must share column count, names, and order).
type MockRow []MockColumn

// Columns returns the ordered column names of a row.
func (r MockRow) Columns() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// SameShape reports whether r and other declare identical columns in
// identical order (I3).
func (r MockRow) SameShape(other MockRow) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i].Name != other[i].Name {
			return false
		}
	}
	return true
}

// MockMap maps an alias key (a path or a db object/table name) to the
// ordered row set that replaces it at composition time.
type MockMap map[AliasKey][]MockRow

// Breadcrumb locates a fragment within a (possibly nested) composition by
// its path of fragment indices from the top-level tree down to the
// offending sub-composition, e.g. "3 -> 1" is the 2nd fragment of the
// sub-composition found at the 4th fragment of the root.
type Breadcrumb []int

func (b Breadcrumb) String() string {
	if len(b) == 0 {
		return "<root>"
	}
	parts := make([]string, len(b))
	for i, idx := range b {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return strings.Join(parts, " -> ")
}

// Push returns a new Breadcrumb with idx appended, leaving b unmodified.
func (b Breadcrumb) Push(idx int) Breadcrumb {
	out := make(Breadcrumb, len(b)+1)
	copy(out, b)
	out[len(b)] = idx
	return out
}

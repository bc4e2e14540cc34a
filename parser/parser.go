// Package parser builds a sqltpl.Composition tree from template source
// bytes (C1), resolving `::path_or_alias::` includes against the file
// system and deduplicating by canonical path (C3).
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelsora/sqltpl"
	"github.com/kelsora/sqltpl/tokenizer"
)

// state is shared across one top-level parse: a cache of already-parsed
// includes keyed by canonical path (I5) and the set of canonical paths
// currently on the include stack (cycle detection).
type state struct {
	cache map[string]*sqltpl.Composition
	stack map[string]bool
}

// ParseTemplate parses a byte span with no filesystem-backed source of
// its own. Includes that resolve to a file on disk are still loaded,
// relative to the current working directory; callers that need includes
// resolved relative to a file's own directory should use ParsePath.
func ParseTemplate(src []byte, sourceID string) (*sqltpl.Composition, error) {
	st := &state{cache: map[string]*sqltpl.Composition{}, stack: map[string]bool{}}
	return st.parseBytes(src, sourceID, ".")
}

// ParsePath reads and parses the template file at path, resolving every
// `::…::` include relative to the including file's own directory,
// recursively, with cycle detection over the canonical path stack.
func ParsePath(path string) (*sqltpl.Composition, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return nil, &sqltpl.IncludeError{Path: path, Cause: err}
	}
	src, err := os.ReadFile(canonical)
	if err != nil {
		return nil, &sqltpl.IncludeError{Path: path, Cause: err}
	}
	st := &state{cache: map[string]*sqltpl.Composition{}, stack: map[string]bool{canonical: true}}
	comp, err := st.parseBytes(src, canonical, filepath.Dir(canonical))
	if err != nil {
		return nil, err
	}
	st.cache[canonical] = comp
	return comp, nil
}

// CanonicalizePath resolves path the same way ParsePath resolves include
// targets (absolute, symlinks followed), so a caller building a Path-kind
// sqltpl.AliasKey outside the parser — e.g. the CLI's --mock-path flag —
// produces a key that matches the one an `::path::` include resolves to.
func CanonicalizePath(path string) (string, error) {
	return canonicalize(path)
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// The target may not exist yet as a symlink chain (e.g. a plain
		// file on a filesystem with no symlinks involved); fall back to
		// the absolute path so canonicalize never fails solely because
		// EvalSymlinks has nothing to resolve.
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

// parseBytes tokenizes src and builds one Composition. baseDir anchors
// relative include paths found directly inside src.
func (st *state) parseBytes(src []byte, sourceID, baseDir string) (*sqltpl.Composition, error) {
	toks, err := tokenizer.Tokenize(src)
	if err != nil {
		var terr *tokenizer.Error
		if errors.As(err, &terr) {
			return nil, &sqltpl.ParseError{Source: sourceID, Offset: terr.Offset, Reason: terr.Reason}
		}
		return nil, &sqltpl.ParseError{Source: sourceID, Reason: err.Error()}
	}

	comp := &sqltpl.Composition{SourceID: sourceID, Aliases: map[sqltpl.AliasKey]*sqltpl.Composition{}}

	if len(toks) > 0 && toks[0].Type == tokenizer.COMMAND {
		return st.parseCommandComposition(toks, sourceID, baseDir)
	}

	for idx := 0; idx < len(toks); idx++ {
		tok := toks[idx]
		switch tok.Type {
		case tokenizer.EOF:
			return comp, nil

		case tokenizer.ENDING:
			comp.Fragments = append(comp.Fragments, sqltpl.Fragment{Kind: sqltpl.FragmentEnding, Text: tok.Value})
			return comp, nil

		case tokenizer.LITERAL:
			comp.Fragments = append(comp.Fragments, literalFragment(tok.Value))

		case tokenizer.BINDING:
			comp.Fragments = append(comp.Fragments, sqltpl.Fragment{Kind: sqltpl.FragmentBinding, Name: tok.Value})

		case tokenizer.INCLUDE:
			frag, err := st.resolveInclude(comp, tok.Value, baseDir)
			if err != nil {
				return nil, err
			}
			comp.Fragments = append(comp.Fragments, frag)

		case tokenizer.COMMAND:
			return nil, &sqltpl.ParseError{Source: sourceID, Offset: tok.Offset, Reason: "a command must be the entire composition, not mixed with other content"}
		}
	}

	return comp, nil
}

// parseCommandComposition handles the case where the composition's sole
// content is a `:verb(args):` command, optionally followed by an ending.
func (st *state) parseCommandComposition(toks []tokenizer.Token, sourceID, baseDir string) (*sqltpl.Composition, error) {
	cmdTok := toks[0]
	cmd, err := parseCommand(cmdTok.Value, cmdTok.Offset, sourceID, baseDir)
	if err != nil {
		return nil, err
	}
	comp := &sqltpl.Composition{SourceID: sourceID, Command: cmd, Aliases: map[sqltpl.AliasKey]*sqltpl.Composition{}}

	for _, tok := range toks[1:] {
		switch tok.Type {
		case tokenizer.EOF:
			return comp, nil
		case tokenizer.ENDING:
			comp.Fragments = append(comp.Fragments, sqltpl.Fragment{Kind: sqltpl.FragmentEnding, Text: tok.Value})
			return comp, nil
		case tokenizer.LITERAL:
			if strings.TrimSpace(tok.Value) == "" {
				continue
			}
			fallthrough
		default:
			return nil, &sqltpl.ParseError{Source: sourceID, Offset: tok.Offset, Reason: "a command composition carries no body of its own"}
		}
	}
	return comp, nil
}

func parseCommand(value string, offset int, sourceID, baseDir string) (*sqltpl.Command, error) {
	open := strings.IndexByte(value, '(')
	if open < 0 || !strings.HasSuffix(value, ")") {
		return nil, &sqltpl.ParseError{Source: sourceID, Offset: offset, Reason: "malformed command"}
	}
	verb := sqltpl.CommandVerb(strings.TrimSpace(value[:open]))
	switch verb {
	case sqltpl.VerbCompose, sqltpl.VerbCount, sqltpl.VerbUnion:
	default:
		return nil, &sqltpl.ParseError{Source: sourceID, Offset: offset, Reason: fmt.Sprintf("unknown command verb %q", verb)}
	}

	argsText := value[open+1 : len(value)-1]
	var of []sqltpl.AliasKey
	for _, raw := range strings.Split(argsText, ",") {
		arg := strings.TrimSpace(raw)
		if arg == "" {
			continue
		}
		of = append(of, aliasKeyFor(arg, baseDir))
	}
	return &sqltpl.Command{Verb: verb, Of: of}, nil
}

// aliasKeyFor decides whether arg names a file on disk (a Path alias) or
// an inline/db-object alias, using the same resolution rule as includes
// so a path referenced both via `::arg::` and a command's `of` list
// resolves to the identical AliasKey (I5).
func aliasKeyFor(arg, baseDir string) sqltpl.AliasKey {
	if canonical, ok := statCandidate(baseDir, arg); ok {
		return sqltpl.Path(canonical)
	}
	return sqltpl.DbObject(arg)
}

func statCandidate(baseDir, value string) (string, bool) {
	candidate := value
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(baseDir, candidate)
	}
	if _, err := os.Stat(candidate); err != nil {
		return "", false
	}
	canonical, err := canonicalize(candidate)
	if err != nil {
		return "", false
	}
	return canonical, true
}

// resolveInclude implements §4.1 point 2: a file-backed include is loaded
// and recursively parsed (deduplicated by canonical path, I5, and guarded
// against cycles); an include naming a path already known in this
// composition's alias table is referenced rather than reloaded; anything
// else is treated as a db-object reference eligible for mocking, with an
// optional `name as alias` form.
func (st *state) resolveInclude(comp *sqltpl.Composition, raw, baseDir string) (sqltpl.Fragment, error) {
	name, alias := splitIncludeAlias(raw)

	if canonical, ok := statCandidate(baseDir, name); ok {
		key := sqltpl.Path(canonical)
		if sub, ok := comp.Aliases[key]; ok {
			return sqltpl.Fragment{Kind: sqltpl.FragmentSub, Sub: sub}, nil
		}
		if cached, ok := st.cache[canonical]; ok {
			comp.Aliases[key] = cached
			return sqltpl.Fragment{Kind: sqltpl.FragmentSub, Sub: cached}, nil
		}
		if st.stack[canonical] {
			return sqltpl.Fragment{}, &sqltpl.IncludeError{Path: canonical, Cause: fmt.Errorf("include cycle detected")}
		}
		src, err := os.ReadFile(canonical)
		if err != nil {
			return sqltpl.Fragment{}, &sqltpl.IncludeError{Path: canonical, Cause: err}
		}
		st.stack[canonical] = true
		sub, err := st.parseBytes(src, canonical, filepath.Dir(canonical))
		delete(st.stack, canonical)
		if err != nil {
			return sqltpl.Fragment{}, err
		}
		st.cache[canonical] = sub
		comp.Aliases[key] = sub
		return sqltpl.Fragment{Kind: sqltpl.FragmentSub, Sub: sub}, nil
	}

	if sub, ok := comp.Aliases[sqltpl.DbObject(name)]; ok {
		return sqltpl.Fragment{Kind: sqltpl.FragmentSub, Sub: sub}, nil
	}

	return sqltpl.Fragment{Kind: sqltpl.FragmentDbObject, ObjectName: name, ObjectAlias: alias}, nil
}

func splitIncludeAlias(raw string) (name, alias string) {
	fields := strings.Fields(raw)
	if len(fields) == 3 && strings.EqualFold(fields[1], "as") {
		return fields[0], fields[2]
	}
	return strings.TrimSpace(raw), ""
}

// literalFragment tags a literal run as Keyword when its content, with
// surrounding whitespace trimmed, is exactly one reserved word; otherwise
// it stays a plain Literal. Splitting further would disturb the exact
// whitespace the grammar promises to preserve.
func literalFragment(text string) sqltpl.Fragment {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && !strings.ContainsAny(trimmed, " \t\n\r") {
		if _, ok := tokenizer.KeywordSet[strings.ToUpper(trimmed)]; ok {
			return sqltpl.Fragment{Kind: sqltpl.FragmentKeyword, Text: text}
		}
	}
	return sqltpl.Fragment{Kind: sqltpl.FragmentLiteral, Text: text}
}


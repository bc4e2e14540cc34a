// Package compose implements the composition engine (C4): a tree walk
// over a parsed sqltpl.Composition that expands named bindings into
// backend-specific placeholders, inlines included sub-templates,
// evaluates structural commands, and substitutes mocks, while keeping a
// single monotonically increasing placeholder index aligned with the
// emitted parameter vector (I4).
package compose

import (
	"fmt"
	"strings"

	"github.com/kelsora/sqltpl"
)

// Compose walks tpl and returns driver-ready SQL text plus its ordered
// parameter vector. mockRootRows, if non-empty, replaces the entire
// template with a single mocked row set instead of walking tpl at all —
// useful for callers who want to synthesize a SELECT directly.
func Compose(tpl *sqltpl.Composition, adapter sqltpl.Adapter, binds sqltpl.BindMap, mockRootRows []sqltpl.MockRow, mocks sqltpl.MockMap) (string, []sqltpl.Value, error) {
	e := &engine{adapter: adapter, binds: binds, mocks: mocks, index: 1}

	if len(mockRootRows) > 0 {
		sql, err := e.mockCompose(sqltpl.DbObject("<root>"), mockRootRows, nil)
		if err != nil {
			return "", nil, err
		}
		return sql, e.params, nil
	}

	sql, err := e.composeNode(tpl, false, nil)
	if err != nil {
		return "", nil, err
	}
	return sql, e.params, nil
}

// engine carries the state threaded through one compose call: the
// monotonically increasing placeholder index, the accumulated parameter
// vector, and borrowed read-only references to the bind map and mock map.
type engine struct {
	adapter sqltpl.Adapter
	binds   sqltpl.BindMap
	mocks   sqltpl.MockMap

	index  int
	params []sqltpl.Value
}

func (e *engine) composeNode(comp *sqltpl.Composition, child bool, bc sqltpl.Breadcrumb) (string, error) {
	if comp.Command != nil {
		return e.composeCommand(comp, child, bc)
	}

	var sb strings.Builder
	for idx, f := range comp.Fragments {
		fbc := bc.Push(idx)
		switch f.Kind {
		case sqltpl.FragmentLiteral, sqltpl.FragmentKeyword:
			sb.WriteString(f.Text)

		case sqltpl.FragmentBinding:
			piece, err := e.composeBinding(f.Name, fbc)
			if err != nil {
				return "", err
			}
			sb.WriteString(piece)

		case sqltpl.FragmentSub:
			childSQL, err := e.composeNode(f.Sub, true, fbc)
			if err != nil {
				return "", err
			}
			sb.WriteString(childSQL)

		case sqltpl.FragmentDbObject:
			piece, err := e.composeDbObject(f, fbc)
			if err != nil {
				return "", err
			}
			sb.WriteString(piece)

		case sqltpl.FragmentEnding:
			if !child {
				sb.WriteString(f.Text)
			}
		}
	}
	return sb.String(), nil
}

func (e *engine) composeBinding(name string, bc sqltpl.Breadcrumb) (string, error) {
	values, ok := e.binds[name]
	if !ok || len(values) == 0 {
		return "", &sqltpl.MissingBindingError{Name: name, Breadcrumb: bc}
	}
	tags := make([]string, len(values))
	for i, v := range values {
		tags[i] = e.adapter.BindVarTag(e.index, name)
		e.params = append(e.params, v)
		e.index++
	}
	return strings.Join(tags, ", "), nil
}

func (e *engine) composeDbObject(f sqltpl.Fragment, bc sqltpl.Breadcrumb) (string, error) {
	key := sqltpl.DbObject(f.ObjectName)
	aliasOrName := f.ObjectName
	if f.ObjectAlias != "" {
		aliasOrName = f.ObjectAlias
	}

	if rows, ok := e.mocks[key]; ok {
		mockSQL, err := e.mockCompose(key, rows, bc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("( %s ) AS %s", mockSQL, aliasOrName), nil
	}

	if f.ObjectAlias != "" {
		return f.ObjectName + " AS " + f.ObjectAlias, nil
	}
	return f.ObjectName, nil
}

// mockCompose synthesizes a SELECT ... UNION ALL SELECT ... from rows,
// honoring I3 (every row must share row 0's column set and order) and
// appending values to the parameter vector in row-major order.
func (e *engine) mockCompose(key sqltpl.AliasKey, rows []sqltpl.MockRow, bc sqltpl.Breadcrumb) (string, error) {
	if len(rows) == 0 {
		return "", &sqltpl.EmptyMockError{Key: key, Breadcrumb: bc}
	}

	selects := make([]string, len(rows))
	for i, row := range rows {
		if i > 0 && !row.SameShape(rows[0]) {
			return "", &sqltpl.MockShapeError{Key: key, RowIndex: i, Breadcrumb: bc}
		}
		cols := make([]string, len(row))
		for j, col := range row {
			tag := e.adapter.BindVarTag(e.index, col.Name)
			e.params = append(e.params, col.Value)
			e.index++
			cols[j] = tag + " AS " + col.Name
		}
		selects[i] = "SELECT " + strings.Join(cols, ", ")
	}
	return strings.Join(selects, " UNION ALL "), nil
}

func (e *engine) composeCommand(comp *sqltpl.Composition, child bool, bc sqltpl.Breadcrumb) (string, error) {
	cmd := comp.Command
	var body string
	var err error

	switch cmd.Verb {
	case sqltpl.VerbCompose:
		if len(cmd.Of) < 1 {
			return "", &sqltpl.CommandArityError{Verb: string(cmd.Verb), Got: len(cmd.Of), Expected: 1, Breadcrumb: bc}
		}
		// Only the first `of` entry is evaluated; see DESIGN.md.
		body, err = e.composeAliasRef(comp, cmd.Of[0], bc.Push(0))

	case sqltpl.VerbCount:
		if len(cmd.Of) != 1 {
			return "", &sqltpl.CommandArityError{Verb: string(cmd.Verb), Got: len(cmd.Of), Expected: 1, Breadcrumb: bc}
		}
		var sub string
		sub, err = e.composeAliasRef(comp, cmd.Of[0], bc.Push(0))
		if err == nil {
			body = fmt.Sprintf("SELECT COUNT(1) FROM ( %s ) AS count_main", sub)
		}

	case sqltpl.VerbUnion:
		if len(cmd.Of) < 2 {
			return "", &sqltpl.CommandArityError{Verb: string(cmd.Verb), Got: len(cmd.Of), Expected: 2, Breadcrumb: bc}
		}
		parts := make([]string, len(cmd.Of))
		for i, key := range cmd.Of {
			parts[i], err = e.composeAliasRef(comp, key, bc.Push(i))
			if err != nil {
				break
			}
		}
		if err == nil {
			body = strings.Join(parts, " UNION ")
		}
	}

	if err != nil {
		return "", err
	}

	if !child {
		for _, f := range comp.Fragments {
			if f.Kind == sqltpl.FragmentEnding {
				body += f.Text
			}
		}
	}
	return body, nil
}

// composeAliasRef resolves one `of` entry: a mocked alias emits
// mock_compose output; otherwise the alias must be present in comp's own
// alias table (I2) and is composed recursively as a child.
func (e *engine) composeAliasRef(comp *sqltpl.Composition, key sqltpl.AliasKey, bc sqltpl.Breadcrumb) (string, error) {
	if rows, ok := e.mocks[key]; ok {
		return e.mockCompose(key, rows, bc)
	}
	sub, ok := comp.Alias(key)
	if !ok {
		return "", &sqltpl.MissingAliasError{Key: key, Breadcrumb: bc}
	}
	return e.composeNode(sub, true, bc)
}

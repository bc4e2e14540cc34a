// Package bindlist parses the bind-string format the command-line front
// end and tests use to supply a template's named parameter values (C2):
//
//	[ name1 : [ 'v1', 'v2', … ], name2 : [ 'v3' ], … ]
//
// Whitespace between tokens is insignificant. Values are always strings
// at this layer; coercion to a backend's native types is the adapter's
// concern.
package bindlist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelsora/sqltpl"
)

// ErrSyntax is the sentinel wrapped by every Error this package returns
// for malformed input other than a duplicate name.
var ErrSyntax = errors.New("bind-list syntax error")

// Error locates a bind-list parse failure by byte offset.
type Error struct {
	Offset int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Reason)
}

func (e *Error) Unwrap() error { return ErrSyntax }

// Parse parses s into a mapping of bind name to its ordered list of
// string values. Duplicate names are reported via sqltpl.ErrDuplicateBindName.
func Parse(s string) (map[string][]string, error) {
	p := &parser{src: s, n: len(s)}
	return p.parse()
}

type parser struct {
	src string
	n   int
	i   int
}

func (p *parser) parse() (map[string][]string, error) {
	p.skipSpace()
	if !p.consumeByte('[') {
		return nil, &Error{Offset: p.i, Reason: "expected '['"}
	}
	out := make(map[string][]string)

	p.skipSpace()
	if p.consumeByte(']') {
		return out, nil
	}

	for {
		p.skipSpace()
		name, err := p.parseIdent()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if !p.consumeByte(':') {
			return nil, &Error{Offset: p.i, Reason: "expected ':' after bind name"}
		}

		p.skipSpace()
		values, err := p.parseValueList()
		if err != nil {
			return nil, err
		}

		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: %q", sqltpl.ErrDuplicateBindName, name)
		}
		out[name] = values

		p.skipSpace()
		switch {
		case p.consumeByte(','):
			continue
		case p.consumeByte(']'):
			return out, nil
		default:
			return nil, &Error{Offset: p.i, Reason: "expected ',' or ']'"}
		}
	}
}

func (p *parser) parseValueList() ([]string, error) {
	if !p.consumeByte('[') {
		return nil, &Error{Offset: p.i, Reason: "expected '[' to start value list"}
	}
	var values []string

	p.skipSpace()
	if p.consumeByte(']') {
		return values, nil
	}

	for {
		p.skipSpace()
		v, err := p.parseQuotedString()
		if err != nil {
			return nil, err
		}
		values = append(values, v)

		p.skipSpace()
		switch {
		case p.consumeByte(','):
			continue
		case p.consumeByte(']'):
			return values, nil
		default:
			return nil, &Error{Offset: p.i, Reason: "expected ',' or ']' in value list"}
		}
	}
}

func (p *parser) parseQuotedString() (string, error) {
	if !p.consumeByte('\'') {
		return "", &Error{Offset: p.i, Reason: "expected quoted string"}
	}
	var b strings.Builder
	for {
		if p.i >= p.n {
			return "", &Error{Offset: p.i, Reason: "unterminated quoted string"}
		}
		c := p.src[p.i]
		switch c {
		case '\'':
			p.i++
			return b.String(), nil
		case '\\':
			if p.i+1 >= p.n {
				return "", &Error{Offset: p.i, Reason: "unterminated escape"}
			}
			next := p.src[p.i+1]
			switch next {
			case '\\', '\'':
				b.WriteByte(next)
			default:
				return "", &Error{Offset: p.i, Reason: fmt.Sprintf("unknown escape '\\%c'", next)}
			}
			p.i += 2
		default:
			b.WriteByte(c)
			p.i++
		}
	}
}

func (p *parser) parseIdent() (string, error) {
	start := p.i
	for p.i < p.n && isIdentByte(p.src[p.i]) {
		p.i++
	}
	if p.i == start {
		return "", &Error{Offset: p.i, Reason: "expected a bind name"}
	}
	return p.src[start:p.i], nil
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *parser) skipSpace() {
	for p.i < p.n {
		switch p.src[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		default:
			return
		}
	}
}

func (p *parser) consumeByte(c byte) bool {
	if p.i < p.n && p.src[p.i] == c {
		p.i++
		return true
	}
	return false
}

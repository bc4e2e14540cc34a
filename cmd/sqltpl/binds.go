package main

import (
	"os"
	"strings"

	"github.com/kelsora/sqltpl"
	"github.com/kelsora/sqltpl/bindlist"
)

// loadBinds parses a --bind value, which is either a literal bind-list
// string or, prefixed with '@', a path to a file containing one.
func loadBinds(raw string) (sqltpl.BindMap, error) {
	if raw == "" {
		return sqltpl.BindMap{}, nil
	}

	text := raw
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, err
		}
		text = string(data)
	}

	parsed, err := bindlist.Parse(text)
	if err != nil {
		return nil, err
	}

	binds := make(sqltpl.BindMap, len(parsed))
	for name, values := range parsed {
		vs := make([]sqltpl.Value, len(values))
		for i, v := range values {
			vs[i] = v
		}
		binds[name] = vs
	}
	return binds, nil
}

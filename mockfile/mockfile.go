// Package mockfile loads a mock row set from a YAML file for the query
// command's --mock-path/--mock-table flags (C8). A mock file is a plain
// sequence of rows, each row an ordered mapping from column name to
// value:
//
//	- id: 1
//	  name: "A"
//	- id: 2
//	  name: "B"
//
// One file holds the rows for exactly one alias; the CLI pairs a file
// with the alias it mocks (`<alias>=<file>`) and inserts the result into
// the mock map under that alias's key.
//
// A quoted scalar of the form digits.digits (optionally with a leading
// '-', e.g. "19.99") is decoded as a shopspring/decimal.Decimal instead
// of a plain string; other scalars are kept as YAML decoded them, so fixture
// authors can write exact monetary values without float64 rounding.
package mockfile

import (
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"

	"github.com/kelsora/sqltpl"
)

var decimalLiteral = regexp.MustCompile(`^-?\d+\.\d+$`)

// Load reads path as a sequence of rows and returns them in file order.
func Load(path string) ([]sqltpl.MockRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rawRows []yaml.MapSlice
	if err := yaml.Unmarshal(data, &rawRows); err != nil {
		return nil, err
	}

	rows := make([]sqltpl.MockRow, len(rawRows))
	for i, row := range rawRows {
		mockRow := make(sqltpl.MockRow, len(row))
		for j, item := range row {
			name, _ := item.Key.(string)
			mockRow[j] = sqltpl.MockColumn{Name: name, Value: coerce(item.Value)}
		}
		rows[i] = mockRow
	}
	return rows, nil
}

func coerce(v any) sqltpl.Value {
	s, ok := v.(string)
	if !ok || !decimalLiteral.MatchString(s) {
		return v
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return v
	}
	return d
}

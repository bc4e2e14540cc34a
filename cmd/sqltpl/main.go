package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/google/uuid"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kelsora/sqltpl"
	"github.com/kelsora/sqltpl/compose"
	"github.com/kelsora/sqltpl/config"
	"github.com/kelsora/sqltpl/mockfile"
	"github.com/kelsora/sqltpl/parser"
)

const configPath = "sqltpl.yaml"

var (
	errNoTarget           = errors.New("no database target")
	errUnsupportedDialect = errors.New("unsupported dialect")
)

// QueryCmd composes a template and either prints the generated SQL (with
// --dry-run or no --uri) or executes it against a live database.
type QueryCmd struct {
	Path      string   `arg:"" help:"SQL template file (.tql)" type:"path"`
	URI       string   `help:"Database URI; scheme selects the adapter (sqlite://, postgres://, mysql://)" short:"u"`
	Bind      string   `help:"Bind-list string, or @path to read it from a file" short:"b"`
	MockPath  []string `help:"Mock an include by its template path: <template-path>=<rows-file> (repeatable)"`
	MockTable []string `help:"Mock a table/view reference by name: <name>=<rows-file> (repeatable)"`
	Dialect   string   `help:"Dialect for --dry-run when --uri is omitted (postgres|mysql|sqlite)"`
	DryRun    bool     `help:"Print composed SQL and parameters without executing"`
	Timeout   int      `help:"Query timeout in seconds" default:"30"`
}

func (q *QueryCmd) Run() error {
	correlationID := uuid.NewString()

	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", configPath, err)
	}

	tpl, err := parser.ParsePath(q.Path)
	if err != nil {
		return err
	}

	binds, err := loadBinds(q.Bind)
	if err != nil {
		return fmt.Errorf("loading --bind: %w", err)
	}

	mockPaths, mockTables := q.MockPath, q.MockTable
	if len(mockPaths) == 0 && len(mockTables) == 0 && cfg.MockPath != "" {
		mockPaths = []string{cfg.MockPath}
	}
	mocks, err := loadMocks(mockPaths, mockTables)
	if err != nil {
		return fmt.Errorf("loading mock rows: %w", err)
	}

	uri := q.URI
	if uri == "" && q.Dialect == "" {
		uri = cfg.DefaultURI
	}
	target, err := resolveTarget(uri, q.Dialect)
	if err != nil {
		return err
	}

	sqlText, params, err := compose.Compose(tpl, target.adapter, binds, nil, mocks)
	if err != nil {
		color.Red("[%s] composition failed: %v", correlationID, err)
		return err
	}

	if q.DryRun || uri == "" {
		color.Blue("SQL: %s", sqlText)
		for i, p := range params {
			fmt.Printf("  %d: %v\n", i+1, p)
		}
		return nil
	}

	return q.execute(correlationID, target, sqlText, params)
}

func (q *QueryCmd) execute(correlationID string, target resolved, sqlText string, params []sqltpl.Value) error {
	db, err := sql.Open(target.driver, target.dsn)
	if err != nil {
		return fmt.Errorf("opening %s connection: %w", target.driver, err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(q.Timeout)*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		color.Red("[%s] query failed: %v", correlationID, err)
		return err
	}
	defer rows.Close()

	return printRows(rows)
}

// loadMocks builds a mock map from --mock-path (Path-keyed, for mocking
// an `::include::`) and --mock-table (DbObject-keyed, for mocking a bare
// table/view reference) entries, each in <alias>=<rows-file> form.
func loadMocks(mockPaths, mockTables []string) (sqltpl.MockMap, error) {
	if len(mockPaths) == 0 && len(mockTables) == 0 {
		return nil, nil
	}
	mocks := make(sqltpl.MockMap, len(mockPaths)+len(mockTables))

	for _, entry := range mockPaths {
		templatePath, file, err := splitMockEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("--mock-path: %w", err)
		}
		canonical, err := parser.CanonicalizePath(templatePath)
		if err != nil {
			return nil, fmt.Errorf("--mock-path: resolving %q: %w", templatePath, err)
		}
		rows, err := mockfile.Load(file)
		if err != nil {
			return nil, fmt.Errorf("--mock-path: %w", err)
		}
		mocks[sqltpl.Path(canonical)] = rows
	}

	for _, entry := range mockTables {
		name, file, err := splitMockEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("--mock-table: %w", err)
		}
		rows, err := mockfile.Load(file)
		if err != nil {
			return nil, fmt.Errorf("--mock-table: %w", err)
		}
		mocks[sqltpl.DbObject(name)] = rows
	}

	return mocks, nil
}

// splitMockEntry parses a repeatable --mock-path/--mock-table value of
// the form <alias>=<rows-file>.
func splitMockEntry(entry string) (alias, file string, err error) {
	idx := strings.IndexByte(entry, '=')
	if idx < 0 {
		return "", "", fmt.Errorf("malformed entry %q: expected <alias>=<rows-file>", entry)
	}
	return entry[:idx], entry[idx+1:], nil
}

func printRows(rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	color.Blue(fmt.Sprintf("%v", cols))

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		fmt.Printf("%v\n", values)
		count++
	}
	color.Green("%d row(s)", count)
	return rows.Err()
}

var cli struct {
	Query QueryCmd `cmd:"" help:"Compose a SQL template and optionally execute it"`
}

func main() {
	ctx := kong.Parse(&cli, kong.Description("sqltpl composes SQL templates and runs them against SQLite, PostgreSQL, or MySQL"))
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package query substitutes named parameters into SQL templates and
// executes them against per-country databases.
package query

import (
	"context"
	"database/sql"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"formlink/countrydb"
	"formlink/log"
)

// Connector obtains an exclusive connection for a country. Satisfied
// by *countrydb.Router.
type Connector interface {
	Connect(ctx context.Context, countryID string) (*sql.DB, error)
}

type Engine struct {
	router  Connector
	timeout time.Duration
}

// NewEngine wraps a router. A zero timeout disables the per-query
// deadline.
func NewEngine(router Connector, timeout time.Duration) *Engine {
	return &Engine{router: router, timeout: timeout}
}

// Result is the row set of a single executed statement.
type Result struct {
	Rows         []map[string]any `json:"rows"`
	RowsAffected int64            `json:"rowsAffected"`
}

// CountryResult collects the outcome of a template run against one
// country. RowsAffected has one entry per statement; a failed
// statement contributes no rows and a zero count. Error is set only
// when the country as a whole failed (routing or connection).
type CountryResult struct {
	DBName       string           `json:"dbName,omitempty"`
	Rows         []map[string]any `json:"rows"`
	RowsAffected []int64          `json:"rowsAffected"`
	Error        string           `json:"error,omitempty"`
}

// Execute runs a single-country template: resolve, connect with
// retry, substitute, query. The connection is always released before
// returning.
func (e *Engine) Execute(ctx context.Context, countryID, template string, params map[string]any) (Result, error) {
	db, err := e.router.Connect(ctx, countryID)
	if err != nil {
		return Result{}, err
	}
	defer db.Close()

	return e.run(ctx, db, Substitute(template, params))
}

// ExecuteBatch runs a template against several countries, isolating
// failures per country and per statement. Unknown countries are
// skipped with a warning and get no entry in the result map. Raw
// database errors are logged server-side; the recorded error string
// is generic.
func (e *Engine) ExecuteBatch(ctx context.Context, countries []string, template string, params map[string]any) map[string]CountryResult {
	results := make(map[string]CountryResult, len(countries))
	substituted := Substitute(template, params)

	for _, country := range countries {
		dbName, err := countrydb.ResolveTarget(country)
		if err != nil {
			log.Warnf("query.batch: no database mapping for country %q, skipping", country)
			continue
		}

		db, err := e.router.Connect(ctx, country)
		if err != nil {
			log.Errorf("query.batch: connect %q: %s", country, err)
			results[country] = CountryResult{DBName: dbName, Error: "could not connect to country database"}
			continue
		}

		result := CountryResult{DBName: dbName, Rows: []map[string]any{}}
		var errs *multierror.Error
		for _, stmt := range SplitStatements(substituted) {
			res, err := e.run(ctx, db, stmt)
			if err != nil {
				errs = multierror.Append(errs, err)
				result.RowsAffected = append(result.RowsAffected, 0)
				continue
			}
			result.Rows = append(result.Rows, res.Rows...)
			result.RowsAffected = append(result.RowsAffected, res.RowsAffected)
		}
		db.Close()

		if err := errs.ErrorOrNil(); err != nil {
			log.Errorf("query.batch: %q (%s): %s", country, dbName, err)
		}
		results[country] = result
	}

	return results
}

func (e *Engine) run(ctx context.Context, db *sql.DB, sqlText string) (Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, errors.Wrap(err, "query.run")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, errors.Wrap(err, "query.run.columns")
	}

	result := Result{Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return Result{}, errors.Wrap(err, "query.run.scan")
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, record)
		result.RowsAffected++
	}
	if err := rows.Err(); err != nil {
		return Result{}, errors.Wrap(err, "query.run.rows")
	}

	return result, nil
}

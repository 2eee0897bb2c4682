// Package countrydb routes a country identifier to its database and
// opens a connection with bounded retry. The opened handle belongs to
// the caller and must be closed on every exit path.
package countrydb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"formlink/log"
)

const (
	defaultAttempts = 3
	defaultDelay    = time.Second
)

// ExhaustedError signals that every connection attempt failed. It
// carries the last underlying error and is not retried upstream.
type ExhaustedError struct {
	Country  string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("countrydb: %q: connection failed after %d attempts: %v", e.Country, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

type Router struct {
	driver   string
	dsn      string // template, %s replaced by the database name
	attempts int
	delay    time.Duration
	open     func(driver, dsn string) (*sql.DB, error)
}

func NewRouter(driver, dsnTemplate string) *Router {
	return &Router{
		driver:   driver,
		dsn:      dsnTemplate,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		open:     sql.Open,
	}
}

// Connect resolves the country's database target and opens a live,
// pinged connection, retrying up to the attempt budget with a fixed
// delay. Cancelling ctx aborts the wait between attempts.
func (r *Router) Connect(ctx context.Context, countryID string) (*sql.DB, error) {
	dbName, err := ResolveTarget(countryID)
	if err != nil {
		return nil, err
	}
	dsn := strings.ReplaceAll(r.dsn, "%s", dbName)

	var last error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		db, err := r.open(r.driver, dsn)
		if err == nil {
			err = db.PingContext(ctx)
			if err == nil {
				return db, nil
			}
			db.Close()
		}
		last = err
		log.Warnf("countrydb.connect: %q attempt %d/%d failed: %s", countryID, attempt, r.attempts, err)

		if attempt < r.attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}

	return nil, &ExhaustedError{Country: countryID, Attempts: r.attempts, Last: last}
}

// Copyright (c) 2024 The Seoul Map Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package prefetch caches per-borough licensing aggregates in SQLite, so
// resolving a licensing indicator doesn't repeat the 25-borough paginated
// merge on every request. The store is opened explicitly and passed to
// whoever needs it; there is no package-level instance.
package prefetch

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS localdata_aggregates (
	industry_code TEXT NOT NULL,
	borough TEXT NOT NULL,
	total INTEGER NOT NULL,
	active INTEGER NOT NULL,
	closed INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL,
	PRIMARY KEY (industry_code, borough)
);`

// An Aggregate holds one borough's establishment counts for one licensing
// industry code.
type Aggregate struct {
	IndustryCode string
	Borough      string
	Total        int
	Active       int
	Closed       int
	FetchedAt    time.Time
}

// A Store is a SQLite-backed cache of licensing aggregates. Entries older
// than the store's max age are treated as absent.
type Store struct {
	pool   *sqlitex.Pool
	maxAge time.Duration
	// injectable for tests
	now func() time.Time
}

// Open opens (creating if needed) the store at the given path.
func Open(path string, maxAge time.Duration) (*Store, error) {
	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{})
	if err != nil {
		return nil, StoreError{Message: err.Error()}
	}
	store := &Store{pool: pool, maxAge: maxAge, now: time.Now}

	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, StoreError{Message: err.Error()}
	}
	defer pool.Put(conn)
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		pool.Close()
		return nil, StoreError{Message: err.Error()}
	}
	return store, nil
}

// Close releases the store's connections.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Put stores aggregates for an industry code, replacing any it already
// holds for the same boroughs.
func (s *Store) Put(ctx context.Context, aggregates []Aggregate) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return StoreError{Message: err.Error()}
	}
	defer s.pool.Put(conn)
	defer sqlitex.Save(conn)(&err)

	for _, aggregate := range aggregates {
		fetchedAt := aggregate.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = s.now()
		}
		err = sqlitex.Execute(conn,
			`INSERT OR REPLACE INTO localdata_aggregates
			 (industry_code, borough, total, active, closed, fetched_at)
			 VALUES (?, ?, ?, ?, ?, ?);`,
			&sqlitex.ExecOptions{
				Args: []any{aggregate.IndustryCode, aggregate.Borough,
					aggregate.Total, aggregate.Active, aggregate.Closed,
					fetchedAt.Unix()},
			})
		if err != nil {
			return StoreError{Message: err.Error()}
		}
	}
	return nil
}

// Get answers the cached aggregates for an industry code. The second result
// is false when the cache holds nothing fresh enough to use.
func (s *Store) Get(ctx context.Context, industryCode string) ([]Aggregate, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, false, StoreError{Message: err.Error()}
	}
	defer s.pool.Put(conn)

	oldest := s.now().Add(-s.maxAge).Unix()
	var aggregates []Aggregate
	err = sqlitex.Execute(conn,
		`SELECT borough, total, active, closed, fetched_at
		 FROM localdata_aggregates
		 WHERE industry_code = ? AND fetched_at >= ?
		 ORDER BY borough;`,
		&sqlitex.ExecOptions{
			Args: []any{industryCode, oldest},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				aggregates = append(aggregates, Aggregate{
					IndustryCode: industryCode,
					Borough:      stmt.ColumnText(0),
					Total:        stmt.ColumnInt(1),
					Active:       stmt.ColumnInt(2),
					Closed:       stmt.ColumnInt(3),
					FetchedAt:    time.Unix(stmt.ColumnInt64(4), 0),
				})
				return nil
			},
		})
	if err != nil {
		return nil, false, StoreError{Message: err.Error()}
	}
	return aggregates, len(aggregates) > 0, nil
}

// Invalidate drops every cached aggregate for an industry code.
func (s *Store) Invalidate(ctx context.Context, industryCode string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return StoreError{Message: err.Error()}
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM localdata_aggregates WHERE industry_code = ?;`,
		&sqlitex.ExecOptions{Args: []any{industryCode}})
	if err != nil {
		return StoreError{Message: err.Error()}
	}
	return nil
}

// this error type wraps any failure of the underlying database
type StoreError struct {
	Message string
}

func (e StoreError) Error() string {
	return fmt.Sprintf("Prefetch store failure: %s", e.Message)
}

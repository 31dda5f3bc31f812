// Package iosqlite implements the Record Store on an embedded SQLite
// database. This is an impure I/O package that implements the
// store.Store contract.
package iosqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnames/gnbold/pkg/schema"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/store"
	_ "modernc.org/sqlite"
)

var columns = schema.Columns(schema.Specimen{})

type sqliteStore struct {
	db   *sql.DB
	path string
}

// Open opens or creates the SQLite store at path and makes sure its
// schema exists.
func Open(ctx context.Context, path string) (store.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, OpenError(path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, OpenError(path, err)
	}
	// SQLite allows one writer, a single connection avoids busy errors.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, q := range append(pragmas, schema.AllDDL()...) {
		if _, err = db.ExecContext(ctx, q); err != nil {
			db.Close()
			return nil, SchemaError(path, err)
		}
	}

	q := "INSERT OR IGNORE INTO schema_versions (version, description) " +
		"VALUES (?, ?)"
	if _, err = db.ExecContext(ctx, q, schema.Version, "specimens"); err != nil {
		db.Close()
		return nil, SchemaError(path, err)
	}

	return &sqliteStore{db: db, path: path}, nil
}

func (s *sqliteStore) Get(
	ctx context.Context,
	id int64,
) (specimen.Record, error) {
	q := fmt.Sprintf("SELECT %s FROM specimens WHERE id = ?",
		strings.Join(columns, ", "))

	var sp schema.Specimen
	err := s.db.QueryRowContext(ctx, q, id).Scan(schema.Pointers(&sp)...)
	if errors.Is(err, sql.ErrNoRows) {
		return specimen.Record{}, store.ErrNotFound
	}
	if err != nil {
		return specimen.Record{}, ReadError(err)
	}
	return sp.ToRecord(), nil
}

func (s *sqliteStore) Save(
	ctx context.Context,
	recs []specimen.Record,
) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteError(len(recs), err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL())
	if err != nil {
		return WriteError(len(recs), err)
	}
	defer stmt.Close()

	for i := range recs {
		sp := schema.FromRecord(&recs[i])
		if _, err = stmt.ExecContext(ctx, schema.Values(sp)...); err != nil {
			return WriteError(len(recs), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return WriteError(len(recs), err)
	}
	return nil
}

func (s *sqliteStore) Scan(
	ctx context.Context,
	f store.Filter,
	fn func([]specimen.Record) error,
) error {
	for {
		page, err := s.page(ctx, f)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if err = fn(page); err != nil {
			return err
		}
		f.AfterID = page[len(page)-1].ID
	}
}

// page reads one page and closes its rows, so the callback of Scan can
// use the single connection.
func (s *sqliteStore) page(
	ctx context.Context,
	f store.Filter,
) ([]specimen.Record, error) {
	where, args := schema.Where(f, schema.QuestionMark)
	q := fmt.Sprintf("SELECT %s FROM specimens %s ORDER BY id LIMIT %d",
		strings.Join(columns, ", "), where, f.PageSize())

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ReadError(err)
	}
	defer rows.Close()

	var res []specimen.Record
	for rows.Next() {
		var sp schema.Specimen
		if err = rows.Scan(schema.Pointers(&sp)...); err != nil {
			return nil, ReadError(err)
		}
		res = append(res, sp.ToRecord())
	}
	if err = rows.Err(); err != nil {
		return nil, ReadError(err)
	}
	return res, nil
}

func (s *sqliteStore) Count(ctx context.Context, f store.Filter) (int, error) {
	where, args := schema.Where(f, schema.QuestionMark)
	q := "SELECT count(*) FROM specimens " + where

	var res int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&res); err != nil {
		return 0, ReadError(err)
	}
	return res, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func upsertSQL() string {
	phs := make([]string, len(columns))
	var sets []string
	for i, c := range columns {
		phs[i] = "?"
		if c != "id" {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO specimens (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(columns, ", "),
		strings.Join(phs, ", "),
		strings.Join(sets, ", "),
	)
}

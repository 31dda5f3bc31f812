// Package iopg implements the Record Store on PostgreSQL using pgxpool.
// This is an impure I/O package that implements the store.Store
// contract. The schema is created with GORM AutoMigrate.
package iopg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gnames/gnbold/pkg/config"
	"github.com/gnames/gnbold/pkg/schema"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var columns = schema.Columns(schema.Specimen{})

type pgStore struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and migrates the schema.
func Open(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) (store.Store, error) {
	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err = migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &pgStore{pool: pool}, nil
}

// connect establishes a connection pool to PostgreSQL.
func connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, ConnectionError(cfg.Host, cfg.Port,
			cfg.Database, cfg.User, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 0
	poolConfig.MaxConnIdleTime = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, ConnectionError(cfg.Host, cfg.Port,
			cfg.Database, cfg.User, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, ConnectionError(cfg.Host, cfg.Port,
			cfg.Database, cfg.User, err)
	}
	return pool, nil
}

func (p *pgStore) Get(
	ctx context.Context,
	id int64,
) (specimen.Record, error) {
	q := fmt.Sprintf("SELECT %s FROM specimens WHERE id = $1",
		strings.Join(columns, ", "))

	var sp schema.Specimen
	err := p.pool.QueryRow(ctx, q, id).Scan(schema.Pointers(&sp)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return specimen.Record{}, store.ErrNotFound
	}
	if err != nil {
		return specimen.Record{}, ReadError(err)
	}
	return sp.ToRecord(), nil
}

// Save copies records into a temporary table and upserts them from there
// in one transaction.
func (p *pgStore) Save(
	ctx context.Context,
	recs []specimen.Record,
) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return WriteError(len(recs), err)
	}
	defer tx.Rollback(ctx)

	q := "CREATE TEMP TABLE tmp_specimens " +
		"(LIKE specimens INCLUDING DEFAULTS) ON COMMIT DROP"
	if _, err = tx.Exec(ctx, q); err != nil {
		return WriteError(len(recs), err)
	}

	rows := make([][]any, len(recs))
	for i := range recs {
		rows[i] = schema.Values(schema.FromRecord(&recs[i]))
	}
	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"tmp_specimens"},
		columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return WriteError(len(recs), err)
	}

	if _, err = tx.Exec(ctx, upsertSQL()); err != nil {
		return WriteError(len(recs), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return WriteError(len(recs), err)
	}
	return nil
}

func (p *pgStore) Scan(
	ctx context.Context,
	f store.Filter,
	fn func([]specimen.Record) error,
) error {
	for {
		page, err := p.page(ctx, f)
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

func (p *pgStore) page(
	ctx context.Context,
	f store.Filter,
) ([]specimen.Record, error) {
	where, args := schema.Where(f, schema.Dollar)
	q := fmt.Sprintf("SELECT %s FROM specimens %s ORDER BY id LIMIT %d",
		strings.Join(columns, ", "), where, f.PageSize())

	rows, err := p.pool.Query(ctx, q, args...)
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

func (p *pgStore) Count(ctx context.Context, f store.Filter) (int, error) {
	where, args := schema.Where(f, schema.Dollar)
	q := "SELECT count(*) FROM specimens " + where

	var res int
	if err := p.pool.QueryRow(ctx, q, args...).Scan(&res); err != nil {
		return 0, ReadError(err)
	}
	return res, nil
}

func (p *pgStore) Close() error {
	p.pool.Close()
	return nil
}

func upsertSQL() string {
	var sets []string
	for _, c := range columns {
		if c != "id" {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	cols := strings.Join(columns, ", ")
	return fmt.Sprintf(
		"INSERT INTO specimens (%s) SELECT %s FROM tmp_specimens "+
			"ON CONFLICT (id) DO UPDATE SET %s",
		cols, cols, strings.Join(sets, ", "),
	)
}

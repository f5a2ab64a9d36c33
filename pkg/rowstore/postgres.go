package rowstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Postgres keeps every row as a text[] in insertion order, for deployments
// that cannot reach Google Sheets.
type Postgres struct {
	db    querier
	table string
}

// NewPostgres makes sure the rows table exists. The pool is owned by the caller.
func NewPostgres(ctx context.Context, db querier, table string) (*Postgres, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: table name is empty", ErrNotConfigured)
	}
	p := &Postgres{db: db, table: pgx.Identifier{table}.Sanitize()}

	_, err := db.Exec(ctx, `create table if not exists `+p.table+` (
		id         bigserial primary key,
		cells      text[] not null,
		created_at timestamptz not null default now()
	);`)
	if err != nil {
		return nil, fmt.Errorf("NewPostgres failed: %w", err)
	}
	return p, nil
}

func (p *Postgres) ReadAll(ctx context.Context) ([][]string, error) {
	rows, err := p.db.Query(ctx, `select cells from `+p.table+` order by id;`)
	if err != nil {
		return nil, fmt.Errorf("ReadAll failed: %w", err)
	}
	defer rows.Close()

	out := make([][]string, 0)
	for rows.Next() {
		var cells []string
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("rows.Scan failed: %w", err)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReadAll failed: %w", err)
	}
	return out, nil
}

func (p *Postgres) Append(ctx context.Context, row []string) error {
	_, err := p.db.Exec(ctx, `insert into `+p.table+` (cells) values ($1);`, row)
	if err != nil {
		return fmt.Errorf("Append failed: %w", err)
	}
	return nil
}

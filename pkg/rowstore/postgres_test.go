package rowstore

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQuerier struct {
	execs   []string
	args    [][]interface{}
	execErr error
}

func (q *recordingQuerier) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, sql)
	q.args = append(q.args, arguments)
	return pgconn.CommandTag("INSERT 0 1"), q.execErr
}

func (q *recordingQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("connection refused")
}

func TestNewPostgresCreatesTable(t *testing.T) {
	q := &recordingQuerier{}

	p, err := NewPostgres(context.Background(), q, `promo"rows`)
	require.NoError(t, err)

	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0], `create table if not exists "promo""rows"`)

	require.NoError(t, p.Append(context.Background(), []string{"Ana", "Lopez"}))
	assert.Contains(t, q.execs[1], `insert into "promo""rows" (cells)`)
	assert.Equal(t, []interface{}{[]string{"Ana", "Lopez"}}, q.args[1])
}

func TestPostgresErrors(t *testing.T) {
	_, err := NewPostgres(context.Background(), &recordingQuerier{}, "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewPostgres(context.Background(), &recordingQuerier{execErr: errors.New("permission denied")}, "promo_rows")
	assert.Error(t, err)

	p, err := NewPostgres(context.Background(), &recordingQuerier{}, "promo_rows")
	require.NoError(t, err)
	_, err = p.ReadAll(context.Background())
	assert.Error(t, err)
}

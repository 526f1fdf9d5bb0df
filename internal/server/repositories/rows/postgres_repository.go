package rows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/dbx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNeq: "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// builder accumulates SQL text and positional arguments.
type builder struct {
	sb   strings.Builder
	args []any
}

func (b *builder) write(s string) { b.sb.WriteString(s) }

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *builder) where(conds []Cond) error {
	for i, c := range conds {
		if i == 0 {
			b.write(" WHERE ")
		} else {
			b.write(" AND ")
		}

		op, ok := sqlOps[c.Op]
		if !ok {
			return fmt.Errorf("unsupported operator %q", c.Op)
		}

		if c.Value == nil {
			switch c.Op {
			case OpEq:
				b.write(ident(c.Column) + " IS NULL")
			case OpNeq:
				b.write(ident(c.Column) + " IS NOT NULL")
			default:
				return fmt.Errorf("operator %q does not accept null", c.Op)
			}
			continue
		}

		b.write(ident(c.Column) + " " + op + " " + b.bind(c.Value))
	}
	return nil
}

func (r *PostgresRepository) Select(ctx context.Context, q SelectQuery) ([]json.RawMessage, error) {
	var b builder

	cols := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		cols[i] = ident(c)
	}

	b.write("SELECT row_to_json(t) FROM (SELECT " + strings.Join(cols, ", ") + " FROM " + ident(q.Table))
	if err := b.where(q.Where); err != nil {
		return nil, err
	}
	if q.Order != nil {
		dir := " DESC"
		if q.Order.Ascending {
			dir = " ASC"
		}
		b.write(" ORDER BY " + ident(q.Order.Column) + dir)
	}
	if q.Limit > 0 {
		b.write(" LIMIT " + strconv.Itoa(q.Limit))
	}
	b.write(") t")

	return r.queryJSON(ctx, b.sb.String(), b.args)
}

func (r *PostgresRepository) Update(ctx context.Context, q UpdateQuery) (int64, error) {
	if len(q.Set) == 0 && !q.Touch {
		return 0, fmt.Errorf("empty update")
	}

	var b builder
	b.write("UPDATE " + ident(q.Table) + " SET ")

	parts := make([]string, 0, len(q.Set)+1)
	for _, a := range q.Set {
		parts = append(parts, ident(a.Column)+" = "+b.bind(a.Value))
	}
	if q.Touch {
		parts = append(parts, `"updated_at" = now()`)
	}
	b.write(strings.Join(parts, ", "))

	if err := b.where(q.Where); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, b.sb.String(), b.args...)
	if err != nil {
		return 0, wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, q InsertQuery) ([]json.RawMessage, error) {
	if len(q.Values) == 0 {
		return []json.RawMessage{}, nil
	}

	var b builder

	cols := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		cols[i] = ident(c)
	}

	b.write("INSERT INTO " + ident(q.Table) + " AS t (" + strings.Join(cols, ", ") + ") VALUES ")
	for i, rec := range q.Values {
		if len(rec) != len(q.Columns) {
			return nil, fmt.Errorf("record %d has %d values, want %d", i, len(rec), len(q.Columns))
		}
		if i > 0 {
			b.write(", ")
		}
		ph := make([]string, len(rec))
		for j, v := range rec {
			if v == Default {
				ph[j] = "DEFAULT"
				continue
			}
			ph[j] = b.bind(v)
		}
		b.write("(" + strings.Join(ph, ", ") + ")")
	}
	b.write(" RETURNING row_to_json(t)")

	return r.queryJSON(ctx, b.sb.String(), b.args)
}

func (r *PostgresRepository) queryJSON(ctx context.Context, query string, args []any) ([]json.RawMessage, error) {
	rs, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rs.Close()

	out := []json.RawMessage{}
	for rs.Next() {
		var raw []byte
		if err := rs.Scan(&raw); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, json.RawMessage(raw))
	}
	if err := rs.Err(); err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

// wrapError turns constraint violations into validation errors carrying the
// constraint detail; everything else is a plain db error.
func wrapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502", "23503", "23514", "22P02", "22007", "22008":
			return fmt.Errorf("%w: %s", common.ErrorValidation, pgErr.Message)
		case "23505":
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.Message)
		}
	}
	return fmt.Errorf("db error: %w", err)
}

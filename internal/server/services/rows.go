package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/rows"
	"github.com/google/uuid"
)

// MaxRows caps the number of rows a single Select may return.
const MaxRows = 1000

type Filter struct {
	Column string
	Op     string
	Value  any
}

type SelectParams struct {
	Table   string
	Filters []Filter
	Order   *rows.Order
	Limit   int
	Single  bool
}

// RowService exposes the dashboard tables to signed-in users, scoped to the
// rows they own.
type RowService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	newID       func() string
}

func NewRowService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *RowService {
	return &RowService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "row_service"),
		newID:       uuid.NewString,
	}
}

func lookupTable(name string) (*table, error) {
	t, ok := tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: table %q is not accessible", common.ErrorForbidden, name)
	}
	return t, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrorValidation}, args...)...)
}

func (s *RowService) Select(ctx context.Context, userID string, p SelectParams) ([]json.RawMessage, error) {
	t, err := lookupTable(p.Table)
	if err != nil {
		return nil, err
	}

	where, err := s.scope(t, userID, p.Filters)
	if err != nil {
		return nil, err
	}

	if p.Order != nil {
		if _, ok := t.column(p.Order.Column); !ok {
			return nil, invalid("unknown column %q", p.Order.Column)
		}
	}

	limit := p.Limit
	if limit <= 0 || limit > MaxRows {
		limit = MaxRows
	}
	if p.Single {
		limit = 2
	}

	out, err := s.repomanager.Rows(s.db).Select(ctx, rows.SelectQuery{
		Table:   t.name,
		Columns: t.columnNames(),
		Where:   where,
		Order:   p.Order,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	if p.Single {
		switch len(out) {
		case 0:
			return nil, common.ErrorNotFound
		case 1:
		default:
			return nil, invalid("query returned more than one row")
		}
	}
	return out, nil
}

// Update applies patch to the caller's matching rows and returns how many
// changed. Matching nothing is not an error.
func (s *RowService) Update(ctx context.Context, userID, tableName string, patch map[string]any, filters []Filter) (int64, error) {
	t, err := lookupTable(tableName)
	if err != nil {
		return 0, err
	}
	if len(patch) == 0 {
		return 0, invalid("empty patch")
	}

	set := make([]rows.Assignment, 0, len(patch))
	for _, c := range t.columns {
		v, ok := patch[c.name]
		if !ok {
			continue
		}
		if !c.writable {
			return 0, invalid("column %q is not writable", c.name)
		}
		val, err := coerce(c, v, false)
		if err != nil {
			return 0, err
		}
		set = append(set, rows.Assignment{Column: c.name, Value: val})
	}
	if len(set) != len(patch) {
		for k := range patch {
			if _, ok := t.column(k); !ok {
				return 0, invalid("unknown column %q", k)
			}
		}
	}

	where, err := s.scope(t, userID, filters)
	if err != nil {
		return 0, err
	}

	return s.repomanager.Rows(s.db).Update(ctx, rows.UpdateQuery{
		Table: t.name,
		Set:   set,
		Where: where,
		Touch: t.touch,
	})
}

// Insert stores records owned by the caller. Ids are assigned here; columns a
// record leaves out take their database default.
func (s *RowService) Insert(ctx context.Context, userID, tableName string, records []map[string]any) ([]json.RawMessage, error) {
	t, err := lookupTable(tableName)
	if err != nil {
		return nil, err
	}
	if !t.insertable {
		return nil, fmt.Errorf("%w: rows of %q cannot be created", common.ErrorForbidden, t.name)
	}
	if len(records) == 0 {
		return nil, invalid("no records")
	}

	used := map[string]bool{}
	for i, rec := range records {
		for k := range rec {
			c, ok := t.column(k)
			if !ok {
				return nil, invalid("record %d: unknown column %q", i, k)
			}
			if !c.writable {
				return nil, invalid("record %d: column %q is not writable", i, k)
			}
			used[k] = true
		}
	}

	cols := []string{"id", t.owner}
	var writable []column
	for _, c := range t.columns {
		if used[c.name] {
			cols = append(cols, c.name)
			writable = append(writable, c)
		}
	}

	values := make([][]any, len(records))
	for i, rec := range records {
		row := []any{s.newID(), userID}
		for _, c := range writable {
			v, ok := rec[c.name]
			if !ok {
				row = append(row, rows.Default)
				continue
			}
			val, err := coerce(c, v, false)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			row = append(row, val)
		}
		values[i] = row
	}

	return s.repomanager.Rows(s.db).Insert(ctx, rows.InsertQuery{
		Table:   t.name,
		Columns: cols,
		Values:  values,
	})
}

// scope validates user filters and prepends the owner predicate.
func (s *RowService) scope(t *table, userID string, filters []Filter) ([]rows.Cond, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}

	where := []rows.Cond{{Column: t.owner, Op: rows.OpEq, Value: userID}}
	for _, f := range filters {
		c, ok := t.column(f.Column)
		if !ok {
			return nil, invalid("unknown column %q", f.Column)
		}
		op := rows.Op(f.Op)
		switch op {
		case rows.OpEq, rows.OpNeq, rows.OpGt, rows.OpGte, rows.OpLt, rows.OpLte:
		default:
			return nil, invalid("unsupported operator %q", f.Op)
		}
		val, err := coerce(c, f.Value, true)
		if err != nil {
			return nil, err
		}
		if val == nil && op != rows.OpEq && op != rows.OpNeq {
			return nil, invalid("operator %q does not accept null", f.Op)
		}
		where = append(where, rows.Cond{Column: c.name, Op: op, Value: val})
	}
	return where, nil
}

// coerce converts a decoded JSON value to the Go type bound for c. Filters
// may compare any column against null.
func coerce(c column, v any, filter bool) (any, error) {
	if v == nil {
		if c.nullable || filter {
			return nil, nil
		}
		return nil, invalid("column %q cannot be null", c.name)
	}

	switch c.kind {
	case kindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case kindUUID:
		if s, ok := v.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, invalid("column %q expects a uuid", c.name)
			}
			return id.String(), nil
		}
	case kindInt:
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), nil
		}
	case kindNumeric:
		if f, ok := v.(float64); ok {
			return f, nil
		}
	case kindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case kindTime:
		if s, ok := v.(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return ts, nil
			}
			if ts, err := time.Parse(time.DateOnly, s); err == nil {
				return ts, nil
			}
			return nil, invalid("column %q expects an RFC 3339 timestamp", c.name)
		}
	}
	return nil, invalid("column %q has a value of the wrong type", c.name)
}

// Package rows executes owner-scoped reads and writes against the dashboard
// tables. Identifiers reaching this package are already checked against the
// table registry of the row service; values are always bound as parameters.
package rows

import (
	"context"
	"encoding/json"
)

// Op is a comparison operator of a filter.
type Op string

const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Cond is a single "column op value" predicate. Conditions are ANDed.
type Cond struct {
	Column string
	Op     Op
	Value  any
}

type Order struct {
	Column    string
	Ascending bool
}

type SelectQuery struct {
	Table   string
	Columns []string
	Where   []Cond
	Order   *Order
	Limit   int
}

// Assignment sets Column to Value.
type Assignment struct {
	Column string
	Value  any
}

type UpdateQuery struct {
	Table string
	Set   []Assignment
	Where []Cond
	// Touch also sets updated_at to now().
	Touch bool
}

// Default stands for the column default in an insert record.
var Default = defaultValue{}

type defaultValue struct{}

type InsertQuery struct {
	Table   string
	Columns []string
	Values  [][]any
}

type Repository interface {
	// Select returns every matching row as a JSON object, in query order.
	Select(ctx context.Context, q SelectQuery) ([]json.RawMessage, error)
	// Update returns the number of rows changed.
	Update(ctx context.Context, q UpdateQuery) (int64, error)
	// Insert returns the inserted rows as JSON objects.
	Insert(ctx context.Context, q InsertQuery) ([]json.RawMessage, error)
}

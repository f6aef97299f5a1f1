// Package clause provides composable SQL expression fragments for the
// storage layer. Expressions build to a SQL snippet plus its arguments and
// are combined by the query builder; placeholder rewriting for the active
// dialect happens later, when the full statement is generated.
package clause

import (
	"fmt"
	"strings"
)

// Columnar is implemented by anything that can name a column.
type Columnar interface {
	ColumnName() string
}

// Column is a database column with an optional table qualifier.
type Column struct {
	Table string
	Name  string
}

func (c Column) Column() Column { return c }

// ColumnName returns the column name, table-qualified when a table is set.
func (c Column) ColumnName() string {
	if c.Table != "" {
		return c.Table + "." + c.Name
	}
	return c.Name
}

var _ Columnar = Column{}

// Count is a COUNT aggregate projection, optionally aliased for
// scanning into a named destination field.
func Count(column, alias string) Column {
	name := "COUNT(" + column + ")"
	if alias != "" {
		name += " AS " + alias
	}
	return Column{Name: name}
}

// Expression is the base interface for all SQL expressions.
type Expression interface {
	Build() (sql string, args []any, err error)
}

// Eq is column = value.
type Eq struct {
	Column Column
	Value  any
}

func (e Eq) Build() (string, []any, error) {
	return e.Column.ColumnName() + " = ?", []any{e.Value}, nil
}

// Neq is column <> value.
type Neq struct {
	Column Column
	Value  any
}

func (n Neq) Build() (string, []any, error) {
	return n.Column.ColumnName() + " <> ?", []any{n.Value}, nil
}

// Gt is column > value.
type Gt struct {
	Column Column
	Value  any
}

func (g Gt) Build() (string, []any, error) {
	return g.Column.ColumnName() + " > ?", []any{g.Value}, nil
}

// Lt is column < value.
type Lt struct {
	Column Column
	Value  any
}

func (l Lt) Build() (string, []any, error) {
	return l.Column.ColumnName() + " < ?", []any{l.Value}, nil
}

// Like is column LIKE value.
type Like struct {
	Column Column
	Value  string
}

func (l Like) Build() (string, []any, error) {
	return l.Column.ColumnName() + " LIKE ?", []any{l.Value}, nil
}

// IsNull is column IS NULL.
type IsNull struct {
	Column Column
}

func (i IsNull) Build() (string, []any, error) {
	return i.Column.ColumnName() + " IS NULL", nil, nil
}

// IN is column IN (values...). An empty value list builds to a
// contradiction rather than invalid SQL.
type IN struct {
	Column Column
	Values []any
}

func (i IN) Build() (string, []any, error) {
	switch len(i.Values) {
	case 0:
		return "1 = 0", nil, nil
	case 1:
		return i.Column.ColumnName() + " = ?", []any{i.Values[0]}, nil
	default:
		placeholders := make([]string, len(i.Values))
		for idx := range i.Values {
			placeholders[idx] = "?"
		}
		sql := fmt.Sprintf("%s IN (%s)", i.Column.ColumnName(), strings.Join(placeholders, ", "))
		return sql, i.Values, nil
	}
}

// And joins expressions with AND.
type And []Expression

func (a And) Build() (string, []any, error) {
	if len(a) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(a))
	var args []any
	for _, expr := range a {
		sql, exprArgs, err := expr.Build()
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, exprArgs...)
	}
	return strings.Join(parts, " AND "), args, nil
}

// Or joins expressions with OR.
type Or []Expression

func (o Or) Build() (string, []any, error) {
	if len(o) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(o))
	var args []any
	for _, expr := range o {
		sql, exprArgs, err := expr.Build()
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, exprArgs...)
	}
	return strings.Join(parts, " OR "), args, nil
}

// Expr is a raw SQL fragment with arguments, the escape hatch for
// anything the typed expressions cannot say.
type Expr struct {
	SQL  string
	Vars []any
}

func (e Expr) Build() (string, []any, error) {
	return e.SQL, e.Vars, nil
}

// Assignment is column = value in an UPDATE SET list.
type Assignment struct {
	Column Column
	Value  any
}

func (a Assignment) Build() (string, []any, error) {
	return a.Column.ColumnName() + " = ?", []any{a.Value}, nil
}

// OrderByColumn is a single ORDER BY term.
type OrderByColumn struct {
	Column Column
	Desc   bool
}

func (o OrderByColumn) Build() (string, []any, error) {
	dir := " ASC"
	if o.Desc {
		dir = " DESC"
	}
	return o.Column.ColumnName() + dir, nil, nil
}

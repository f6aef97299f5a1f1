package storage

import (
	"context"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// QueryBuilder assembles a declarative query against model T: filter
// predicates, ordering, pagination, column projection and an eager-load
// list. Nothing touches the database until Find, Take, Scan, Pluck or
// Count executes the description in one step.
//
// Filters compose in any order:
//
//	posts, err := storage.Query[models.Post](session).
//	    Where(clause.Eq{Column: clause.Column{Name: "type"}, Value: "blog"}).
//	    OrderBy(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
//	    Limit(10).
//	    Find(ctx)
type QueryBuilder[T any] struct {
	session *Session
	schema  Schema[T]
	builder sq.SelectBuilder

	// columns overrides the schema's column list when set via Select.
	columns []string

	// omitted columns are projected away from the schema's column list.
	omitted []string

	table    string
	preloads []preloadExecutor[T]
	err      error
}

// preloadExecutor resolves one related collection for an already
// materialized result set. Executors run after the primary query, each
// issuing a bounded number of batched fetches rather than one per row.
type preloadExecutor[T any] func(ctx context.Context, session *Session, results []*T) error

// Query starts a builder for model T on the given session.
func Query[T any](session *Session) *QueryBuilder[T] {
	schema := LoadSchema[T]()
	table := schema.TableName()

	sb := sq.Select().
		From(table).
		PlaceholderFormat(session.dialect.PlaceholderFormat())

	return &QueryBuilder[T]{
		session: session,
		schema:  schema,
		builder: sb,
		table:   table,
	}
}

// Where adds a predicate; repeated calls AND together.
func (q *QueryBuilder[T]) Where(expr clause.Expression) *QueryBuilder[T] {
	if q.err != nil {
		return q
	}
	sql, args, err := expr.Build()
	if err != nil {
		q.err = err
		return q
	}
	q.builder = q.builder.Where(sq.Expr(sql, args...))
	return q
}

// OrderBy appends ordering terms.
func (q *QueryBuilder[T]) OrderBy(orders ...clause.OrderByColumn) *QueryBuilder[T] {
	if q.err != nil {
		return q
	}
	for _, order := range orders {
		sql, _, err := order.Build()
		if err != nil {
			q.err = err
			return q
		}
		q.builder = q.builder.OrderBy(sql)
	}
	return q
}

func (q *QueryBuilder[T]) Limit(n uint64) *QueryBuilder[T] {
	q.builder = q.builder.Limit(n)
	return q
}

func (q *QueryBuilder[T]) Offset(n uint64) *QueryBuilder[T] {
	q.builder = q.builder.Offset(n)
	return q
}

// Select replaces the projected columns.
func (q *QueryBuilder[T]) Select(columns ...clause.Columnar) *QueryBuilder[T] {
	q.columns = ResolveColumnNames(columns)
	return q
}

// Omit drops columns from the projection, leaving the rest of the
// schema's column list intact. This is how restricted fields (a post's
// raw markdown, say) stay out of non-admin reads.
func (q *QueryBuilder[T]) Omit(columns ...clause.Columnar) *QueryBuilder[T] {
	q.omitted = append(q.omitted, ResolveColumnNames(columns)...)
	return q
}

// GroupBy adds a GROUP BY clause for aggregate projections.
func (q *QueryBuilder[T]) GroupBy(columns ...clause.Columnar) *QueryBuilder[T] {
	q.builder = q.builder.GroupBy(ResolveColumnNames(columns)...)
	return q
}

// WithPreload registers an eager load to run after the primary fetch.
func (q *QueryBuilder[T]) WithPreload(preload preloadExecutor[T]) *QueryBuilder[T] {
	q.preloads = append(q.preloads, preload)
	return q
}

// Find executes the query and returns every matching row, with all
// registered eager loads resolved.
func (q *QueryBuilder[T]) Find(ctx context.Context) ([]*T, error) {
	if q.err != nil {
		return nil, q.err
	}
	b := q.builder.Columns(q.resolveColumns()...)
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("storage: failed to build sql: %w", err)
	}

	var results []*T
	if err := q.session.Select(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("storage: query failed: %w", err)
	}

	for _, preload := range q.preloads {
		if err := preload(ctx, q.session, results); err != nil {
			return nil, fmt.Errorf("storage: preload failed: %w", err)
		}
	}

	return results, nil
}

// Take executes the query expecting a single row. ErrNotFound when the
// predicates match nothing.
func (q *QueryBuilder[T]) Take(ctx context.Context) (*T, error) {
	results, err := q.Limit(1).Find(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results[0], nil
}

// First returns the single row with the lowest primary key among the
// matches, ErrNotFound when there are none.
func (q *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	pk := q.schema.PK(nil).Column
	if pk.Table == "" {
		pk.Table = q.table
	}
	return q.OrderBy(clause.OrderByColumn{Column: pk, Desc: false}).Take(ctx)
}

// Scan executes the query into a caller-supplied destination, a struct
// pointer or slice-of-struct pointer. Used for aggregate rows that do
// not map onto T.
func (q *QueryBuilder[T]) Scan(ctx context.Context, dest any) error {
	if q.err != nil {
		return q.err
	}
	b := q.builder.Columns(q.resolveColumns()...)
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("storage: failed to build sql: %w", err)
	}
	if err := q.session.Select(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("storage: query failed: %w", err)
	}
	return nil
}

// Pluck reads a single column into dest, a pointer to a slice of the
// column's type.
func (q *QueryBuilder[T]) Pluck(ctx context.Context, column clause.Columnar, dest any) error {
	if q.err != nil {
		return q.err
	}
	b := q.builder.Columns(column.ColumnName())
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("storage: failed to build sql: %w", err)
	}
	if err := q.session.Select(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("storage: pluck failed: %w", err)
	}
	return nil
}

// Count returns the number of matching rows, ignoring any limit and
// offset already set on the builder.
func (q *QueryBuilder[T]) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	b := q.builder.Columns("COUNT(*)").RemoveLimit().RemoveOffset()
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("storage: failed to build count sql: %w", err)
	}

	var count int64
	err = q.session.Get(ctx, &count, query, args...)
	return count, err
}

// Chunk streams the result set to fn in batches of size, stopping on
// the first error. Used by scans that walk every row without holding
// the whole table in memory.
func (q *QueryBuilder[T]) Chunk(ctx context.Context, size int, fn func([]*T) error) error {
	if size <= 0 {
		return fmt.Errorf("storage: chunk size must be positive, got %d", size)
	}

	offset := uint64(0)
	for {
		chunkQuery := Query[T](q.session)
		chunkQuery.table = q.table
		chunkQuery.schema = q.schema
		chunkQuery.columns = q.columns
		chunkQuery.omitted = q.omitted
		chunkQuery.preloads = q.preloads
		chunkQuery.builder = q.builder.Limit(uint64(size)).Offset(offset)

		results, err := chunkQuery.Find(ctx)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			break
		}
		if err := fn(results); err != nil {
			return err
		}
		if len(results) < size {
			break
		}
		offset += uint64(size)
	}

	return nil
}

// ToSQL renders the statement without executing it.
func (q *QueryBuilder[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	b := q.builder.Columns(q.resolveColumns()...)
	return b.ToSql()
}

func (q *QueryBuilder[T]) resolveColumns() []string {
	cols := q.columns
	if len(cols) == 0 {
		cols = q.schema.SelectColumns()
	}
	if len(q.omitted) == 0 {
		return cols
	}
	kept := make([]string, 0, len(cols))
	for _, col := range cols {
		if !slices.Contains(q.omitted, col) {
			kept = append(kept, col)
		}
	}
	return kept
}

// ResolveColumnNames flattens Columnar values to their column names.
func ResolveColumnNames(args []clause.Columnar) []string {
	if len(args) == 0 {
		return nil
	}
	cols := make([]string, len(args))
	for i, arg := range args {
		cols[i] = arg.ColumnName()
	}
	return cols
}

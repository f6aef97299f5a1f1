package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// Repository bundles the persistence operations for model T: insert,
// overwrite, delete and insert-or-select, with before-save hooks applied
// on the way in. Where returns a scoped copy, so repositories can be
// shared and chained without interference.
type Repository[T any] struct {
	session *Session
	schema  Schema[T]
	scopes  []clause.Expression
}

// NewRepository creates a Repository for a registered model type.
func NewRepository[T any](session *Session) *Repository[T] {
	return &Repository[T]{
		session: session,
		schema:  LoadSchema[T](),
		scopes:  make([]clause.Expression, 0),
	}
}

// Where returns a copy of the repository with extra predicates that
// scope every subsequent operation.
func (r *Repository[T]) Where(conds ...clause.Expression) *Repository[T] {
	newRepo := *r
	newRepo.scopes = append(slices.Clone(newRepo.scopes), conds...)
	return &newRepo
}

// Create applies the model's before-save hook, inserts the row and
// backfills an auto-increment id onto the model.
func (r *Repository[T]) Create(ctx context.Context, model *T) error {
	if err := triggerBeforeCreate(ctx, model); err != nil {
		return err
	}

	cols, vals := r.schema.InsertRow(model)

	builder := sq.Insert(r.schema.TableName()).
		Columns(cols...).
		Values(vals...).
		PlaceholderFormat(r.session.dialect.PlaceholderFormat())

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	result, err := r.session.Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if r.schema.AutoIncrement() {
		if id, err := result.LastInsertId(); err == nil {
			r.schema.SetPK(model, id)
		}
	}

	return triggerAfterCreate(ctx, model)
}

// upsertConfig carries the conflict target and update list for Upsert.
type upsertConfig struct {
	conflictCols []string
	updateCols   []string
	doNothing    bool
}

// UpsertOption configures an Upsert operation.
type UpsertOption func(*upsertConfig)

// OnConflict names the columns whose uniqueness constraint detects the
// conflict. Defaults to the primary key.
func OnConflict(columns ...clause.Columnar) UpsertOption {
	return func(c *upsertConfig) {
		c.conflictCols = ResolveColumnNames(columns)
	}
}

// DoUpdate names the columns rewritten on conflict. Without it every
// non-conflict column is rewritten.
func DoUpdate(columns ...clause.Columnar) UpsertOption {
	return func(c *upsertConfig) {
		c.updateCols = ResolveColumnNames(columns)
	}
}

// DoNothing turns a conflicting insert into a no-op.
func DoNothing() UpsertOption {
	return func(c *upsertConfig) {
		c.doNothing = true
	}
}

// Upsert inserts the model or, on a uniqueness conflict, updates the
// existing row in place using the dialect's conflict clause.
func (r *Repository[T]) Upsert(ctx context.Context, model *T, opts ...UpsertOption) error {
	config := &upsertConfig{}
	for _, opt := range opts {
		opt(config)
	}

	if err := triggerBeforeCreate(ctx, model); err != nil {
		return err
	}

	cols, vals := r.schema.InsertRow(model)

	conflictCols := config.conflictCols
	if len(conflictCols) == 0 {
		conflictCols = []string{r.schema.PK(nil).Column.Name}
	}

	updateCols := config.updateCols
	if len(updateCols) == 0 && !config.doNothing {
		for _, col := range cols {
			if !slices.Contains(conflictCols, col) {
				updateCols = append(updateCols, col)
			}
		}
	}

	builder := sq.Insert(r.schema.TableName()).
		Columns(cols...).
		Values(vals...).
		Suffix(r.session.dialect.UpsertClause(conflictCols, updateCols)).
		PlaceholderFormat(r.session.dialect.PlaceholderFormat())

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.session.Exec(ctx, query, args...); err != nil {
		return err
	}

	return triggerAfterCreate(ctx, model)
}

// Update applies the model's before-save hook and overwrites the row at
// the model's primary key. ErrNotFound when no row carries that key.
func (r *Repository[T]) Update(ctx context.Context, model *T) error {
	if err := triggerBeforeUpdate(ctx, model); err != nil {
		return err
	}

	setMap := r.schema.UpdateMap(model)
	pk := r.schema.PK(model)

	builder := sq.Update(r.schema.TableName()).
		SetMap(setMap).
		Where(sq.Eq{pk.Column.Name: pk.Value})

	for _, scope := range r.scopes {
		cond, condArgs, err := scope.Build()
		if err != nil {
			return err
		}
		builder = builder.Where(sq.Expr(cond, condArgs...))
	}

	builder = builder.PlaceholderFormat(r.session.dialect.PlaceholderFormat())

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	result, err := r.session.Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s id %v", ErrNotFound, r.schema.TableName(), pk.Value)
	}

	return nil
}

// UpdateColumns writes only the given assignments to the row with the
// given id, skipping hooks. Zero assignments is a no-op.
func (r *Repository[T]) UpdateColumns(ctx context.Context, id any, assignments ...clause.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	pkMeta := r.schema.PK(nil)

	builder := sq.Update(r.schema.TableName()).
		Where(sq.Eq{pkMeta.Column.Name: id})

	for _, scope := range r.scopes {
		cond, condArgs, err := scope.Build()
		if err != nil {
			return err
		}
		builder = builder.Where(sq.Expr(cond, condArgs...))
	}

	builder = builder.PlaceholderFormat(r.session.dialect.PlaceholderFormat())

	for _, assignment := range assignments {
		builder = builder.Set(assignment.Column.ColumnName(), assignment.Value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.session.Exec(ctx, query, args...)
	return err
}

// Delete removes the row with the given primary key. Deleting an absent
// row is not an error.
func (r *Repository[T]) Delete(ctx context.Context, id any) error {
	pkMeta := r.schema.PK(nil)

	builder := sq.Delete(r.schema.TableName()).
		Where(sq.Eq{pkMeta.Column.Name: id})

	for _, scope := range r.scopes {
		cond, condArgs, err := scope.Build()
		if err != nil {
			return err
		}
		builder = builder.Where(sq.Expr(cond, condArgs...))
	}

	builder = builder.PlaceholderFormat(r.session.dialect.PlaceholderFormat())

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.session.Exec(ctx, query, args...)
	return err
}

// DeleteModel removes the row behind a loaded model.
func (r *Repository[T]) DeleteModel(ctx context.Context, model *T) error {
	pk := r.schema.PK(model)
	return r.Delete(ctx, pk.Value)
}

// DeleteWhere removes every row matching the given predicate combined
// with the repository's scopes. Returns the number of rows removed.
func (r *Repository[T]) DeleteWhere(ctx context.Context, conds ...clause.Expression) (int64, error) {
	builder := sq.Delete(r.schema.TableName())

	for _, expr := range append(slices.Clone(r.scopes), conds...) {
		cond, condArgs, err := expr.Build()
		if err != nil {
			return 0, err
		}
		builder = builder.Where(sq.Expr(cond, condArgs...))
	}

	builder = builder.PlaceholderFormat(r.session.dialect.PlaceholderFormat())

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.session.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Query starts a query builder carrying the repository's scopes.
func (r *Repository[T]) Query() *QueryBuilder[T] {
	q := Query[T](r.session)
	for _, scope := range r.scopes {
		q = q.Where(scope)
	}
	return q
}

// FindOne fetches the row with the given primary key. ErrNotFound when
// it does not exist.
func (r *Repository[T]) FindOne(ctx context.Context, id any) (*T, error) {
	pkMeta := r.schema.PK(nil)
	return r.Query().Where(clause.Eq{Column: pkMeta.Column, Value: id}).First(ctx)
}

// FirstOrCreate is the idempotent insert-or-select: look up the row
// matching the repository's scope predicates and return it, or insert
// the candidate and return that. No retry on a lost race; a concurrent
// duplicate insert surfaces as ErrConstraint.
func (r *Repository[T]) FirstOrCreate(ctx context.Context, candidate *T) (*T, error) {
	result, err := r.Query().Take(ctx)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, ErrNotFound) {
		if err := r.Create(ctx, candidate); err != nil {
			return nil, fmt.Errorf("storage: first or create failed: %w", err)
		}
		return candidate, nil
	}
	return nil, err
}

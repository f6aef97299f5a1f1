package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Executor is the operation set shared by a live connection and an open
// transaction. It is what the rest of the layer executes against, so a
// Session can switch between the two transparently.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// Session holds the database handle, the current executor (connection or
// transaction) and the observability configuration. Sessions are cheap:
// a request borrows one for its duration and releases it on return.
type Session struct {
	db       *sqlx.DB
	executor Executor
	dialect  Dialect
	obs      *ObservabilityConfig
}

// NewSession wraps db in a session for the given dialect. Options attach
// logging, tracing and metrics; a bare session is silent.
func NewSession(db *sql.DB, dialect Dialect, opts ...SessionOption) *Session {
	xdb := sqlx.NewDb(db, dialect.Name())
	s := &Session{
		db:       xdb,
		executor: xdb,
		dialect:  dialect,
		obs:      defaultObservabilityConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the session's SQL dialect.
func (s *Session) Dialect() Dialect { return s.dialect }

func (s *Session) instrument(ctx context.Context, op, query string) (context.Context, func(error) error) {
	ctx, span := s.startSpan(ctx, "storage."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", s.dialect.Name()),
		attribute.String("db.operation", op),
	)
	start := time.Now()
	return ctx, func(err error) error {
		elapsed := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.recordMetrics(ctx, op, elapsed, err)
		s.logQuery(ctx, op, query, elapsed, err)
		return wrapDBError(err)
	}
}

func (s *Session) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx, done := s.instrument(ctx, "query", query)
	rows, err := s.executor.QueryContext(ctx, query, args...)
	return rows, done(err)
}

func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, done := s.instrument(ctx, "exec", query)
	result, err := s.executor.ExecContext(ctx, query, args...)
	return result, done(err)
}

func (s *Session) Select(ctx context.Context, dest any, query string, args ...any) error {
	ctx, done := s.instrument(ctx, "select", query)
	return done(s.executor.SelectContext(ctx, dest, query, args...))
}

func (s *Session) Get(ctx context.Context, dest any, query string, args ...any) error {
	ctx, done := s.instrument(ctx, "get", query)
	return done(s.executor.GetContext(ctx, dest, query, args...))
}

// Begin opens a transaction and returns a session scoped to it. The
// parent session is untouched.
func (s *Session) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Session{
		db:       s.db,
		executor: tx,
		dialect:  s.dialect,
		obs:      s.obs,
	}, nil
}

func (s *Session) Commit() error {
	if tx, ok := s.executor.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return sql.ErrTxDone
}

func (s *Session) Rollback() error {
	if tx, ok := s.executor.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return sql.ErrTxDone
}

// Transaction runs fn inside a transaction, committing on success and
// rolling back on error or panic. A session that is already
// transactional runs fn directly, joining the enclosing scope.
func (s *Session) Transaction(ctx context.Context, fn func(txSession *Session) error) (err error) {
	if _, ok := s.executor.(*sqlx.Tx); ok {
		return fn(s)
	}

	txSession, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = txSession.Rollback()
			panic(p)
		} else if err != nil {
			_ = txSession.Rollback()
		}
	}()

	err = fn(txSession)
	if err != nil {
		return err
	}

	return txSession.Commit()
}

package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

const testDDL = `
CREATE TABLE users (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	salt     TEXT NOT NULL
);
CREATE TABLE categories (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	title     TEXT NOT NULL,
	url       TEXT NOT NULL UNIQUE,
	num_posts INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE tags (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	title     TEXT NOT NULL UNIQUE,
	url       TEXT NOT NULL UNIQUE,
	num_posts INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE posts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id  INTEGER NOT NULL,
	user_id      INTEGER NOT NULL,
	parent_id    INTEGER,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE,
	markdown     TEXT NOT NULL,
	html         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'draft',
	type         TEXT NOT NULL DEFAULT 'blog',
	created_at   DATETIME NOT NULL,
	num_comments INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE comments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id    INTEGER NOT NULL,
	author     TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	homepage   TEXT NOT NULL DEFAULT '',
	markdown   TEXT NOT NULL,
	html       TEXT NOT NULL,
	ip         TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'public',
	created_at DATETIME NOT NULL
);
CREATE TABLE post_tags (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	tag_id  INTEGER NOT NULL,
	UNIQUE (post_id, tag_id)
);
`

func newSession(t *testing.T) *storage.Session {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(testDDL)
	require.NoError(t, err)

	return storage.NewSession(db, storage.SQLite)
}

func insertPost(t *testing.T, session *storage.Session, title, url, status string) *models.Post {
	t.Helper()
	post := &models.Post{
		CategoryID: 1,
		UserID:     1,
		Title:      title,
		URL:        url,
		Markdown:   "md",
		HTML:       "<p>md</p>",
		Status:     status,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, storage.NewRepository[models.Post](session).Create(context.Background(), post))
	return post
}

func TestCreateBackfillsID(t *testing.T) {
	session := newSession(t)

	first := insertPost(t, session, "a", "a", "public")
	second := insertPost(t, session, "b", "b", "public")

	assert.NotZero(t, first.ID)
	assert.Equal(t, first.ID+1, second.ID)
}

func TestCreateRunsBeforeHook(t *testing.T) {
	session := newSession(t)

	post := &models.Post{
		CategoryID: 1,
		UserID:     1,
		Title:      "hooked",
		URL:        "hooked",
	}
	require.NoError(t, storage.NewRepository[models.Post](session).Create(context.Background(), post))

	assert.Equal(t, "draft", post.Status)
	assert.Equal(t, "blog", post.Type)
	assert.False(t, post.CreatedAt.IsZero())
}

func TestUpdateMissingRow(t *testing.T) {
	session := newSession(t)

	ghost := &models.Post{
		ID:         999,
		CategoryID: 1,
		UserID:     1,
		Title:      "ghost",
		URL:        "ghost",
	}
	err := storage.NewRepository[models.Post](session).Update(context.Background(), ghost)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateOverwritesRow(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	post := insertPost(t, session, "before", "before", "draft")
	post.Title = "after"
	post.Status = "public"
	require.NoError(t, storage.NewRepository[models.Post](session).Update(ctx, post))

	got, err := storage.Query[models.Post](session).
		Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: post.ID}).
		Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, "public", got.Status)
	assert.Equal(t, "before", got.URL)
}

func TestTakeNotFound(t *testing.T) {
	session := newSession(t)

	_, err := storage.Query[models.Post](session).
		Where(clause.Eq{Column: clause.Column{Name: "url"}, Value: "nope"}).
		Take(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOmitProjectsColumnAway(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	insertPost(t, session, "secret", "secret", "public")

	got, err := storage.Query[models.Post](session).
		Omit(clause.Column{Name: "markdown"}).
		Take(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Markdown)
	assert.NotEmpty(t, got.HTML)
}

func TestWhereReturnsScopedCopy(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	insertPost(t, session, "pub", "pub", "public")
	insertPost(t, session, "dra", "dra", "draft")

	base := storage.NewRepository[models.Post](session)
	scoped := base.Where(clause.Eq{Column: clause.Column{Name: "status"}, Value: "public"})

	all, err := base.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all, "scoping must not leak back into the base repository")

	public, err := scoped.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), public)
}

func TestFirstOrCreate(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	repo := storage.NewRepository[models.Tag](session).
		Where(clause.Eq{Column: clause.Column{Name: "title"}, Value: "lisp"})

	created, err := repo.FirstOrCreate(ctx, &models.Tag{Title: "lisp", URL: "lisp"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	again, err := repo.FirstOrCreate(ctx, &models.Tag{Title: "lisp", URL: "lisp-2"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "lisp", again.URL, "existing row wins over the candidate")

	count, err := storage.Query[models.Tag](session).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpsertDoNothing(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	repo := storage.NewRepository[models.Category](session)
	require.NoError(t, repo.Upsert(ctx, &models.Category{Title: "Misc", URL: "misc"},
		storage.OnConflict(clause.Column{Name: "url"}),
		storage.DoNothing()))

	// Second run collides on url and leaves the original title alone.
	require.NoError(t, repo.Upsert(ctx, &models.Category{Title: "Renamed", URL: "misc"},
		storage.OnConflict(clause.Column{Name: "url"}),
		storage.DoNothing()))

	got, err := storage.Query[models.Category](session).
		Where(clause.Eq{Column: clause.Column{Name: "url"}, Value: "misc"}).
		Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Misc", got.Title)
}

func TestUpsertDoUpdate(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	repo := storage.NewRepository[models.Category](session)
	require.NoError(t, repo.Upsert(ctx, &models.Category{Title: "Old", URL: "c"},
		storage.OnConflict(clause.Column{Name: "url"})))
	require.NoError(t, repo.Upsert(ctx, &models.Category{Title: "New", URL: "c"},
		storage.OnConflict(clause.Column{Name: "url"}),
		storage.DoUpdate(clause.Column{Name: "title"})))

	got, err := storage.Query[models.Category](session).
		Where(clause.Eq{Column: clause.Column{Name: "url"}, Value: "c"}).
		Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
}

func TestConstraintErrorMapping(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	insertPost(t, session, "one", "same-url", "public")

	dup := &models.Post{
		CategoryID: 1,
		UserID:     1,
		Title:      "two",
		URL:        "same-url",
	}
	err := storage.NewRepository[models.Post](session).Create(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrConstraint)
}

func TestDeleteWhereReportsCount(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	insertPost(t, session, "a", "a", "draft")
	insertPost(t, session, "b", "b", "draft")
	insertPost(t, session, "c", "c", "public")

	repo := storage.NewRepository[models.Post](session)
	n, err := repo.DeleteWhere(ctx, clause.Eq{Column: clause.Column{Name: "status"}, Value: "draft"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteWhere(ctx, clause.Eq{Column: clause.Column{Name: "status"}, Value: "draft"})
	require.NoError(t, err)
	assert.Zero(t, n, "absent rows delete as a no-op")
}

func TestTransactionRollsBackOnError(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := session.Transaction(ctx, func(tx *storage.Session) error {
		insertPost(t, tx, "doomed", "doomed", "public")
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	count, err := storage.Query[models.Post](session).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransactionCommits(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	err := session.Transaction(ctx, func(tx *storage.Session) error {
		insertPost(t, tx, "kept", "kept", "public")
		return nil
	})
	require.NoError(t, err)

	count, err := storage.Query[models.Post](session).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNestedTransactionJoins(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	err := session.Transaction(ctx, func(tx *storage.Session) error {
		return tx.Transaction(ctx, func(inner *storage.Session) error {
			insertPost(t, inner, "joined", "joined", "public")
			return nil
		})
	})
	require.NoError(t, err)

	count, err := storage.Query[models.Post](session).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChunkWalksAllRows(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	urls := []string{"a", "b", "c", "d", "e"}
	for _, u := range urls {
		insertPost(t, session, u, u, "public")
	}

	var seen int
	var batches int
	err := storage.Query[models.Post](session).Chunk(ctx, 2, func(posts []*models.Post) error {
		batches++
		seen += len(posts)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, batches)
}

func TestPluck(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	insertPost(t, session, "x", "x", "public")
	insertPost(t, session, "y", "y", "public")

	var titles []string
	err := storage.Query[models.Post](session).
		OrderBy(clause.OrderByColumn{Column: clause.Column{Name: "title"}}).
		Pluck(ctx, clause.Column{Name: "title"}, &titles)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, titles)
}

package blog

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/render"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
)

// newTestSession opens an in-memory database with the schema applied.
func newTestSession(t *testing.T) *storage.Session {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	session := storage.NewSession(db, storage.SQLite)
	require.NoError(t, Migrate(context.Background(), session))
	return session
}

func newTestService(t *testing.T, session *storage.Session) *Service {
	t.Helper()
	return NewService(session, render.NewMarkdown(), nil, nil)
}

// seedUser and seedPost cut the boilerplate out of tests that just
// need rows to operate on.
func seedUser(t *testing.T, session *storage.Session) *models.User {
	t.Helper()
	user, err := CreateUser(context.Background(), session, "olivia", "hunter2")
	require.NoError(t, err)
	return user
}

func seedPost(t *testing.T, svc *Service, in PostInput) *models.Post {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), in)
	require.NoError(t, err)
	return post
}

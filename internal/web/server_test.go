package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FashtimeDotCom/cow-blog/config"
	"github.com/FashtimeDotCom/cow-blog/internal/blog"
	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/render"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine, *storage.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	session := storage.NewSession(db, storage.SQLite)
	require.NoError(t, blog.Migrate(context.Background(), session))

	cfg := &config.Config{}
	cfg.Site.Title = "Test Blog"
	cfg.Site.URL = "http://example.com"
	cfg.Site.PageSize = 10
	cfg.HTTP.SessionTTL = time.Hour

	svc := blog.NewService(session, render.NewMarkdown(), nil, nil)
	server := NewServer(cfg, session, svc, nil)
	return server, server.Router(), session
}

func seedPublicPost(t *testing.T, session *storage.Session, title string) *models.Post {
	t.Helper()
	ctx := context.Background()
	user, err := blog.CreateUser(ctx, session, "admin-"+title, "pw")
	require.NoError(t, err)

	svc := blog.NewService(session, render.NewMarkdown(), nil, nil)
	post, err := svc.CreatePost(ctx, blog.PostInput{
		Title:      title,
		Markdown:   "body of " + title,
		Status:     models.StatusPublic,
		CategoryID: 1,
		UserID:     user.ID,
	})
	require.NoError(t, err)
	return post
}

func TestListPostsHidesDrafts(t *testing.T) {
	_, router, session := newTestServer(t)
	ctx := context.Background()

	seedPublicPost(t, session, "Visible Post")

	user, err := blog.CreateUser(ctx, session, "drafter", "pw")
	require.NoError(t, err)
	svc := blog.NewService(session, render.NewMarkdown(), nil, nil)
	_, err = svc.CreatePost(ctx, blog.PostInput{
		Title:      "Secret Draft",
		Markdown:   "wip",
		Status:     models.StatusDraft,
		CategoryID: 1,
		UserID:     user.ID,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Posts []models.Post `json:"posts"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "Visible Post", body.Posts[0].Title)
	assert.Equal(t, int64(1), body.Total)
}

func TestShowPost(t *testing.T) {
	_, router, session := newTestServer(t)
	seedPublicPost(t, session, "Readable")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/post/readable", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/post/no-such", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCommentEndpoint(t *testing.T) {
	_, router, session := newTestServer(t)
	seedPublicPost(t, session, "Commentable")

	payload := `{"author":"Reader","markdown":"nice one"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/post/commentable/comments", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var comment models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.Equal(t, "Reader", comment.Author)
	assert.Contains(t, comment.HTML, "nice one")
}

func TestAdminRequiresSession(t *testing.T) {
	_, router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginAndAdminAccess(t *testing.T) {
	_, router, session := newTestServer(t)
	_, err := blog.CreateUser(context.Background(), session, "boxy", "moo")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"boxy","password":"moo"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginBadPassword(t *testing.T) {
	_, router, session := newTestServer(t)
	_, err := blog.CreateUser(context.Background(), session, "boxy", "moo")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"boxy","password":"oink"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeed(t *testing.T) {
	_, router, session := newTestServer(t)
	seedPublicPost(t, session, "Syndicated")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed.xml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "rss")
	assert.Contains(t, w.Body.String(), "Syndicated")
	assert.Contains(t, w.Body.String(), "http://example.com/post/syndicated")
}

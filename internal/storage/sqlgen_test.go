package storage_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

func genSession(t *testing.T) *storage.Session {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSession(db, storage.SQLite)
}

func TestSelectSQLGeneration(t *testing.T) {
	session := genSession(t)

	t.Run("filters and pagination", func(t *testing.T) {
		query, args, err := storage.Query[models.Post](session).
			Where(clause.Eq{Column: clause.Column{Name: "status"}, Value: "public"}).
			Where(clause.Eq{Column: clause.Column{Name: "type"}, Value: "blog"}).
			OrderBy(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
			Limit(10).
			Offset(20).
			ToSQL()
		require.NoError(t, err)
		assert.Contains(t, query, "FROM posts")
		assert.Contains(t, query, "status = ?")
		assert.Contains(t, query, "type = ?")
		assert.Contains(t, query, "ORDER BY created_at DESC")
		assert.Contains(t, query, "LIMIT 10")
		assert.Contains(t, query, "OFFSET 20")
		assert.Equal(t, []any{"public", "blog"}, args)
	})

	t.Run("omit drops the column", func(t *testing.T) {
		query, _, err := storage.Query[models.Post](session).
			Omit(clause.Column{Name: "markdown"}).
			ToSQL()
		require.NoError(t, err)
		assert.NotContains(t, query, "markdown")
		assert.Contains(t, query, "html")
	})

	t.Run("empty IN never matches", func(t *testing.T) {
		query, _, err := storage.Query[models.Tag](session).
			Where(clause.IN{Column: clause.Column{Name: "id"}, Values: nil}).
			ToSQL()
		require.NoError(t, err)
		assert.Contains(t, query, "1 = 0")
	})
}

func TestUpsertClauseGeneration(t *testing.T) {
	cases := []struct {
		name         string
		dialect      storage.Dialect
		conflictCols []string
		updateCols   []string
		want         string
	}{
		{
			name:         "sqlite do update",
			dialect:      storage.SQLite,
			conflictCols: []string{"url"},
			updateCols:   []string{"title"},
			want:         "ON CONFLICT (url) DO UPDATE SET title=excluded.title",
		},
		{
			name:         "sqlite do nothing",
			dialect:      storage.SQLite,
			conflictCols: []string{"post_id", "tag_id"},
			want:         "ON CONFLICT (post_id, tag_id) DO NOTHING",
		},
		{
			name:         "postgres do update",
			dialect:      storage.PostgreSQL,
			conflictCols: []string{"url"},
			updateCols:   []string{"title", "num_posts"},
			want:         "ON CONFLICT (url) DO UPDATE SET title=EXCLUDED.title, num_posts=EXCLUDED.num_posts",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.dialect.UpsertClause(tc.conflictCols, tc.updateCols))
		})
	}
}

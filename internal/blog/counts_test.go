package blog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

func TestUpdateCounts(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	svc := newTestService(t, session)
	user := seedUser(t, session)

	blogPost := seedPost(t, svc, PostInput{
		Title:      "Counted",
		Markdown:   "x",
		Status:     models.StatusPublic,
		CategoryID: 1,
		UserID:     user.ID,
		Tags:       []string{"counted"},
	})
	seedPost(t, svc, PostInput{
		Title:      "About",
		Markdown:   "x",
		Status:     models.StatusPublic,
		Type:       models.TypePage,
		CategoryID: 1,
		UserID:     user.ID,
		Tags:       []string{"counted"},
	})

	for i := 0; i < 2; i++ {
		_, err := svc.CreateComment(ctx, CommentInput{PostID: blogPost.ID, Markdown: "nice"})
		require.NoError(t, err)
	}
	spam, err := svc.CreateComment(ctx, CommentInput{PostID: blogPost.ID, Markdown: "buy pills"})
	require.NoError(t, err)
	require.NoError(t, svc.MarkCommentSpam(ctx, spam.ID))

	require.NoError(t, UpdateCounts(ctx, session))

	got, err := Posts(session).ByID(blogPost.ID).One(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.NumComments, "spam comments do not count")

	// The page carries the same tag but only blog posts count.
	tag, err := TagByURL(ctx, session, "counted")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tag.NumPosts)

	category, err := CategoryByURL(ctx, session, "uncategorized")
	require.NoError(t, err)
	assert.Equal(t, int64(1), category.NumPosts, "pages stay out of category counts")
}

func TestUpdateCountsResetsStale(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)
	svc := newTestService(t, session)
	user := seedUser(t, session)

	post := seedPost(t, svc, PostInput{
		Title:      "Stale",
		Markdown:   "x",
		Status:     models.StatusPublic,
		CategoryID: 1,
		UserID:     user.ID,
	})

	// Force a wrong stored value, then recount.
	repo := storage.NewRepository[models.Post](session)
	require.NoError(t, repo.UpdateColumns(ctx, post.ID,
		clause.Assignment{Column: clause.Column{Name: "num_comments"}, Value: 42}))

	require.NoError(t, UpdateCounts(ctx, session))

	got, err := Posts(session).ByID(post.ID).One(ctx)
	require.NoError(t, err)
	assert.Zero(t, got.NumComments)
}

package blog

import (
	"context"
	"fmt"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

type countRow struct {
	Key int64 `db:"k"`
	N   int64 `db:"n"`
}

const countChunkSize = 200

// UpdateCounts recomputes every stored count from the live rows:
// public comments per post, blog posts per tag, and blog posts per
// category. Pages never contribute to tag or category counts. Rows
// whose stored count already matches are left untouched.
func UpdateCounts(ctx context.Context, session *storage.Session) error {
	if err := updateCommentCounts(ctx, session); err != nil {
		return fmt.Errorf("comment counts: %w", err)
	}
	if err := updateTagCounts(ctx, session); err != nil {
		return fmt.Errorf("tag counts: %w", err)
	}
	if err := updateCategoryCounts(ctx, session); err != nil {
		return fmt.Errorf("category counts: %w", err)
	}
	return nil
}

func updateCommentCounts(ctx context.Context, session *storage.Session) error {
	var rows []countRow
	err := storage.Query[models.Comment](session).
		Select(clause.Column{Name: "post_id AS k"}, clause.Count("*", "n")).
		Where(clause.Eq{Column: commentStatus, Value: models.CommentStatusPublic}).
		GroupBy(commentPostID).
		Scan(ctx, &rows)
	if err != nil {
		return err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.N
	}

	repo := storage.NewRepository[models.Post](session)
	return storage.Query[models.Post](session).
		Omit(postMarkdown).
		Chunk(ctx, countChunkSize, func(posts []*models.Post) error {
			for _, post := range posts {
				want := counts[post.ID]
				if post.NumComments == want {
					continue
				}
				err := repo.UpdateColumns(ctx, post.ID,
					clause.Assignment{Column: clause.Column{Name: "num_comments"}, Value: want})
				if err != nil {
					return err
				}
			}
			return nil
		})
}

func updateTagCounts(ctx context.Context, session *storage.Session) error {
	// Only join rows whose post is a blog entry count toward a tag.
	var rows []countRow
	err := storage.Query[models.PostTag](session).
		Select(clause.Column{Name: "tag_id AS k"}, clause.Count("*", "n")).
		Where(clause.Expr{
			SQL:  "post_id IN (SELECT id FROM posts WHERE type = ?)",
			Vars: []any{models.TypeBlog},
		}).
		GroupBy(joinTagID).
		Scan(ctx, &rows)
	if err != nil {
		return err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.N
	}

	repo := storage.NewRepository[models.Tag](session)
	return storage.Query[models.Tag](session).
		Chunk(ctx, countChunkSize, func(tags []*models.Tag) error {
			for _, tag := range tags {
				want := counts[tag.ID]
				if tag.NumPosts == want {
					continue
				}
				err := repo.UpdateColumns(ctx, tag.ID,
					clause.Assignment{Column: clause.Column{Name: "num_posts"}, Value: want})
				if err != nil {
					return err
				}
			}
			return nil
		})
}

func updateCategoryCounts(ctx context.Context, session *storage.Session) error {
	var rows []countRow
	err := storage.Query[models.Post](session).
		Select(clause.Column{Name: "category_id AS k"}, clause.Count("*", "n")).
		Where(clause.Eq{Column: postType, Value: models.TypeBlog}).
		GroupBy(clause.Column{Name: "category_id"}).
		Scan(ctx, &rows)
	if err != nil {
		return err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.N
	}

	repo := storage.NewRepository[models.Category](session)
	return storage.Query[models.Category](session).
		Chunk(ctx, countChunkSize, func(categories []*models.Category) error {
			for _, category := range categories {
				want := counts[category.ID]
				if category.NumPosts == want {
					continue
				}
				err := repo.UpdateColumns(ctx, category.ID,
					clause.Assignment{Column: clause.Column{Name: "num_posts"}, Value: want})
				if err != nil {
					return err
				}
			}
			return nil
		})
}

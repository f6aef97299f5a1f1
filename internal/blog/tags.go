package blog

import (
	"context"
	"fmt"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// AddTagsToPost attaches each titled tag to the post, creating tags
// that do not exist yet. Titles are matched exactly, case intact, and
// new tags get a slug derived from the title. Re-adding an attached
// tag is a no-op, so the (post, tag) pair stays unique.
func AddTagsToPost(ctx context.Context, session *storage.Session, postID int64, titles []string) error {
	tagRepo := storage.NewRepository[models.Tag](session)
	joinRepo := storage.NewRepository[models.PostTag](session)

	for _, title := range titles {
		tag, err := tagRepo.
			Where(clause.Eq{Column: tagTitle, Value: title}).
			FirstOrCreate(ctx, &models.Tag{Title: title, URL: Slug(title)})
		if err != nil {
			return fmt.Errorf("attach tag %q: %w", title, err)
		}

		_, err = joinRepo.
			Where(clause.Eq{Column: joinPostID, Value: postID}).
			Where(clause.Eq{Column: joinTagID, Value: tag.ID}).
			FirstOrCreate(ctx, &models.PostTag{PostID: postID, TagID: tag.ID})
		if err != nil {
			return fmt.Errorf("attach tag %q: %w", title, err)
		}
	}
	return nil
}

// RemoveTagsFromPost detaches the listed tags from the post. Tags not
// attached in the first place are skipped silently; the tag rows
// themselves survive.
func RemoveTagsFromPost(ctx context.Context, session *storage.Session, postID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	joinRepo := storage.NewRepository[models.PostTag](session)
	_, err := joinRepo.DeleteWhere(ctx,
		clause.Eq{Column: joinPostID, Value: postID},
		clause.IN{Column: joinTagID, Values: int64Values(tagIDs)},
	)
	return err
}

// TagIDsForPost returns the ids of the post's attached tags.
func TagIDsForPost(ctx context.Context, session *storage.Session, postID int64) ([]int64, error) {
	var ids []int64
	err := storage.Query[models.PostTag](session).
		Where(clause.Eq{Column: joinPostID, Value: postID}).
		Pluck(ctx, joinTagID, &ids)
	return ids, err
}

func int64Values(ids []int64) []any {
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	return vals
}

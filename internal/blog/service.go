package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/render"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// Service bundles the write-side operations of the blog: posts,
// comments, categories and their bookkeeping. Reads go through the
// query helpers in this package.
type Service struct {
	session  *storage.Session
	renderer render.Renderer
	slugger  *Slugger
	logger   *slog.Logger
}

func NewService(session *storage.Session, renderer render.Renderer, slugger *Slugger, logger *slog.Logger) *Service {
	if slugger == nil {
		slugger = defaultSlugger
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{session: session, renderer: renderer, slugger: slugger, logger: logger}
}

// PostInput carries everything needed to create or update a post.
// An empty URL means derive one from the title.
type PostInput struct {
	Title      string
	URL        string
	Markdown   string
	Status     string
	Type       string
	CategoryID int64
	UserID     int64
	ParentID   *int64
	Tags       []string
}

// CreatePost writes a post and its tag associations in one
// transaction and returns the stored row.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	post := &models.Post{
		Title:      strings.TrimSpace(in.Title),
		URL:        in.URL,
		Markdown:   in.Markdown,
		Status:     in.Status,
		Type:       in.Type,
		CategoryID: in.CategoryID,
		UserID:     in.UserID,
		ParentID:   in.ParentID,
	}
	if post.URL == "" {
		post.URL = s.slugger.Slug(post.Title)
	}
	post.HTML = s.renderer.Render(post.Markdown, false)

	err := s.session.Transaction(ctx, func(tx *storage.Session) error {
		if err := storage.NewRepository[models.Post](tx).Create(ctx, post); err != nil {
			return err
		}
		return AddTagsToPost(ctx, tx, post.ID, in.Tags)
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.logger.InfoContext(ctx, "post created", "id", post.ID, "url", post.URL)
	return post, nil
}

// UpdatePost rewrites the post's fields and reconciles its tag set to
// exactly the titles given. Missing post yields storage.ErrNotFound.
func (s *Service) UpdatePost(ctx context.Context, id int64, in PostInput) (*models.Post, error) {
	post := &models.Post{
		ID:         id,
		Title:      strings.TrimSpace(in.Title),
		URL:        in.URL,
		Markdown:   in.Markdown,
		Status:     in.Status,
		Type:       in.Type,
		CategoryID: in.CategoryID,
		UserID:     in.UserID,
		ParentID:   in.ParentID,
	}
	if post.URL == "" {
		post.URL = s.slugger.Slug(post.Title)
	}
	post.HTML = s.renderer.Render(post.Markdown, false)

	err := s.session.Transaction(ctx, func(tx *storage.Session) error {
		if err := storage.NewRepository[models.Post](tx).Update(ctx, post); err != nil {
			return err
		}
		return s.reconcileTags(ctx, tx, id, in.Tags)
	})
	if err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "post updated", "id", id, "url", post.URL)
	return post, nil
}

// reconcileTags makes the post's attached tags match titles exactly,
// adding and detaching as needed.
func (s *Service) reconcileTags(ctx context.Context, tx *storage.Session, postID int64, titles []string) error {
	if err := AddTagsToPost(ctx, tx, postID, titles); err != nil {
		return err
	}

	keep := make(map[int64]bool, len(titles))
	if len(titles) > 0 {
		vals := make([]any, len(titles))
		for i, t := range titles {
			vals[i] = t
		}
		var ids []int64
		err := storage.Query[models.Tag](tx).
			Where(clause.IN{Column: tagTitle, Values: vals}).
			Pluck(ctx, tagID, &ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			keep[id] = true
		}
	}

	attached, err := TagIDsForPost(ctx, tx, postID)
	if err != nil {
		return err
	}
	var stale []int64
	for _, id := range attached {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	return RemoveTagsFromPost(ctx, tx, postID, stale)
}

// DeletePost removes the post together with its comments and tag
// associations. Tag and category rows stay; their counts are fixed on
// the next UpdateCounts run.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	err := s.session.Transaction(ctx, func(tx *storage.Session) error {
		if _, err := storage.NewRepository[models.PostTag](tx).
			DeleteWhere(ctx, clause.Eq{Column: joinPostID, Value: id}); err != nil {
			return err
		}
		if _, err := storage.NewRepository[models.Comment](tx).
			DeleteWhere(ctx, clause.Eq{Column: commentPostID, Value: id}); err != nil {
			return err
		}
		return storage.NewRepository[models.Post](tx).Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "post deleted", "id", id)
	return nil
}

// CommentInput is a visitor-submitted comment.
type CommentInput struct {
	PostID   int64
	Author   string
	Email    string
	Homepage string
	Markdown string
	IP       string
}

// CreateComment stores a comment against a public post, rendering its
// body under the restrictive comment policy.
func (s *Service) CreateComment(ctx context.Context, in CommentInput) (*models.Comment, error) {
	// Comments attach only to posts a visitor can see.
	if _, err := Posts(s.session).ByID(in.PostID).One(ctx); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		Author:   strings.TrimSpace(in.Author),
		Email:    strings.TrimSpace(in.Email),
		Homepage: strings.TrimSpace(in.Homepage),
		Markdown: in.Markdown,
		HTML:     s.renderer.Render(in.Markdown, true),
		IP:       in.IP,
	}
	if err := storage.NewRepository[models.Comment](s.session).Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.logger.InfoContext(ctx, "comment created", "id", comment.ID, "post_id", comment.PostID)
	return comment, nil
}

// MarkCommentSpam flips a comment out of public view.
func (s *Service) MarkCommentSpam(ctx context.Context, id int64) error {
	return storage.NewRepository[models.Comment](s.session).
		UpdateColumns(ctx, id,
			clause.Assignment{Column: commentStatus, Value: models.CommentStatusSpam})
}

// DeleteComment removes a comment outright.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	return storage.NewRepository[models.Comment](s.session).Delete(ctx, id)
}

// CreateCategory stores a category, deriving the slug when none is
// given.
func (s *Service) CreateCategory(ctx context.Context, title, url string) (*models.Category, error) {
	if url == "" {
		url = s.slugger.Slug(title)
	}
	category := &models.Category{Title: strings.TrimSpace(title), URL: url}
	if err := storage.NewRepository[models.Category](s.session).Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// UpdateCategory rewrites a category's title and slug.
func (s *Service) UpdateCategory(ctx context.Context, category *models.Category) error {
	return storage.NewRepository[models.Category](s.session).Update(ctx, category)
}

// DeleteCategory removes a category; posts keep their category_id and
// the admin is expected to reassign them.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return storage.NewRepository[models.Category](s.session).Delete(ctx, id)
}

// UpdateCounts recomputes the stored comment and post counts.
func (s *Service) UpdateCounts(ctx context.Context) error {
	return UpdateCounts(ctx, s.session)
}

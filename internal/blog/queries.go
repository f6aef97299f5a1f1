package blog

import (
	"context"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// Column handles for the filters below.
var (
	postID        = clause.Column{Name: "id"}
	postURL       = clause.Column{Name: "url"}
	postTitle     = clause.Column{Name: "title"}
	postType      = clause.Column{Name: "type"}
	postStatus    = clause.Column{Name: "status"}
	postMarkdown  = clause.Column{Name: "markdown"}
	postCreatedAt = clause.Column{Name: "created_at"}

	commentPostID = clause.Column{Name: "post_id"}
	commentStatus = clause.Column{Name: "status"}

	tagID    = clause.Column{Name: "id"}
	tagTitle = clause.Column{Name: "title"}

	categoryID  = clause.Column{Name: "id"}
	categoryURL = clause.Column{Name: "url"}

	joinPostID = clause.Column{Name: "post_id"}
	joinTagID  = clause.Column{Name: "tag_id"}

	userID       = clause.Column{Name: "id"}
	userUsername = clause.Column{Name: "username"}
)

// Static relationship table for the entity graph. Preload executors
// consult these; nothing else traverses associations.
var (
	postCategory = storage.BelongsToRelation[models.Post, models.Category]{
		TargetKey:       categoryID,
		ForeignKeyValue: func(p *models.Post) (int64, bool) { return p.CategoryID, p.CategoryID != 0 },
		TargetKeyValue:  func(c *models.Category) int64 { return c.ID },
		Assign:          func(p *models.Post, c *models.Category) { p.Category = c },
	}

	postAuthor = storage.BelongsToRelation[models.Post, models.User]{
		TargetKey:       userID,
		ForeignKeyValue: func(p *models.Post) (int64, bool) { return p.UserID, p.UserID != 0 },
		TargetKeyValue:  func(u *models.User) int64 { return u.ID },
		Assign:          func(p *models.Post, u *models.User) { p.Author = u },
	}

	// parent is the aliased self-reference on posts.
	postParent = storage.BelongsToRelation[models.Post, models.Post]{
		TargetKey: postID,
		ForeignKeyValue: func(p *models.Post) (int64, bool) {
			if p.ParentID == nil {
				return 0, false
			}
			return *p.ParentID, true
		},
		TargetKeyValue: func(p *models.Post) int64 { return p.ID },
		Assign:         func(p *models.Post, parent *models.Post) { p.Parent = parent },
	}

	postTags = storage.ManyToManyRelation[models.Post, models.Tag, models.PostTag]{
		JoinParentKey:  joinPostID,
		TargetKey:      tagID,
		LocalKey:       func(p *models.Post) int64 { return p.ID },
		JoinParentID:   func(pt *models.PostTag) int64 { return pt.PostID },
		JoinChildID:    func(pt *models.PostTag) int64 { return pt.TagID },
		TargetKeyValue: func(t *models.Tag) int64 { return t.ID },
		Assign:         func(p *models.Post, tags []*models.Tag) { p.Tags = tags },
	}
)

// postComments builds the has-many edge to comments, scoped to public
// rows unless the read is an admin one.
func postComments(admin bool) storage.HasManyRelation[models.Post, models.Comment] {
	rel := storage.HasManyRelation[models.Post, models.Comment]{
		ForeignKey:      commentPostID,
		LocalKey:        func(p *models.Post) int64 { return p.ID },
		ForeignKeyValue: func(c *models.Comment) int64 { return c.PostID },
		Assign:          func(p *models.Post, comments []*models.Comment) { p.Comments = comments },
	}
	if !admin {
		rel.Scope = clause.Eq{Column: commentStatus, Value: models.CommentStatusPublic}
	}
	return rel
}

// PostQuery is the fixed, closed set of named post filters. Filters
// compose in any order; visibility is applied once, at execution, so
// Admin(true) removes the status predicate and unlocks the markdown
// column no matter when it was called.
type PostQuery struct {
	session  *storage.Session
	admin    bool
	preds    []clause.Expression
	orders   []clause.OrderByColumn
	limit    uint64
	offset   uint64
	paged    bool
	comments bool
	tags     bool
	category bool
	author   bool
	parent   bool
}

// Posts starts a post query. Reads are non-admin until Admin(true).
func Posts(session *storage.Session) *PostQuery {
	return &PostQuery{session: session}
}

func (pq *PostQuery) ByID(id int64) *PostQuery {
	pq.preds = append(pq.preds, clause.Eq{Column: postID, Value: id})
	return pq
}

func (pq *PostQuery) ByIDs(ids []int64) *PostQuery {
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	pq.preds = append(pq.preds, clause.IN{Column: postID, Values: vals})
	return pq
}

func (pq *PostQuery) ByURL(url string) *PostQuery {
	pq.preds = append(pq.preds, clause.Eq{Column: postURL, Value: url})
	return pq
}

func (pq *PostQuery) ByTitle(title string) *PostQuery {
	pq.preds = append(pq.preds, clause.Eq{Column: postTitle, Value: title})
	return pq
}

func (pq *PostQuery) ByType(postKind string) *PostQuery {
	pq.preds = append(pq.preds, clause.Eq{Column: postType, Value: postKind})
	return pq
}

func (pq *PostQuery) ByCategory(categoryID int64) *PostQuery {
	pq.preds = append(pq.preds, clause.Eq{Column: clause.Column{Name: "category_id"}, Value: categoryID})
	return pq
}

// Admin switches the visibility scope. False keeps the public-only
// status predicate and withholds the markdown column.
func (pq *PostQuery) Admin(admin bool) *PostQuery {
	pq.admin = admin
	return pq
}

// Newest orders by creation time, newest first.
func (pq *PostQuery) Newest() *PostQuery {
	pq.orders = append(pq.orders, clause.OrderByColumn{Column: postCreatedAt, Desc: true})
	return pq
}

// Page selects a pagination window. No clamping: an out-of-range page
// simply returns an empty slice.
func (pq *PostQuery) Page(page, size int) *PostQuery {
	if page < 1 {
		page = 1
	}
	pq.limit = uint64(size)
	pq.offset = uint64((page - 1) * size)
	pq.paged = true
	return pq
}

// WithComments, WithTags, WithCategory, WithAuthor and WithParent add
// the respective association to the eager-load list.
func (pq *PostQuery) WithComments() *PostQuery { pq.comments = true; return pq }
func (pq *PostQuery) WithTags() *PostQuery     { pq.tags = true; return pq }
func (pq *PostQuery) WithCategory() *PostQuery { pq.category = true; return pq }
func (pq *PostQuery) WithAuthor() *PostQuery   { pq.author = true; return pq }
func (pq *PostQuery) WithParent() *PostQuery   { pq.parent = true; return pq }

func (pq *PostQuery) build() *storage.QueryBuilder[models.Post] {
	q := storage.Query[models.Post](pq.session)
	for _, pred := range pq.preds {
		q = q.Where(pred)
	}
	if !pq.admin {
		q = q.Where(clause.Eq{Column: postStatus, Value: models.StatusPublic}).
			Omit(postMarkdown)
	}
	q = q.OrderBy(pq.orders...)
	if pq.paged {
		q = q.Limit(pq.limit).Offset(pq.offset)
	}
	if pq.comments {
		q = q.WithPreload(storage.Preload(postComments(pq.admin)))
	}
	if pq.tags {
		q = q.WithPreload(storage.PreloadManyToMany(postTags))
	}
	if pq.category {
		q = q.WithPreload(storage.PreloadBelongsTo(postCategory))
	}
	if pq.author {
		q = q.WithPreload(storage.PreloadBelongsTo(postAuthor))
	}
	if pq.parent {
		q = q.WithPreload(storage.PreloadBelongsTo(postParent))
	}
	return q
}

// Find returns every matching post in query order.
func (pq *PostQuery) Find(ctx context.Context) ([]*models.Post, error) {
	return pq.build().Find(ctx)
}

// One returns the single matching post, storage.ErrNotFound when the
// filters match nothing.
func (pq *PostQuery) One(ctx context.Context) (*models.Post, error) {
	return pq.build().First(ctx)
}

// Count returns the number of matching posts under the current
// visibility scope, ignoring pagination.
func (pq *PostQuery) Count(ctx context.Context) (int64, error) {
	q := storage.Query[models.Post](pq.session)
	for _, pred := range pq.preds {
		q = q.Where(pred)
	}
	if !pq.admin {
		q = q.Where(clause.Eq{Column: postStatus, Value: models.StatusPublic})
	}
	return q.Count(ctx)
}

// CommentsForPost lists a post's comments oldest first, restricted to
// public rows for non-admin reads.
func CommentsForPost(ctx context.Context, session *storage.Session, postID int64, admin bool) ([]*models.Comment, error) {
	q := storage.Query[models.Comment](session).
		Where(clause.Eq{Column: commentPostID, Value: postID})
	if !admin {
		q = q.Where(clause.Eq{Column: commentStatus, Value: models.CommentStatusPublic})
	}
	return q.OrderBy(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}).Find(ctx)
}

// AllTags lists every tag ordered by title.
func AllTags(ctx context.Context, session *storage.Session) ([]*models.Tag, error) {
	return storage.Query[models.Tag](session).
		OrderBy(clause.OrderByColumn{Column: tagTitle}).
		Find(ctx)
}

// AllCategories lists every category ordered by title.
func AllCategories(ctx context.Context, session *storage.Session) ([]*models.Category, error) {
	return storage.Query[models.Category](session).
		OrderBy(clause.OrderByColumn{Column: clause.Column{Name: "title"}}).
		Find(ctx)
}

// TagByURL fetches a tag by slug.
func TagByURL(ctx context.Context, session *storage.Session, url string) (*models.Tag, error) {
	return storage.Query[models.Tag](session).
		Where(clause.Eq{Column: clause.Column{Name: "url"}, Value: url}).
		First(ctx)
}

// CategoryByURL fetches a category by slug.
func CategoryByURL(ctx context.Context, session *storage.Session, url string) (*models.Category, error) {
	return storage.Query[models.Category](session).
		Where(clause.Eq{Column: categoryURL, Value: url}).
		First(ctx)
}

// PostIDsForTag returns the ids of every post carrying the tag.
func PostIDsForTag(ctx context.Context, session *storage.Session, tagID int64) ([]int64, error) {
	var ids []int64
	err := storage.Query[models.PostTag](session).
		Where(clause.Eq{Column: joinTagID, Value: tagID}).
		Pluck(ctx, joinPostID, &ids)
	return ids, err
}

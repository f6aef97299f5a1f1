package models

import (
	"context"
	"fmt"

	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// Tag and Category both carry a unique slug derived from their title
// and a cached num_posts maintained by the count scan. Tags attach to
// posts through the post_tags join table; categories are a plain
// belongs-to on the post.

type Tag struct {
	ID       int64  `db:"id" json:"id"`
	Title    string `db:"title" json:"title"`
	URL      string `db:"url" json:"url"`
	NumPosts int64  `db:"num_posts" json:"num_posts"`
}

func (Tag) TableName() string { return "tags" }

func (t *Tag) BeforeCreate(ctx context.Context) error {
	if t.Title == "" {
		return fmt.Errorf("%w: tag title is required", storage.ErrValidation)
	}
	if t.URL == "" {
		return fmt.Errorf("%w: tag url is required", storage.ErrValidation)
	}
	return nil
}

type TagSchema struct{}

func (TagSchema) TableName() string { return "tags" }

func (TagSchema) SelectColumns() []string {
	return []string{"id", "title", "url", "num_posts"}
}

func (TagSchema) InsertRow(t *Tag) ([]string, []any) {
	return []string{"title", "url", "num_posts"},
		[]any{t.Title, t.URL, t.NumPosts}
}

func (TagSchema) UpdateMap(t *Tag) map[string]any {
	return map[string]any{
		"title": t.Title,
		"url":   t.URL,
	}
}

func (TagSchema) PK(t *Tag) storage.PK {
	pk := storage.PK{Column: clause.Column{Name: "id"}}
	if t != nil {
		pk.Value = t.ID
	}
	return pk
}

func (TagSchema) SetPK(t *Tag, val int64) { t.ID = val }

func (TagSchema) AutoIncrement() bool { return true }

type Category struct {
	ID       int64  `db:"id" json:"id"`
	Title    string `db:"title" json:"title"`
	URL      string `db:"url" json:"url"`
	NumPosts int64  `db:"num_posts" json:"num_posts"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(ctx context.Context) error {
	if c.Title == "" {
		return fmt.Errorf("%w: category title is required", storage.ErrValidation)
	}
	if c.URL == "" {
		return fmt.Errorf("%w: category url is required", storage.ErrValidation)
	}
	return nil
}

type CategorySchema struct{}

func (CategorySchema) TableName() string { return "categories" }

func (CategorySchema) SelectColumns() []string {
	return []string{"id", "title", "url", "num_posts"}
}

func (CategorySchema) InsertRow(c *Category) ([]string, []any) {
	return []string{"title", "url", "num_posts"},
		[]any{c.Title, c.URL, c.NumPosts}
}

func (CategorySchema) UpdateMap(c *Category) map[string]any {
	return map[string]any{
		"title": c.Title,
		"url":   c.URL,
	}
}

func (CategorySchema) PK(c *Category) storage.PK {
	pk := storage.PK{Column: clause.Column{Name: "id"}}
	if c != nil {
		pk.Value = c.ID
	}
	return pk
}

func (CategorySchema) SetPK(c *Category, val int64) { c.ID = val }

func (CategorySchema) AutoIncrement() bool { return true }

// PostTag is one edge of the posts<->tags many-to-many. The
// (post_id, tag_id) pair is unique; rows appear and disappear only as
// a side effect of editing a post's tag set.
type PostTag struct {
	ID     int64 `db:"id" json:"id"`
	PostID int64 `db:"post_id" json:"post_id"`
	TagID  int64 `db:"tag_id" json:"tag_id"`
}

func (PostTag) TableName() string { return "post_tags" }

type PostTagSchema struct{}

func (PostTagSchema) TableName() string { return "post_tags" }

func (PostTagSchema) SelectColumns() []string {
	return []string{"id", "post_id", "tag_id"}
}

func (PostTagSchema) InsertRow(pt *PostTag) ([]string, []any) {
	return []string{"post_id", "tag_id"}, []any{pt.PostID, pt.TagID}
}

func (PostTagSchema) UpdateMap(pt *PostTag) map[string]any {
	return map[string]any{
		"post_id": pt.PostID,
		"tag_id":  pt.TagID,
	}
}

func (PostTagSchema) PK(pt *PostTag) storage.PK {
	pk := storage.PK{Column: clause.Column{Name: "id"}}
	if pt != nil {
		pk.Value = pt.ID
	}
	return pk
}

func (PostTagSchema) SetPK(pt *PostTag, val int64) { pt.ID = val }

func (PostTagSchema) AutoIncrement() bool { return true }

func init() {
	storage.RegisterSchema[Tag](TagSchema{})
	storage.RegisterSchema[Category](CategorySchema{})
	storage.RegisterSchema[PostTag](PostTagSchema{})
}

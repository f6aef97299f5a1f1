// Package models declares cow-blog's entities and their table schemas.
// The entity set is closed: posts, comments, categories, tags, the
// post_tags join table and users. Schemas are written by hand and
// registered from package init, so the storage layer never infers
// anything at runtime.
package models

import (
	"context"
	"fmt"
	"time"

	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// Post statuses and types. Only public posts are visible outside the
// admin interface; pages share the table with blog posts but stay out
// of the feed and the count bookkeeping.
const (
	StatusPublic = "public"
	StatusDraft  = "draft"

	TypeBlog = "blog"
	TypePage = "page"
)

type Post struct {
	ID          int64     `db:"id" json:"id"`
	CategoryID  int64     `db:"category_id" json:"category_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	ParentID    *int64    `db:"parent_id" json:"parent_id,omitempty"`
	Title       string    `db:"title" json:"title"`
	URL         string    `db:"url" json:"url"`
	Markdown    string    `db:"markdown" json:"markdown,omitempty"`
	HTML        string    `db:"html" json:"html"`
	Status      string    `db:"status" json:"status"`
	Type        string    `db:"type" json:"type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	NumComments int64     `db:"num_comments" json:"num_comments"`

	// Eager-loaded associations, never persisted.
	Category *Category  `db:"-" json:"category,omitempty"`
	Author   *User      `db:"-" json:"author,omitempty"`
	Parent   *Post      `db:"-" json:"parent,omitempty"`
	Comments []*Comment `db:"-" json:"comments,omitempty"`
	Tags     []*Tag     `db:"-" json:"tags,omitempty"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(ctx context.Context) error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Type == "" {
		p.Type = TypeBlog
	}
	return nil
}

func (p *Post) BeforeUpdate(ctx context.Context) error {
	return p.validate()
}

func (p *Post) validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: post title is required", storage.ErrValidation)
	}
	if p.URL == "" {
		return fmt.Errorf("%w: post url is required", storage.ErrValidation)
	}
	return nil
}

type PostSchema struct{}

func (PostSchema) TableName() string { return "posts" }

func (PostSchema) SelectColumns() []string {
	return []string{
		"id", "category_id", "user_id", "parent_id", "title", "url",
		"markdown", "html", "status", "type", "created_at", "num_comments",
	}
}

func (PostSchema) InsertRow(p *Post) ([]string, []any) {
	return []string{
			"category_id", "user_id", "parent_id", "title", "url",
			"markdown", "html", "status", "type", "created_at", "num_comments",
		}, []any{
			p.CategoryID, p.UserID, p.ParentID, p.Title, p.URL,
			p.Markdown, p.HTML, p.Status, p.Type, p.CreatedAt, p.NumComments,
		}
}

func (PostSchema) UpdateMap(p *Post) map[string]any {
	return map[string]any{
		"category_id": p.CategoryID,
		"user_id":     p.UserID,
		"parent_id":   p.ParentID,
		"title":       p.Title,
		"url":         p.URL,
		"markdown":    p.Markdown,
		"html":        p.HTML,
		"status":      p.Status,
		"type":        p.Type,
	}
}

func (PostSchema) PK(p *Post) storage.PK {
	pk := storage.PK{Column: clause.Column{Name: "id"}}
	if p != nil {
		pk.Value = p.ID
	}
	return pk
}

func (PostSchema) SetPK(p *Post, val int64) { p.ID = val }

func (PostSchema) AutoIncrement() bool { return true }

func init() {
	storage.RegisterSchema[Post](PostSchema{})
}

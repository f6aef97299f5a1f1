package models

import (
	"context"
	"fmt"
	"time"

	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// Comments submitted from the public site start out public; the admin
// interface can flip them to spam, which hides them and excludes them
// from the cached comment counts.
const (
	CommentStatusPublic = "public"
	CommentStatusSpam   = "spam"
)

type Comment struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	Author    string    `db:"author" json:"author"`
	Email     string    `db:"email" json:"-"`
	Homepage  string    `db:"homepage" json:"homepage,omitempty"`
	Markdown  string    `db:"markdown" json:"-"`
	HTML      string    `db:"html" json:"html"`
	IP        string    `db:"ip" json:"-"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) BeforeCreate(ctx context.Context) error {
	if c.PostID == 0 {
		return fmt.Errorf("%w: comment post_id is required", storage.ErrValidation)
	}
	if c.Markdown == "" {
		return fmt.Errorf("%w: comment body is required", storage.ErrValidation)
	}
	if c.Author == "" {
		c.Author = "Anonymous"
	}
	if c.Status == "" {
		c.Status = CommentStatusPublic
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return nil
}

type CommentSchema struct{}

func (CommentSchema) TableName() string { return "comments" }

func (CommentSchema) SelectColumns() []string {
	return []string{
		"id", "post_id", "author", "email", "homepage",
		"markdown", "html", "ip", "status", "created_at",
	}
}

func (CommentSchema) InsertRow(c *Comment) ([]string, []any) {
	return []string{
			"post_id", "author", "email", "homepage",
			"markdown", "html", "ip", "status", "created_at",
		}, []any{
			c.PostID, c.Author, c.Email, c.Homepage,
			c.Markdown, c.HTML, c.IP, c.Status, c.CreatedAt,
		}
}

func (CommentSchema) UpdateMap(c *Comment) map[string]any {
	return map[string]any{
		"author":   c.Author,
		"email":    c.Email,
		"homepage": c.Homepage,
		"markdown": c.Markdown,
		"html":     c.HTML,
		"status":   c.Status,
	}
}

func (CommentSchema) PK(c *Comment) storage.PK {
	pk := storage.PK{Column: clause.Column{Name: "id"}}
	if c != nil {
		pk.Value = c.ID
	}
	return pk
}

func (CommentSchema) SetPK(c *Comment, val int64) { c.ID = val }

func (CommentSchema) AutoIncrement() bool { return true }

func init() {
	storage.RegisterSchema[Comment](CommentSchema{})
}

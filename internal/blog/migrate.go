package blog

import (
	"context"
	"fmt"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		salt     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		title     TEXT NOT NULL,
		url       TEXT NOT NULL UNIQUE,
		num_posts INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		title     TEXT NOT NULL UNIQUE,
		url       TEXT NOT NULL UNIQUE,
		num_posts INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id  INTEGER NOT NULL REFERENCES categories(id),
		user_id      INTEGER NOT NULL REFERENCES users(id),
		parent_id    INTEGER REFERENCES posts(id),
		title        TEXT NOT NULL,
		url          TEXT NOT NULL UNIQUE,
		markdown     TEXT NOT NULL,
		html         TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'draft',
		type         TEXT NOT NULL DEFAULT 'blog',
		created_at   DATETIME NOT NULL,
		num_comments INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_status_type ON posts (status, type)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id    INTEGER NOT NULL REFERENCES posts(id),
		author     TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		homepage   TEXT NOT NULL DEFAULT '',
		markdown   TEXT NOT NULL,
		html       TEXT NOT NULL,
		ip         TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'public',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id, status)`,
	`CREATE TABLE IF NOT EXISTS post_tags (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL REFERENCES posts(id),
		tag_id  INTEGER NOT NULL REFERENCES tags(id),
		UNIQUE (post_id, tag_id)
	)`,
}

// Migrate creates the schema and seeds the default category. Safe to
// run on every startup.
func Migrate(ctx context.Context, session *storage.Session) error {
	for _, stmt := range migrations {
		if _, err := session.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Posts need somewhere to live before the admin makes categories.
	seed := &models.Category{Title: "Uncategorized", URL: "uncategorized"}
	err := storage.NewRepository[models.Category](session).
		Upsert(ctx, seed,
			storage.OnConflict(clause.Column{Name: "url"}),
			storage.DoNothing())
	if err != nil {
		return fmt.Errorf("migrate: seed category: %w", err)
	}
	return nil
}

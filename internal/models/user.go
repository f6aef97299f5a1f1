package models

import (
	"context"
	"fmt"

	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

// User is the blog's author account. Password holds the salted hash,
// never plaintext; both columns are written once by account creation.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
	Salt     string `db:"salt" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(ctx context.Context) error {
	if u.Username == "" {
		return fmt.Errorf("%w: username is required", storage.ErrValidation)
	}
	if u.Password == "" || u.Salt == "" {
		return fmt.Errorf("%w: password hash and salt are required", storage.ErrValidation)
	}
	return nil
}

type UserSchema struct{}

func (UserSchema) TableName() string { return "users" }

func (UserSchema) SelectColumns() []string {
	return []string{"id", "username", "password", "salt"}
}

func (UserSchema) InsertRow(u *User) ([]string, []any) {
	return []string{"username", "password", "salt"},
		[]any{u.Username, u.Password, u.Salt}
}

func (UserSchema) UpdateMap(u *User) map[string]any {
	return map[string]any{
		"username": u.Username,
		"password": u.Password,
		"salt":     u.Salt,
	}
}

func (UserSchema) PK(u *User) storage.PK {
	pk := storage.PK{Column: clause.Column{Name: "id"}}
	if u != nil {
		pk.Value = u.ID
	}
	return pk
}

func (UserSchema) SetPK(u *User, val int64) { u.ID = val }

func (UserSchema) AutoIncrement() bool { return true }

func init() {
	storage.RegisterSchema[User](UserSchema{})
}

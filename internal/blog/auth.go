package blog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
	"github.com/FashtimeDotCom/cow-blog/internal/storage/clause"
)

const (
	pbkdf2Iterations = 4096
	pbkdf2KeyLen     = 32
	saltLen          = 16
)

func hashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// Authenticate looks the username up and checks the password against
// the stored salted hash. A missing user and a wrong password are
// indistinguishable to the caller: both return (nil, nil).
func Authenticate(ctx context.Context, session *storage.Session, username, password string) (*models.User, error) {
	user, err := storage.Query[models.User](session).
		Where(clause.Eq{Column: userUsername, Value: username}).
		Take(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate %q: %w", username, err)
	}

	want := hashPassword(password, user.Salt)
	if subtle.ConstantTimeCompare([]byte(want), []byte(user.Password)) != 1 {
		return nil, nil
	}
	return user, nil
}

// CreateUser stores a user with a fresh random salt.
func CreateUser(ctx context.Context, session *storage.Session, username, password string) (*models.User, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user := &models.User{
		Username: username,
		Salt:     hex.EncodeToString(salt),
	}
	user.Password = hashPassword(password, user.Salt)

	if err := storage.NewRepository[models.User](session).Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	return user, nil
}

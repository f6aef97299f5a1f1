package blog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FashtimeDotCom/cow-blog/internal/storage"
)

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	created, err := CreateUser(ctx, session, "boxy", "moo moo moo")
	require.NoError(t, err)
	assert.NotEqual(t, "moo moo moo", created.Password, "passwords are never stored in the clear")
	assert.NotEmpty(t, created.Salt)

	user, err := Authenticate(ctx, session, "boxy", "moo moo moo")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)

	wrong, err := Authenticate(ctx, session, "boxy", "wrong")
	require.NoError(t, err)
	assert.Nil(t, wrong)

	missing, err := Authenticate(ctx, session, "nobody", "moo moo moo")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateUserSaltsDiffer(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	a, err := CreateUser(ctx, session, "a", "same password")
	require.NoError(t, err)
	b, err := CreateUser(ctx, session, "b", "same password")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Password, b.Password, "same password hashes differently per user")
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	_, err := CreateUser(ctx, session, "dup", "pw")
	require.NoError(t, err)

	_, err = CreateUser(ctx, session, "dup", "pw")
	assert.ErrorIs(t, err, storage.ErrConstraint)
}

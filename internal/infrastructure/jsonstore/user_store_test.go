package jsonstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
)

func newUserStore(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(filepath.Join(t.TempDir(), "users.json"), quietLogger())
}

func TestUserStoreAppendAndGetByEmail(t *testing.T) {
	s := newUserStore(t)

	require.True(t, s.Append(&entity.User{Email: "jane@example.com", Name: "Jane"}))

	u, ok := s.GetByEmail("JANE@example.com")
	require.True(t, ok)
	assert.Equal(t, "Jane", u.Name)

	_, ok = s.GetByEmail("nobody@example.com")
	assert.False(t, ok)
}

func TestUserStoreGetByToken(t *testing.T) {
	s := newUserStore(t)
	require.True(t, s.Append(&entity.User{Email: "jane@example.com", Token: "abc123"}))

	u, ok := s.GetByToken("abc123")
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", u.Email)

	_, ok = s.GetByToken("")
	assert.False(t, ok)
	_, ok = s.GetByToken("wrong")
	assert.False(t, ok)
}

func TestUserStoreUpdate(t *testing.T) {
	s := newUserStore(t)
	require.True(t, s.Append(&entity.User{Email: "jane@example.com"}))

	u, ok := s.GetByEmail("jane@example.com")
	require.True(t, ok)
	u.EmailVerified = true
	u.Token = "tok"
	require.True(t, s.Update(u))

	got, ok := s.GetByEmail("jane@example.com")
	require.True(t, ok)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, "tok", got.Token)

	assert.False(t, s.Update(&entity.User{Email: "nobody@example.com"}))
}

func TestUserStoreRemove(t *testing.T) {
	s := newUserStore(t)
	require.True(t, s.Append(&entity.User{Email: "jane@example.com"}))
	require.True(t, s.Append(&entity.User{Email: "bob@example.com"}))

	require.True(t, s.Remove("JANE@example.com"))

	users := s.Load()
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0].Email)
}

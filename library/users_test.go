package library

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDirectory_Register(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	t.Run("Should default the role to student and hash the password", func(t *testing.T) {
		u, err := mgr.Users().Register(ctx, Registration{Username: "ana", Email: "ana@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, RoleStudent, u.Role)
		assert.NotEqual(t, "pw", u.PasswordHash)
		assert.NotEmpty(t, u.PasswordHash)
	})

	t.Run("Should reject taken usernames and emails", func(t *testing.T) {
		_, err := mgr.Users().Register(ctx, Registration{Username: "ana", Email: "x@example.com", Password: "pw"})
		assert.ErrorIs(t, err, ErrUsernameTaken)
		_, err = mgr.Users().Register(ctx, Registration{Username: "other", Email: "ana@example.com", Password: "pw"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("Should validate role and required fields", func(t *testing.T) {
		_, err := mgr.Users().Register(ctx, Registration{Username: "r", Email: "r@example.com", Password: "pw", Role: "librarian"})
		assert.ErrorIs(t, err, ErrInvalidRole)
		_, err = mgr.Users().Register(ctx, Registration{Username: "r", Email: "r@example.com"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Should reject passwords bcrypt cannot hash", func(t *testing.T) {
		long := strings.Repeat("p", 73)
		_, err := mgr.Users().Register(ctx, Registration{Username: "long", Email: "long@example.com", Password: long})
		assert.ErrorIs(t, err, ErrPasswordTooLong)
		assert.ErrorIs(t, err, ErrValidation)

		ana, err := mgr.Users().GetByUsername(ctx, "ana")
		require.NoError(t, err)
		err = mgr.Users().ResetPassword(ctx, ana.ID, long)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUserDirectory_Authenticate(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	u := addUser(t, mgr, "bob", RoleTeacher)

	got, err := mgr.Users().Authenticate(ctx, "bob", "secret-bob")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = mgr.Users().Authenticate(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = mgr.Users().Authenticate(ctx, "nobody", "secret-bob")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	id, err := mgr.Users().Identity(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleTeacher, id.Role)
	assert.False(t, id.IsAdmin())
}

func TestUserDirectory_Admin(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	alice := addUser(t, mgr, "alice", RoleStudent)
	bob := addUser(t, mgr, "bob", RoleStudent)
	addUser(t, mgr, "root", RoleAdmin)

	t.Run("Should filter the listing by role", func(t *testing.T) {
		admins, err := mgr.Users().List(ctx, UserFilter{Role: RoleAdmin})
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, "root", admins[0].Username)

		all, err := mgr.Users().List(ctx, UserFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("Should update fields and refresh updated_at", func(t *testing.T) {
		role := RoleTeacher
		email := "alice@uni.example"
		updated, err := mgr.Users().Update(ctx, alice.ID, UserPatch{Role: &role, Email: &email})
		require.NoError(t, err)
		assert.Equal(t, RoleTeacher, updated.Role)
		assert.Equal(t, email, updated.Email)
		assert.Equal(t, "alice", updated.Username)
		assert.True(t, updated.UpdatedAt.After(alice.UpdatedAt))
	})

	t.Run("Should allow keeping your own username", func(t *testing.T) {
		name := "alice"
		_, err := mgr.Users().Update(ctx, alice.ID, UserPatch{Username: &name})
		require.NoError(t, err)
	})

	t.Run("Should refuse a username owned by someone else", func(t *testing.T) {
		name := "bob"
		_, err := mgr.Users().Update(ctx, alice.ID, UserPatch{Username: &name})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("Should reset a password", func(t *testing.T) {
		require.NoError(t, mgr.Users().ResetPassword(ctx, bob.ID, "fresh"))
		_, err := mgr.Users().Authenticate(ctx, "bob", "fresh")
		require.NoError(t, err)
		_, err = mgr.Users().Authenticate(ctx, "bob", "secret-bob")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		err = mgr.Users().ResetPassword(ctx, newID(), "x")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Should delete and then report not found", func(t *testing.T) {
		ok, err := mgr.Users().Delete(ctx, bob.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		_, err = mgr.Users().Identity(ctx, bob.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = mgr.Users().Update(ctx, bob.ID, UserPatch{})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

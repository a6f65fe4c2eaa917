package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-lending/library"
)

type cliEnv struct {
	dbPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("LIBRARY_AUTH_BCRYPT_COST", "4")
	return &cliEnv{dbPath: filepath.Join(t.TempDir(), "cli.db")}
}

// run executes one command line against the test database. stdin feeds
// password prompts.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := newRootCmd(a)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--db", e.dbPath, "--log-level", "error"))
	err := root.Execute()
	require.NoError(t, a.close())
	return out.String(), err
}

func (e *cliEnv) mustJSON(t *testing.T, v any, stdin string, args ...string) {
	t.Helper()
	out, err := e.run(t, stdin, append(args, "--json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestCLI_LendingFlow(t *testing.T) {
	env := newCLIEnv(t)

	var admin, alice library.User
	env.mustJSON(t, &admin, "rootpw\n", "user", "add", "--username", "root", "--email", "root@example.com", "--role", "admin")
	env.mustJSON(t, &alice, "alicepw\n", "user", "add", "--username", "alice", "--email", "alice@example.com")
	_, err := env.run(t, "bobpw\n", "user", "add", "--username", "bob", "--email", "bob@example.com", "--role", "teacher")
	require.NoError(t, err)
	assert.Equal(t, library.RoleStudent, alice.Role)

	var book library.Book
	env.mustJSON(t, &book, "", "book", "add", "--title", "Dune", "--author", "Frank Herbert", "--year", "1965")
	assert.Equal(t, library.BookAvailable, book.Status)

	var hold library.Reservation
	env.mustJSON(t, &hold, "alicepw\n", "reserve", book.ID, "--as", "alice")

	_, err = env.run(t, "bobpw\n", "borrow", book.ID, "--as", "bob")
	require.ErrorIs(t, err, library.ErrNoMatchingReservation)

	_, err = env.run(t, "wrong\n", "borrow", book.ID, "--as", "alice")
	require.ErrorIs(t, err, library.ErrInvalidCredentials)

	var loan library.Borrow
	env.mustJSON(t, &loan, "alicepw\n", "borrow", book.ID, "--as", "alice")
	assert.Equal(t, alice.ID, loan.UserID)

	var catalog []library.CatalogEntry
	env.mustJSON(t, &catalog, "", "book", "list")
	require.Len(t, catalog, 1)
	assert.Equal(t, library.BookBorrowed, catalog[0].Book.Status)
	require.NotNil(t, catalog[0].Borrow)
	assert.Equal(t, loan.ID, catalog[0].Borrow.ID)

	_, err = env.run(t, "bobpw\n", "return", loan.ID, "--as", "bob")
	require.ErrorIs(t, err, library.ErrNotOwner)

	var returned library.Borrow
	env.mustJSON(t, &returned, "rootpw\n", "return", loan.ID, "--as", "root")
	assert.Equal(t, library.BorrowReturned, returned.Status)

	var mine []library.Borrow
	env.mustJSON(t, &mine, "bobpw\n", "borrows", "--as", "bob")
	assert.Empty(t, mine)
	var all []library.Borrow
	env.mustJSON(t, &all, "rootpw\n", "borrows", "--as", "root")
	assert.Len(t, all, 1)

	var reservations []library.Reservation
	env.mustJSON(t, &reservations, "alicepw\n", "reservations", "--as", "alice")
	require.Len(t, reservations, 1)
	assert.Equal(t, library.ReservationCompleted, reservations[0].Status)

	var shown library.Book
	env.mustJSON(t, &shown, "", "book", "show", book.ID)
	assert.Equal(t, library.BookAvailable, shown.Status)
}

func TestCLI_ReturnAfterBookDeleted(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "davepw\n", "user", "add", "--username", "dave", "--email", "dave@example.com")
	require.NoError(t, err)
	var book library.Book
	env.mustJSON(t, &book, "", "book", "add", "--title", "Gone", "--author", "Nobody")
	var loan library.Borrow
	env.mustJSON(t, &loan, "davepw\n", "borrow", book.ID, "--as", "dave")

	_, err = env.run(t, "", "book", "delete", book.ID)
	require.NoError(t, err)

	out, err := env.run(t, "davepw\n", "return", loan.ID, "--as", "dave")
	require.NoError(t, err)
	assert.Contains(t, out, "unknown (book deleted)")
}

func TestCLI_BookAdmin(t *testing.T) {
	env := newCLIEnv(t)

	var book library.Book
	env.mustJSON(t, &book, "", "book", "add", "--title", "Emma", "--author", "Austen")

	t.Run("Should update only the given fields", func(t *testing.T) {
		var updated library.Book
		env.mustJSON(t, &updated, "", "book", "update", book.ID, "--genre", "classic")
		assert.Equal(t, "classic", updated.Genre)
		assert.Equal(t, "Emma", updated.Title)
	})

	t.Run("Should force a status", func(t *testing.T) {
		_, err := env.run(t, "", "book", "set-status", book.ID, "reserved")
		require.NoError(t, err)
		var shown library.Book
		env.mustJSON(t, &shown, "", "book", "show", book.ID)
		assert.Equal(t, library.BookReserved, shown.Status)

		_, err = env.run(t, "", "book", "set-status", book.ID, "lost")
		assert.ErrorIs(t, err, library.ErrInvalidStatus)
	})

	t.Run("Should render a table without --json", func(t *testing.T) {
		out, err := env.run(t, "", "book", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Emma")
		assert.Contains(t, out, "Reservation Queue")
	})

	t.Run("Should delete and report missing books", func(t *testing.T) {
		_, err := env.run(t, "", "book", "delete", book.ID)
		require.NoError(t, err)
		_, err = env.run(t, "", "book", "show", book.ID)
		assert.ErrorIs(t, err, library.ErrBookNotFound)
	})
}

func TestCLI_Users(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "first\n", "user", "add", "--username", "carol", "--email", "carol@example.com")
	require.NoError(t, err)

	_, err = env.run(t, "pw\n", "user", "add", "--username", "carol", "--email", "c2@example.com")
	assert.ErrorIs(t, err, library.ErrUsernameTaken)

	_, err = env.run(t, "second\n", "user", "reset-password", "carol")
	require.NoError(t, err)
	_, err = env.run(t, "first\n", "borrows", "--as", "carol")
	assert.ErrorIs(t, err, library.ErrInvalidCredentials)
	_, err = env.run(t, "second\n", "borrows", "--as", "carol")
	require.NoError(t, err)

	var users []library.User
	env.mustJSON(t, &users, "", "user", "list")
	require.Len(t, users, 1)

	_, err = env.run(t, "", "user", "delete", "carol")
	require.NoError(t, err)
	env.mustJSON(t, &users, "", "user", "list")
	assert.Empty(t, users)

	_, err = env.run(t, "", "borrows")
	assert.Error(t, err, "lending commands need --as")
}

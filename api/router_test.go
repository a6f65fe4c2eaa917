package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"library-lending/internal/logger"
	"library-lending/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testEnv struct {
	router *gin.Engine
	mgr    *library.LibraryManager
	tokens *TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mgr, err := library.NewLibraryManager(
		filepath.Join(t.TempDir(), "api.db"),
		library.NewBcryptHasher(bcrypt.MinCost),
	)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	tokens := NewTokenIssuer("test-secret-123", time.Hour)
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return &testEnv{router: NewRouter(mgr, tokens, log), mgr: mgr, tokens: tokens}
}

func (e *testEnv) user(t *testing.T, name string, role library.Role) (*library.User, string) {
	t.Helper()
	u, err := e.mgr.Users().Register(context.Background(), library.Registration{
		Username: name, Email: name + "@example.com", Password: "password-" + name, Role: role,
	})
	require.NoError(t, err)
	token, _, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuthRoutes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Should register a student and log in", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "ana", "email": "ana@example.com", "password": "hunter22",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		u := decode[library.User](t, w)
		assert.Equal(t, library.RoleStudent, u.Role)
		assert.NotContains(t, w.Body.String(), "password")

		w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "ana", "password": "hunter22"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		tok := decode[TokenResponse](t, w)
		assert.Equal(t, "Bearer", tok.TokenType)

		w = env.do(t, http.MethodGet, "/api/auth/me", tok.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ana", decode[library.User](t, w).Username)
	})

	t.Run("Should reject a duplicate username with conflict", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "ana", "email": "other@example.com", "password": "hunter22",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Should reject bad credentials", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "ana", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should reject an invalid body", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should reject an over-long password as a bad request", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "long", "email": "long@example.com", "password": strings.Repeat("x", 73),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})

	t.Run("Should require a valid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/auth/me", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/auth/me", "garbage", nil).Code)

		other := NewTokenIssuer("another-secret", time.Hour)
		u, _ := env.user(t, "forged", library.RoleStudent)
		forged, _, err := other.Issue(u)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/auth/me", forged, nil).Code)
	})

	t.Run("Should reject tokens of deleted users", func(t *testing.T) {
		u, token := env.user(t, "ghost", library.RoleStudent)
		_, err := env.mgr.Users().Delete(context.Background(), u.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/auth/me", token, nil).Code)
	})
}

func TestBookRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, adminTok := env.user(t, "admin", library.RoleAdmin)
	_, studentTok := env.user(t, "stu", library.RoleStudent)

	var created library.Book
	t.Run("Should let admins create books", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/books", adminTok, gin.H{
			"title": "Dune", "author": "Frank Herbert", "genre": "sf", "year": 1965,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created = decode[library.Book](t, w)
		assert.Equal(t, library.BookAvailable, created.Status)
	})

	t.Run("Should forbid students from writing", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/books", studentTok, gin.H{"title": "x", "author": "y"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = env.do(t, http.MethodDelete, "/api/books/"+created.ID, studentTok, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Should filter the listing", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/books?title=dun&year=1965", studentTok, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]library.Book](t, w), 1)

		w = env.do(t, http.MethodGet, "/api/books?author=austen", studentTok, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]library.Book](t, w))

		w = env.do(t, http.MethodGet, "/api/books?year=nineteen", studentTok, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should update and read back", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/books/"+created.ID, adminTok, gin.H{"genre": "classic"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = env.do(t, http.MethodGet, "/api/books/"+created.ID, studentTok, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "classic", decode[library.Book](t, w).Genre)
	})

	t.Run("Should answer 404 for unknown and malformed ids", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/books/not-an-id", studentTok, nil).Code)
		assert.Equal(t, http.StatusNotFound,
			env.do(t, http.MethodDelete, "/api/books/00000000-0000-0000-0000-000000000000", adminTok, nil).Code)
	})
}

func TestLendingRoutes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, adminTok := env.user(t, "admin", library.RoleAdmin)
	alice, aliceTok := env.user(t, "alice", library.RoleStudent)
	_, carolTok := env.user(t, "carol", library.RoleTeacher)
	book, err := env.mgr.Books().Create(ctx, library.BookInput{Title: "B", Author: "A"})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/reservations", aliceTok, gin.H{"book_id": book.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reservation := decode[library.Reservation](t, w)

	w = env.do(t, http.MethodPost, "/api/reservations", carolTok, gin.H{"book_id": book.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/borrows", carolTok, gin.H{"book_id": book.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/reservations/"+reservation.ID, carolTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/api/reservations/"+reservation.ID, carolTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/borrows", aliceTok, gin.H{"book_id": book.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loan := decode[library.Borrow](t, w)
	assert.Equal(t, alice.ID, loan.UserID)

	w = env.do(t, http.MethodGet, "/api/reservations/"+reservation.ID, aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, library.ReservationCompleted, decode[library.Reservation](t, w).Status)

	t.Run("Should scope listings by role", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/borrows", carolTok, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]library.Borrow](t, w))

		w = env.do(t, http.MethodGet, "/api/borrows", adminTok, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]library.Borrow](t, w), 1)
	})

	t.Run("Should only let the borrower or an admin return", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/borrows/"+loan.ID+"/return", carolTok, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.do(t, http.MethodPost, "/api/borrows/"+loan.ID+"/return", adminTok, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, library.BorrowReturned, decode[library.Borrow](t, w).Status)

		w = env.do(t, http.MethodPost, "/api/borrows/"+loan.ID+"/return", aliceTok, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	w = env.do(t, http.MethodGet, "/api/books/"+book.ID, aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, library.BookAvailable, decode[library.Book](t, w).Status)
}

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, adminTok := env.user(t, "admin", library.RoleAdmin)
	stu, stuTok := env.user(t, "stu", library.RoleStudent)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/users", stuTok, nil).Code)

	w := env.do(t, http.MethodPost, "/api/users", adminTok, gin.H{
		"username": "prof", "email": "prof@example.com", "password": "secret1", "role": "teacher",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, library.RoleTeacher, decode[library.User](t, w).Role)

	w = env.do(t, http.MethodPut, "/api/users/"+stu.ID, adminTok, gin.H{"role": "librarian"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/users/"+stu.ID, adminTok, gin.H{"email": "admin@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/users/"+stu.ID+"/password", adminTok, gin.H{"password": "rotated1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "stu", "password": "rotated1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/users?role=teacher", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]library.User](t, w), 1)

	w = env.do(t, http.MethodDelete, "/api/users/"+stu.ID, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/users/"+stu.ID, adminTok, nil).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{library.ErrBookNotFound, http.StatusNotFound},
		{library.ErrNotOwner, http.StatusForbidden},
		{library.ErrDuplicateReservation, http.StatusConflict},
		{library.ErrInvalidRole, http.StatusBadRequest},
		{library.ErrInvalidCredentials, http.StatusUnauthorized},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

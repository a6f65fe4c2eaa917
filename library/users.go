package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"library-lending/internal/logger"
)

// Identity is what the calling layers need to authorize a request.
type Identity struct {
	UserID   string
	Username string
	Role     Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Registration carries the fields of a new account. An empty Role means
// student.
type Registration struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// UserDirectory manages accounts and answers "who is this and what may they
// do" for the HTTP and CLI layers. Lending rules never look at roles except
// through the isAdmin flag on returns.
type UserDirectory struct {
	db     *Database
	hasher PasswordHasher
}

func NewUserDirectory(db *Database, hasher PasswordHasher) *UserDirectory {
	return &UserDirectory{db: db, hasher: hasher}
}

// Register creates an account. Username and email uniqueness are checked
// before the insert; the unique indexes only catch concurrent registrations.
func (u *UserDirectory) Register(ctx context.Context, reg Registration) (*User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password", ErrMissingField)
	}
	if reg.Role == "" {
		reg.Role = RoleStudent
	}
	if !reg.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := u.checkUnique(ctx, "", &reg.Username, &reg.Email); err != nil {
		return nil, err
	}

	hash, err := u.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}
	user, err := u.db.InsertUser(ctx, reg.Username, reg.Email, hash, reg.Role)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("user registered", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// checkUnique fails when another user (not selfID) already owns the given
// username or email. Nil pointers are skipped.
func (u *UserDirectory) checkUnique(ctx context.Context, selfID string, username, email *string) error {
	if username != nil {
		other, err := u.db.FindUserByUsername(ctx, *username)
		switch {
		case err == nil && other.ID != selfID:
			return ErrUsernameTaken
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return err
		}
	}
	if email != nil {
		other, err := u.db.FindUserByEmail(ctx, *email)
		switch {
		case err == nil && other.ID != selfID:
			return ErrEmailTaken
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return err
		}
	}
	return nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords yield the same error.
func (u *UserDirectory) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := u.db.FindUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := u.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.FromContext(ctx).Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Identity resolves a user ID to its role. Deleted users are NotFound, which
// callers treat as unauthenticated.
func (u *UserDirectory) Identity(ctx context.Context, userID string) (Identity, error) {
	user, err := u.db.FindUser(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (u *UserDirectory) Get(ctx context.Context, id string) (*User, error) {
	return u.db.FindUser(ctx, id)
}

func (u *UserDirectory) GetByUsername(ctx context.Context, username string) (*User, error) {
	return u.db.FindUserByUsername(ctx, username)
}

func (u *UserDirectory) List(ctx context.Context, f UserFilter) ([]*User, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, ErrInvalidRole
	}
	return u.db.FindUsers(ctx, f)
}

func (u *UserDirectory) Count(ctx context.Context) (int, error) {
	return u.db.CountUsers(ctx, UserFilter{})
}

func (u *UserDirectory) Update(ctx context.Context, id string, p UserPatch) (*User, error) {
	if p.Role != nil && !p.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if p.Username != nil {
		trimmed := strings.TrimSpace(*p.Username)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: username", ErrMissingField)
		}
		p.Username = &trimmed
	}
	if p.Email != nil {
		trimmed := strings.TrimSpace(*p.Email)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: email", ErrMissingField)
		}
		p.Email = &trimmed
	}
	if _, err := u.db.FindUser(ctx, id); err != nil {
		return nil, err
	}
	if err := u.checkUnique(ctx, id, p.Username, p.Email); err != nil {
		return nil, err
	}
	ok, err := u.db.UpdateUser(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.db.FindUser(ctx, id)
}

// Delete removes the account. Borrows and reservations it made are kept.
func (u *UserDirectory) Delete(ctx context.Context, id string) (bool, error) {
	return u.db.DeleteUser(ctx, id)
}

func (u *UserDirectory) ResetPassword(ctx context.Context, id, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password", ErrMissingField)
	}
	hash, err := u.hasher.Hash(password)
	if err != nil {
		return err
	}
	ok, err := u.db.UpdateUserPassword(ctx, id, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	logger.FromContext(ctx).Info("password reset", "user_id", id)
	return nil
}

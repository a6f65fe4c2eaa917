package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
)

func (d *Database) InsertUser(ctx context.Context, username, email, passwordHash string, role Role) (*User, error) {
	now := d.now()
	u := &User{
		ID:           newID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := d.exec(ctx, dialect.Insert(tableUsers).Rows(goqu.Record{
		"id":            u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"role":          string(u.Role),
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
	}).Prepared(true))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, uniqueUserError(err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// uniqueUserError tells username clashes from email clashes; the constraint
// message names the offending column.
func uniqueUserError(err error) error {
	if strings.Contains(err.Error(), "users.email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

func (d *Database) findUserBy(ctx context.Context, where goqu.Expression) (*User, error) {
	var u User
	found, err := d.get(ctx, &u, dialect.From(tableUsers).Where(where).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (d *Database) FindUser(ctx context.Context, id string) (*User, error) {
	if !validID(id) {
		return nil, ErrUserNotFound
	}
	return d.findUserBy(ctx, goqu.C("id").Eq(id))
}

func (d *Database) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	return d.findUserBy(ctx, goqu.C("username").Eq(username))
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return d.findUserBy(ctx, goqu.C("email").Eq(email))
}

func userConditions(f UserFilter) []goqu.Expression {
	var where []goqu.Expression
	if f.Role != "" {
		where = append(where, goqu.C("role").Eq(string(f.Role)))
	}
	return where
}

func (d *Database) FindUsers(ctx context.Context, f UserFilter) ([]*User, error) {
	users := []*User{}
	ds := dialect.From(tableUsers).
		Where(userConditions(f)...).
		Order(goqu.I("created_at").Asc(), goqu.L("rowid").Asc()).
		Prepared(true)
	if err := d.list(ctx, &users, ds); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (d *Database) UpdateUser(ctx context.Context, id string, p UserPatch) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	rec := goqu.Record{"updated_at": d.now()}
	if p.Username != nil {
		rec["username"] = *p.Username
	}
	if p.Email != nil {
		rec["email"] = *p.Email
	}
	if p.Role != nil {
		rec["role"] = string(*p.Role)
	}
	n, err := d.exec(ctx, dialect.Update(tableUsers).Set(rec).Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		if isUniqueViolation(err) {
			return false, uniqueUserError(err)
		}
		return false, fmt.Errorf("update user: %w", err)
	}
	return n > 0, nil
}

func (d *Database) UpdateUserPassword(ctx context.Context, id, passwordHash string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := d.exec(ctx, dialect.Update(tableUsers).
		Set(goqu.Record{"password_hash": passwordHash, "updated_at": d.now()}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
	if err != nil {
		return false, fmt.Errorf("update user password: %w", err)
	}
	return n > 0, nil
}

func (d *Database) DeleteUser(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := d.exec(ctx, dialect.Delete(tableUsers).Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return n > 0, nil
}

func (d *Database) CountUsers(ctx context.Context, f UserFilter) (int, error) {
	n, err := d.count(ctx, tableUsers, userConditions(f)...)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

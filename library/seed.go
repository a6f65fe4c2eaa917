package library

import (
	"context"
	"errors"
	"fmt"

	"library-lending/internal/logger"
)

// Catalog is a bootstrap data set: accounts, books and the borrows to open
// between them.
type Catalog struct {
	Users   []SeedUser   `json:"users"`
	Books   []SeedBook   `json:"books"`
	Borrows []SeedBorrow `json:"borrows"`
}

type SeedUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type SeedBook struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"`
	Description string `json:"description"`
	ISBN        string `json:"isbn"`
}

// SeedBorrow names a borrow by username and ISBN so catalogs stay readable.
type SeedBorrow struct {
	Username string `json:"username"`
	ISBN     string `json:"isbn"`
}

type SeedReport struct {
	Users    int `json:"users"`
	Books    int `json:"books"`
	Borrows  int `json:"borrows"`
	Skipped  int `json:"skipped"`
	Failures int `json:"failures"`
}

// Seed loads c into an empty library. Each collection is only filled when it
// is still empty, so running Seed twice is harmless. Individual records that
// fail are logged and counted; storage errors abort.
func (lm *LibraryManager) Seed(ctx context.Context, c Catalog) (SeedReport, error) {
	var rep SeedReport
	log := logger.FromContext(ctx)

	n, err := lm.db.CountUsers(ctx, UserFilter{})
	if err != nil {
		return rep, err
	}
	if n == 0 {
		for _, su := range c.Users {
			_, err := lm.users.Register(ctx, Registration(su))
			if ferr := rep.tally(log, err, "user", su.Username); ferr != nil {
				return rep, ferr
			}
			if err == nil {
				rep.Users++
			}
		}
	} else {
		log.Info("users already present, skipping", "count", n)
		rep.Skipped += len(c.Users)
	}

	n, err = lm.db.CountBooks(ctx)
	if err != nil {
		return rep, err
	}
	if n == 0 {
		for _, sb := range c.Books {
			_, err := lm.books.Create(ctx, BookInput{
				Title:       sb.Title,
				Author:      sb.Author,
				Genre:       sb.Genre,
				Year:        sb.Year,
				Description: sb.Description,
				ISBN:        sb.ISBN,
			})
			if ferr := rep.tally(log, err, "book", sb.Title); ferr != nil {
				return rep, ferr
			}
			if err == nil {
				rep.Books++
			}
		}
	} else {
		log.Info("books already present, skipping", "count", n)
		rep.Skipped += len(c.Books)
	}

	n, err = lm.db.CountBorrows(ctx, BorrowFilter{})
	if err != nil {
		return rep, err
	}
	if n > 0 {
		log.Info("borrows already present, skipping", "count", n)
		rep.Skipped += len(c.Borrows)
		return rep, nil
	}
	for _, sb := range c.Borrows {
		_, err := lm.seedBorrow(ctx, sb)
		if ferr := rep.tally(log, err, "borrow", sb.Username+"/"+sb.ISBN); ferr != nil {
			return rep, ferr
		}
		if err == nil {
			rep.Borrows++
		}
	}
	return rep, nil
}

func (lm *LibraryManager) seedBorrow(ctx context.Context, sb SeedBorrow) (*Borrow, error) {
	u, err := lm.users.GetByUsername(ctx, sb.Username)
	if err != nil {
		return nil, err
	}
	books, err := lm.books.List(ctx, BookFilter{ISBN: sb.ISBN})
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("isbn %s: %w", sb.ISBN, ErrBookNotFound)
	}
	return lm.borrows.Create(ctx, u.ID, books[0].ID)
}

// tally records a per-record failure. Business errors are counted and
// logged; anything else is returned so the caller stops.
func (r *SeedReport) tally(log logger.Logger, err error, kind, name string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRuleViolation) || errors.Is(err, ErrValidation) {
		log.Warn("seed record rejected", "kind", kind, "name", name, "error", err)
		r.Failures++
		return nil
	}
	return fmt.Errorf("seed %s %q: %w", kind, name, err)
}

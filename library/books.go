package library

import (
	"context"
	"fmt"
	"strings"

	"library-lending/internal/logger"
)

// BookEngine owns the catalogue and the availability status of each book.
// SetStatus is a plain register with no transition rules; the lending
// managers decide which transitions happen.
type BookEngine struct {
	db *Database
}

func NewBookEngine(db *Database) *BookEngine {
	return &BookEngine{db: db}
}

func (e *BookEngine) GetByID(ctx context.Context, id string) (*Book, error) {
	return e.db.FindBook(ctx, id)
}

// List returns every book matching all non-zero fields of f.
func (e *BookEngine) List(ctx context.Context, f BookFilter) ([]*Book, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return e.db.FindBooks(ctx, f)
}

func (e *BookEngine) Create(ctx context.Context, in BookInput) (*Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" || in.Author == "" {
		return nil, fmt.Errorf("%w: title and author", ErrMissingField)
	}
	if in.Status == "" {
		in.Status = BookAvailable
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	b, err := e.db.InsertBook(ctx, in)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("book created", "book_id", b.ID, "title", b.Title)
	return b, nil
}

// Update applies a partial patch. Setting Status here is an administrative
// override and bypasses the lending rules.
func (e *BookEngine) Update(ctx context.Context, id string, p BookPatch) (*Book, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	}
	if p.Author != nil && strings.TrimSpace(*p.Author) == "" {
		return nil, fmt.Errorf("%w: author", ErrMissingField)
	}
	ok, err := e.db.UpdateBook(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBookNotFound
	}
	return e.db.FindBook(ctx, id)
}

// Delete removes the book record. Borrows and reservations that reference it
// are left in place.
func (e *BookEngine) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := e.db.DeleteBook(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		logger.FromContext(ctx).Debug("book deleted", "book_id", id)
	}
	return ok, nil
}

// SetStatus overwrites the status and stamps updated_at. It reports false
// only when the book does not exist.
func (e *BookEngine) SetStatus(ctx context.Context, id string, status BookStatus) (bool, error) {
	if !status.Valid() {
		return false, ErrInvalidStatus
	}
	ok, err := e.db.UpdateBookStatus(ctx, id, status)
	if err != nil {
		return false, err
	}
	if ok {
		logger.FromContext(ctx).Debug("book status set", "book_id", id, "status", status)
	}
	return ok, nil
}

// ClaimStatus moves the book from `from` to `to` only if nobody changed it in
// between. A false result means the book is gone or its status moved on.
func (e *BookEngine) ClaimStatus(ctx context.Context, id string, from, to BookStatus) (bool, error) {
	if !from.Valid() || !to.Valid() {
		return false, ErrInvalidStatus
	}
	ok, err := e.db.SwapBookStatus(ctx, id, from, to)
	if err != nil {
		return false, err
	}
	if ok {
		logger.FromContext(ctx).Debug("book status claimed", "book_id", id, "from", from, "to", to)
	}
	return ok, nil
}

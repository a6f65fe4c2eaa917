package library

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// LibraryManager wires the store, the availability engine and the lending
// managers together from one database handle. HTTP and CLI code only talk to
// this type.
type LibraryManager struct {
	db           *Database
	books        *BookEngine
	reservations *ReservationManager
	borrows      *BorrowManager
	users        *UserDirectory
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath. A nil
// hasher uses bcrypt at its default cost.
func NewLibraryManager(dbPath string, hasher PasswordHasher, opts ...DatabaseOption) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	return NewLibraryManagerWithDatabase(db, hasher), nil
}

// NewLibraryManagerWithDatabase builds the manager around an already open store.
func NewLibraryManagerWithDatabase(db *Database, hasher PasswordHasher) *LibraryManager {
	if hasher == nil {
		hasher = NewBcryptHasher(bcrypt.DefaultCost)
	}
	books := NewBookEngine(db)
	reservations := NewReservationManager(db, books)
	return &LibraryManager{
		db:           db,
		books:        books,
		reservations: reservations,
		borrows:      NewBorrowManager(db, books, reservations),
		users:        NewUserDirectory(db, hasher),
	}
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

func (lm *LibraryManager) Books() *BookEngine                { return lm.books }
func (lm *LibraryManager) Reservations() *ReservationManager { return lm.reservations }
func (lm *LibraryManager) Borrows() *BorrowManager           { return lm.borrows }
func (lm *LibraryManager) Users() *UserDirectory             { return lm.users }

// CatalogEntry is a book together with who holds it and who is waiting.
type CatalogEntry struct {
	Book   *Book          `json:"book"`
	Borrow *Borrow        `json:"borrow,omitempty"`
	Queue  []*Reservation `json:"queue"`
}

// Catalog lists books matching f along with their open borrow and the active
// reservations on each.
func (lm *LibraryManager) Catalog(ctx context.Context, f BookFilter) ([]*CatalogEntry, error) {
	books, err := lm.books.List(ctx, f)
	if err != nil {
		return nil, err
	}
	entries := make([]*CatalogEntry, 0, len(books))
	for _, b := range books {
		e := &CatalogEntry{Book: b, Queue: []*Reservation{}}
		if b.Status == BookBorrowed {
			if e.Borrow, err = lm.borrows.ActiveForBook(ctx, b.ID); err != nil {
				return nil, err
			}
		}
		if b.Status != BookAvailable {
			if e.Queue, err = lm.reservations.Queue(ctx, b.ID); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// BorrowsVisibleTo returns every borrow for admins and only their own for
// everyone else.
func (lm *LibraryManager) BorrowsVisibleTo(ctx context.Context, id Identity) ([]*Borrow, error) {
	if id.IsAdmin() {
		return lm.borrows.ListAll(ctx)
	}
	return lm.borrows.ListForUser(ctx, id.UserID)
}

func (lm *LibraryManager) ReservationsVisibleTo(ctx context.Context, id Identity) ([]*Reservation, error) {
	if id.IsAdmin() {
		return lm.reservations.ListAll(ctx)
	}
	return lm.reservations.ListForUser(ctx, id.UserID)
}

// BorrowFor fetches a single borrow the identity is allowed to see.
func (lm *LibraryManager) BorrowFor(ctx context.Context, id Identity, borrowID string) (*Borrow, error) {
	b, err := lm.borrows.GetByID(ctx, borrowID)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() && b.UserID != id.UserID {
		return nil, ErrNotOwner
	}
	return b, nil
}

func (lm *LibraryManager) ReservationFor(ctx context.Context, id Identity, reservationID string) (*Reservation, error) {
	r, err := lm.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() && r.UserID != id.UserID {
		return nil, ErrNotOwner
	}
	return r, nil
}

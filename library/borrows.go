package library

import (
	"context"
	"time"

	"library-lending/internal/logger"
)

// BorrowManager lends books out and takes them back. It consults the
// reservation manager so a reserved book only goes to a reservation holder.
type BorrowManager struct {
	db           *Database
	books        *BookEngine
	reservations *ReservationManager
	now          func() time.Time
}

func NewBorrowManager(db *Database, books *BookEngine, reservations *ReservationManager) *BorrowManager {
	return &BorrowManager{db: db, books: books, reservations: reservations, now: db.now}
}

// Create lends bookID to userID.
//
// An available book is lent directly. A reserved book is lent only to a user
// holding an active reservation on it, and that reservation is completed. A
// borrowed book is refused.
func (m *BorrowManager) Create(ctx context.Context, userID, bookID string) (*Borrow, error) {
	log := logger.FromContext(ctx).With("user_id", userID, "book_id", bookID)

	book, err := m.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	var held *Reservation
	switch book.Status {
	case BookAvailable:
	case BookReserved:
		held, err = m.reservations.ActiveForBook(ctx, userID, bookID)
		if err != nil {
			return nil, err
		}
		if held == nil {
			return nil, ErrNoMatchingReservation
		}
	case BookBorrowed:
		return nil, ErrBookAlreadyBorrowed
	default:
		return nil, ErrBookUnavailable
	}

	claimed, err := m.books.ClaimStatus(ctx, bookID, book.Status, BookBorrowed)
	if err != nil {
		return nil, err
	}
	if !claimed {
		log.Debug("lost race for book", "observed", book.Status)
		return nil, ErrBookUnavailable
	}

	borrow, err := m.db.InsertBorrow(ctx, userID, bookID, m.now())
	if err != nil {
		if _, rerr := m.books.ClaimStatus(ctx, bookID, BookBorrowed, book.Status); rerr != nil {
			log.Warn("failed to restore book status after borrow insert error", "error", rerr)
		}
		return nil, err
	}

	if held != nil {
		if _, err := m.reservations.Complete(ctx, held.ID); err != nil {
			// The borrow stands; the reservation stays active until cancelled.
			log.Warn("failed to complete reservation", "reservation_id", held.ID, "error", err)
		}
	}
	log.Info("book borrowed", "borrow_id", borrow.ID, "due", borrow.DueDate)
	return borrow, nil
}

// Return closes an active borrow. Only the borrower or an admin may return
// it. The book goes back to reserved while active reservations remain,
// otherwise to available.
func (m *BorrowManager) Return(ctx context.Context, borrowID, userID string, isAdmin bool) (*Borrow, error) {
	b, err := m.db.FindBorrow(ctx, borrowID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.UserID != userID {
		return nil, ErrNotOwner
	}
	if b.Status != BorrowActive {
		return nil, ErrBorrowNotActive
	}

	ok, err := m.db.MarkBorrowReturned(ctx, b.ID, m.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBorrowNotActive
	}

	log := logger.FromContext(ctx).With("borrow_id", b.ID, "book_id", b.BookID)
	queued, err := m.reservations.CountActiveForBook(ctx, b.BookID)
	if err != nil {
		return nil, err
	}
	next := BookAvailable
	if queued > 0 {
		next = BookReserved
	}
	found, err := m.books.SetStatus(ctx, b.BookID, next)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warn("returned borrow references a missing book")
	}
	log.Info("book returned", "status", next, "queued", queued)
	return m.db.FindBorrow(ctx, b.ID)
}

func (m *BorrowManager) GetByID(ctx context.Context, id string) (*Borrow, error) {
	return m.db.FindBorrow(ctx, id)
}

func (m *BorrowManager) ListForUser(ctx context.Context, userID string) ([]*Borrow, error) {
	return m.db.FindBorrows(ctx, BorrowFilter{UserID: userID})
}

func (m *BorrowManager) ListAll(ctx context.Context) ([]*Borrow, error) {
	return m.db.FindBorrows(ctx, BorrowFilter{})
}

// ActiveForBook returns the open borrow on a book, or nil.
func (m *BorrowManager) ActiveForBook(ctx context.Context, bookID string) (*Borrow, error) {
	bs, err := m.db.FindBorrows(ctx, BorrowFilter{BookID: bookID, Status: BorrowActive})
	if err != nil || len(bs) == 0 {
		return nil, err
	}
	return bs[0], nil
}

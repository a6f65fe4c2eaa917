package library

import (
	"context"
	"time"

	"library-lending/internal/logger"
)

// ReservationManager holds books for users. A reservation claims an available
// book; cancelling the last active one releases it again.
type ReservationManager struct {
	db    *Database
	books *BookEngine
	now   func() time.Time
}

func NewReservationManager(db *Database, books *BookEngine) *ReservationManager {
	return &ReservationManager{db: db, books: books, now: db.now}
}

// Create reserves bookID for userID. The book must currently be available and
// the user must not already hold an active reservation on it.
func (m *ReservationManager) Create(ctx context.Context, userID, bookID string) (*Reservation, error) {
	log := logger.FromContext(ctx).With("user_id", userID, "book_id", bookID)

	book, err := m.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.Status != BookAvailable {
		return nil, ErrBookUnavailable
	}

	held, err := m.db.CountReservations(ctx, ReservationFilter{
		UserID: userID,
		BookID: bookID,
		Status: ReservationActive,
	})
	if err != nil {
		return nil, err
	}
	if held > 0 {
		return nil, ErrDuplicateReservation
	}

	claimed, err := m.books.ClaimStatus(ctx, bookID, BookAvailable, BookReserved)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Someone else reserved or borrowed it since we looked.
		return nil, ErrBookUnavailable
	}

	r, err := m.db.InsertReservation(ctx, userID, bookID, m.now())
	if err != nil {
		if _, rerr := m.books.ClaimStatus(ctx, bookID, BookReserved, BookAvailable); rerr != nil {
			log.Warn("failed to release book after reservation insert error", "error", rerr)
		}
		return nil, err
	}
	log.Info("reservation created", "reservation_id", r.ID)
	return r, nil
}

// Cancel withdraws an active reservation owned by userID. The book goes back
// to available when no other active reservation still holds it.
func (m *ReservationManager) Cancel(ctx context.Context, reservationID, userID string) (*Reservation, error) {
	r, err := m.db.FindReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrNotOwner
	}
	if r.Status != ReservationActive {
		return nil, ErrReservationNotActive
	}

	ok, err := m.db.SwapReservationStatus(ctx, r.ID, ReservationActive, ReservationCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Completed or cancelled concurrently; leave the book alone.
		return nil, ErrReservationNotActive
	}
	r.Status = ReservationCancelled

	log := logger.FromContext(ctx).With("reservation_id", r.ID, "book_id", r.BookID)
	remaining, err := m.CountActiveForBook(ctx, r.BookID)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		// Only a reserved book is released; a borrowed one keeps its status.
		if _, err := m.books.ClaimStatus(ctx, r.BookID, BookReserved, BookAvailable); err != nil {
			return nil, err
		}
	}
	log.Info("reservation cancelled", "remaining", remaining)
	return m.db.FindReservation(ctx, r.ID)
}

// Complete marks an active reservation as fulfilled by a borrow. The book is
// left untouched; the borrow that triggered completion owns its status.
func (m *ReservationManager) Complete(ctx context.Context, reservationID string) (*Reservation, error) {
	ok, err := m.db.SwapReservationStatus(ctx, reservationID, ReservationActive, ReservationCompleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Missing records report NotFound; anything else was not active.
		if _, err := m.db.FindReservation(ctx, reservationID); err != nil {
			return nil, err
		}
		return nil, ErrReservationNotActive
	}
	r, err := m.db.FindReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("reservation completed", "reservation_id", r.ID, "book_id", r.BookID)
	return r, nil
}

func (m *ReservationManager) GetByID(ctx context.Context, id string) (*Reservation, error) {
	return m.db.FindReservation(ctx, id)
}

// ListForUser returns every reservation the user ever made, any status.
func (m *ReservationManager) ListForUser(ctx context.Context, userID string) ([]*Reservation, error) {
	return m.db.FindReservations(ctx, ReservationFilter{UserID: userID})
}

func (m *ReservationManager) ListAll(ctx context.Context) ([]*Reservation, error) {
	return m.db.FindReservations(ctx, ReservationFilter{})
}

// ActiveForBook returns the active reservation userID holds on bookID, or
// nil when there is none.
func (m *ReservationManager) ActiveForBook(ctx context.Context, userID, bookID string) (*Reservation, error) {
	rs, err := m.db.FindReservations(ctx, ReservationFilter{
		UserID: userID,
		BookID: bookID,
		Status: ReservationActive,
	})
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	return rs[0], nil
}

// Queue lists the active reservations on a book in the order they were made.
func (m *ReservationManager) Queue(ctx context.Context, bookID string) ([]*Reservation, error) {
	return m.db.FindReservations(ctx, ReservationFilter{BookID: bookID, Status: ReservationActive})
}

func (m *ReservationManager) CountActiveForBook(ctx context.Context, bookID string) (int, error) {
	return m.db.CountReservations(ctx, ReservationFilter{BookID: bookID, Status: ReservationActive})
}

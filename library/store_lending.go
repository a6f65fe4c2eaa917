package library

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
)

// ---------------------------------------------------------------------------
// Borrows
// ---------------------------------------------------------------------------

func (d *Database) InsertBorrow(ctx context.Context, userID, bookID string, borrowedAt time.Time) (*Borrow, error) {
	now := d.now()
	b := &Borrow{
		ID:         newID(),
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrowedAt,
		DueDate:    borrowedAt.Add(LoanPeriod),
		Status:     BorrowActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := d.exec(ctx, dialect.Insert(tableBorrows).Rows(goqu.Record{
		"id":          b.ID,
		"user_id":     b.UserID,
		"book_id":     b.BookID,
		"borrow_date": b.BorrowDate,
		"due_date":    b.DueDate,
		"status":      string(b.Status),
		"created_at":  b.CreatedAt,
		"updated_at":  b.UpdatedAt,
	}).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("insert borrow: %w", err)
	}
	return b, nil
}

func (d *Database) FindBorrow(ctx context.Context, id string) (*Borrow, error) {
	if !validID(id) {
		return nil, ErrBorrowNotFound
	}
	var b Borrow
	found, err := d.get(ctx, &b, dialect.From(tableBorrows).Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("get borrow: %w", err)
	}
	if !found {
		return nil, ErrBorrowNotFound
	}
	return &b, nil
}

func borrowConditions(f BorrowFilter) []goqu.Expression {
	var where []goqu.Expression
	if f.UserID != "" {
		where = append(where, goqu.C("user_id").Eq(f.UserID))
	}
	if f.BookID != "" {
		where = append(where, goqu.C("book_id").Eq(f.BookID))
	}
	if f.Status != "" {
		where = append(where, goqu.C("status").Eq(string(f.Status)))
	}
	return where
}

func (d *Database) FindBorrows(ctx context.Context, f BorrowFilter) ([]*Borrow, error) {
	borrows := []*Borrow{}
	ds := dialect.From(tableBorrows).
		Where(borrowConditions(f)...).
		Order(goqu.I("created_at").Asc(), goqu.L("rowid").Asc()).
		Prepared(true)
	if err := d.list(ctx, &borrows, ds); err != nil {
		return nil, fmt.Errorf("list borrows: %w", err)
	}
	return borrows, nil
}

func (d *Database) CountBorrows(ctx context.Context, f BorrowFilter) (int, error) {
	n, err := d.count(ctx, tableBorrows, borrowConditions(f)...)
	if err != nil {
		return 0, fmt.Errorf("count borrows: %w", err)
	}
	return n, nil
}

// MarkBorrowReturned closes an active borrow. It reports false when the
// borrow does not exist or is no longer active.
func (d *Database) MarkBorrowReturned(ctx context.Context, id string, returnedAt time.Time) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := d.exec(ctx, dialect.Update(tableBorrows).
		Set(goqu.Record{
			"status":      string(BorrowReturned),
			"return_date": returnedAt,
			"updated_at":  d.now(),
		}).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(BorrowActive))).
		Prepared(true))
	if err != nil {
		return false, fmt.Errorf("return borrow: %w", err)
	}
	return n > 0, nil
}

// ---------------------------------------------------------------------------
// Reservations
// ---------------------------------------------------------------------------

func (d *Database) InsertReservation(ctx context.Context, userID, bookID string, reservedAt time.Time) (*Reservation, error) {
	now := d.now()
	r := &Reservation{
		ID:              newID(),
		UserID:          userID,
		BookID:          bookID,
		ReservationDate: reservedAt,
		ExpiryDate:      reservedAt.Add(ReservationPeriod),
		Status:          ReservationActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err := d.exec(ctx, dialect.Insert(tableReservations).Rows(goqu.Record{
		"id":               r.ID,
		"user_id":          r.UserID,
		"book_id":          r.BookID,
		"reservation_date": r.ReservationDate,
		"expiry_date":      r.ExpiryDate,
		"status":           string(r.Status),
		"created_at":       r.CreatedAt,
		"updated_at":       r.UpdatedAt,
	}).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	return r, nil
}

func (d *Database) FindReservation(ctx context.Context, id string) (*Reservation, error) {
	if !validID(id) {
		return nil, ErrReservationNotFound
	}
	var r Reservation
	found, err := d.get(ctx, &r, dialect.From(tableReservations).Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if !found {
		return nil, ErrReservationNotFound
	}
	return &r, nil
}

func reservationConditions(f ReservationFilter) []goqu.Expression {
	var where []goqu.Expression
	if f.UserID != "" {
		where = append(where, goqu.C("user_id").Eq(f.UserID))
	}
	if f.BookID != "" {
		where = append(where, goqu.C("book_id").Eq(f.BookID))
	}
	if f.Status != "" {
		where = append(where, goqu.C("status").Eq(string(f.Status)))
	}
	return where
}

// FindReservations lists matching reservations in creation order.
func (d *Database) FindReservations(ctx context.Context, f ReservationFilter) ([]*Reservation, error) {
	reservations := []*Reservation{}
	ds := dialect.From(tableReservations).
		Where(reservationConditions(f)...).
		Order(goqu.I("created_at").Asc(), goqu.L("rowid").Asc()).
		Prepared(true)
	if err := d.list(ctx, &reservations, ds); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

func (d *Database) CountReservations(ctx context.Context, f ReservationFilter) (int, error) {
	n, err := d.count(ctx, tableReservations, reservationConditions(f)...)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

// SwapReservationStatus moves a reservation from one status to another and
// reports false if it was not in `from`.
func (d *Database) SwapReservationStatus(ctx context.Context, id string, from, to ReservationStatus) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := d.exec(ctx, dialect.Update(tableReservations).
		Set(goqu.Record{"status": string(to), "updated_at": d.now()}).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(from))).
		Prepared(true))
	if err != nil {
		return false, fmt.Errorf("update reservation status: %w", err)
	}
	return n > 0, nil
}

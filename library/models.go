package library

import "time"

type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookReserved  BookStatus = "reserved"
	BookBorrowed  BookStatus = "borrowed"
)

func (s BookStatus) Valid() bool {
	switch s {
	case BookAvailable, BookReserved, BookBorrowed:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleTeacher:
		return true
	}
	return false
}

type BorrowStatus string

const (
	BorrowActive   BorrowStatus = "active"
	BorrowReturned BorrowStatus = "returned"
	// BorrowOverdue is accepted by the schema but nothing assigns it.
	BorrowOverdue BorrowStatus = "overdue"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

const (
	LoanPeriod        = 30 * 24 * time.Hour
	ReservationPeriod = 7 * 24 * time.Hour
)

// Book is a catalogue entry. Status is a cached projection of the active
// borrows and reservations that reference the book.
type Book struct {
	ID          string     `json:"id"          db:"id"`
	Title       string     `json:"title"       db:"title"`
	Author      string     `json:"author"      db:"author"`
	Genre       string     `json:"genre"       db:"genre"`
	Year        int        `json:"year"        db:"year"`
	Description string     `json:"description" db:"description"`
	ISBN        string     `json:"isbn"        db:"isbn"`
	Status      BookStatus `json:"status"      db:"status"`
	CreatedAt   time.Time  `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"  db:"updated_at"`
}

// User is a registered library account.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"` // Don't serialize password hash
	Role         Role      `json:"role"       db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

type Borrow struct {
	ID         string       `json:"id"          db:"id"`
	UserID     string       `json:"user_id"     db:"user_id"`
	BookID     string       `json:"book_id"     db:"book_id"`
	BorrowDate time.Time    `json:"borrow_date" db:"borrow_date"`
	DueDate    time.Time    `json:"due_date"    db:"due_date"`
	ReturnDate *time.Time   `json:"return_date" db:"return_date"`
	Status     BorrowStatus `json:"status"      db:"status"`
	CreatedAt  time.Time    `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"  db:"updated_at"`
}

type Reservation struct {
	ID              string            `json:"id"               db:"id"`
	UserID          string            `json:"user_id"          db:"user_id"`
	BookID          string            `json:"book_id"          db:"book_id"`
	ReservationDate time.Time         `json:"reservation_date" db:"reservation_date"`
	ExpiryDate      time.Time         `json:"expiry_date"      db:"expiry_date"`
	Status          ReservationStatus `json:"status"           db:"status"`
	CreatedAt       time.Time         `json:"created_at"       db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"       db:"updated_at"`
}

// BookInput carries the fields of a new book.
type BookInput struct {
	Title       string
	Author      string
	Genre       string
	Year        int
	Description string
	ISBN        string
	Status      BookStatus
}

// BookPatch is a partial update; nil fields are left untouched.
type BookPatch struct {
	Title       *string
	Author      *string
	Genre       *string
	Year        *int
	Description *string
	ISBN        *string
	Status      *BookStatus
}

// BookFilter narrows List. Title and Author match case-insensitive substrings,
// the remaining fields match exactly. Zero values are ignored.
type BookFilter struct {
	Title  string
	Author string
	Genre  string
	Year   *int
	ISBN   string
	Status BookStatus
}

type UserPatch struct {
	Username *string
	Email    *string
	Role     *Role
}

// UserFilter narrows user listings; an empty Role matches every user.
type UserFilter struct {
	Role Role
}

type BorrowFilter struct {
	UserID string
	BookID string
	Status BorrowStatus
}

type ReservationFilter struct {
	UserID string
	BookID string
	Status ReservationStatus
}

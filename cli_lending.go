package main

import (
	"errors"

	"github.com/spf13/cobra"

	"library-lending/library"
)

func (a *app) borrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Borrow a book as the --as user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.actor(cmd)
			if err != nil {
				return err
			}
			b, err := a.mgr.Borrows().Create(cmd.Context(), id.UserID, args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, b, func() string {
				return success("Borrowed by %s, due %s (borrow %s)", id.Username, formatDate(b.DueDate), b.ID)
			})
		},
	}
}

func (a *app) returnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <borrow-id>",
		Short: "Return a borrowed book; admins may return anyone's",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.actor(cmd)
			if err != nil {
				return err
			}
			b, err := a.mgr.Borrows().Return(ctx, args[0], id.UserID, id.IsAdmin())
			if err != nil {
				return err
			}
			status := "unknown (book deleted)"
			book, err := a.mgr.Books().GetByID(ctx, b.BookID)
			switch {
			case err == nil:
				status = string(book.Status)
			case !errors.Is(err, library.ErrBookNotFound):
				return err
			}
			return a.emit(cmd, b, func() string {
				return success("Borrow %s returned; book is now %s", b.ID, status)
			})
		},
	}
}

func (a *app) reserveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <book-id>",
		Short: "Reserve an available book as the --as user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.actor(cmd)
			if err != nil {
				return err
			}
			r, err := a.mgr.Reservations().Create(cmd.Context(), id.UserID, args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, r, func() string {
				return success("Reserved for %s until %s (reservation %s)", id.Username, formatDate(r.ExpiryDate), r.ID)
			})
		},
	}
}

func (a *app) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel one of your reservations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.actor(cmd)
			if err != nil {
				return err
			}
			r, err := a.mgr.Reservations().Cancel(cmd.Context(), args[0], id.UserID)
			if err != nil {
				return err
			}
			return a.emit(cmd, r, func() string {
				return success("Reservation %s cancelled", r.ID)
			})
		},
	}
}

func (a *app) borrowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrows",
		Short: "List borrows; admins see everyone's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			id, err := a.actor(cmd)
			if err != nil {
				return err
			}
			borrows, err := a.mgr.BorrowsVisibleTo(ctx, id)
			if err != nil {
				return err
			}
			name, err := a.usernames(ctx)
			if err != nil {
				return err
			}
			return a.emit(cmd, borrows, func() string {
				rows := make([][]string, 0, len(borrows))
				for _, b := range borrows {
					returned := "-"
					if b.ReturnDate != nil {
						returned = formatDate(*b.ReturnDate)
					}
					rows = append(rows, []string{
						b.ID, a.bookTitle(cmd, b.BookID), name(b.UserID),
						formatDate(b.BorrowDate), formatDate(b.DueDate), returned, string(b.Status),
					})
				}
				return renderTable([]string{"ID", "Book", "User", "Borrowed", "Due", "Returned", "Status"}, rows)
			})
		},
	}
}

func (a *app) reservationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reservations",
		Short: "List reservations; admins see everyone's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			id, err := a.actor(cmd)
			if err != nil {
				return err
			}
			rs, err := a.mgr.ReservationsVisibleTo(ctx, id)
			if err != nil {
				return err
			}
			name, err := a.usernames(ctx)
			if err != nil {
				return err
			}
			return a.emit(cmd, rs, func() string {
				rows := make([][]string, 0, len(rs))
				for _, r := range rs {
					rows = append(rows, []string{
						r.ID, a.bookTitle(cmd, r.BookID), name(r.UserID),
						formatDate(r.ReservationDate), formatDate(r.ExpiryDate), string(r.Status),
					})
				}
				return renderTable([]string{"ID", "Book", "User", "Reserved", "Expires", "Status"}, rows)
			})
		},
	}
}

// bookTitle falls back to the raw ID for books that were deleted.
func (a *app) bookTitle(cmd *cobra.Command, bookID string) string {
	b, err := a.mgr.Books().GetByID(cmd.Context(), bookID)
	if err != nil {
		return bookID
	}
	return truncateString(b.Title, 30)
}

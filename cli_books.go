package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-lending/library"
)

func (a *app) bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage the catalogue",
	}
	cmd.AddCommand(
		a.bookAddCmd(),
		a.bookListCmd(),
		a.bookShowCmd(),
		a.bookUpdateCmd(),
		a.bookStatusCmd(),
		a.bookDeleteCmd(),
	)
	return cmd
}

// bookFlags binds the editable book fields to flags on cmd.
type bookFlags struct {
	title, author, genre, description, isbn, status string
	year                                            int
}

func (f *bookFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "book title")
	fl.StringVar(&f.author, "author", "", "book author")
	fl.StringVar(&f.genre, "genre", "", "genre")
	fl.IntVar(&f.year, "year", 0, "publication year")
	fl.StringVar(&f.description, "description", "", "short description")
	fl.StringVar(&f.isbn, "isbn", "", "ISBN")
	fl.StringVar(&f.status, "status", "", "status: available, reserved or borrowed")
}

func (a *app) bookAddCmd() *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.mgr.Books().Create(cmd.Context(), library.BookInput{
				Title:       f.title,
				Author:      f.author,
				Genre:       f.genre,
				Year:        f.year,
				Description: f.description,
				ISBN:        f.isbn,
				Status:      library.BookStatus(f.status),
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, b, func() string {
				return success("Book %q added with ID %s", b.Title, b.ID)
			})
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func (a *app) bookListCmd() *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books with their borrower and reservation queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			filter := library.BookFilter{
				Title:  f.title,
				Author: f.author,
				Genre:  f.genre,
				ISBN:   f.isbn,
				Status: library.BookStatus(f.status),
			}
			if cmd.Flags().Changed("year") {
				filter.Year = &f.year
			}
			entries, err := a.mgr.Catalog(ctx, filter)
			if err != nil {
				return err
			}
			name, err := a.usernames(ctx)
			if err != nil {
				return err
			}
			return a.emit(cmd, entries, func() string {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					borrower := "None"
					if e.Borrow != nil {
						borrower = fmt.Sprintf("%s (due %s)", name(e.Borrow.UserID), formatDate(e.Borrow.DueDate))
					}
					queue := "None"
					if len(e.Queue) > 0 {
						var waiting []string
						for i, r := range e.Queue {
							waiting = append(waiting, fmt.Sprintf("%d. %s", i+1, name(r.UserID)))
						}
						queue = strings.Join(waiting, ", ")
					}
					rows = append(rows, []string{
						e.Book.ID,
						truncateString(e.Book.Title, 30),
						truncateString(e.Book.Author, 25),
						string(e.Book.Status),
						borrower,
						queue,
					})
				}
				return renderTable([]string{"ID", "Title", "Author", "Status", "Borrower", "Reservation Queue"}, rows)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *app) bookShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.mgr.Books().GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, b, func() string { return describeBook(b) })
		},
	}
}

func describeBook(b *library.Book) string {
	rows := [][]string{
		{"ID", b.ID},
		{"Title", b.Title},
		{"Author", b.Author},
		{"Genre", b.Genre},
		{"Year", strconv.Itoa(b.Year)},
		{"ISBN", b.ISBN},
		{"Status", string(b.Status)},
		{"Description", b.Description},
		{"Updated", b.UpdatedAt.Local().Format("2006-01-02 15:04:05")},
	}
	return renderTable([]string{"Field", "Value"}, rows)
}

func (a *app) bookUpdateCmd() *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "update <book-id>",
		Short: "Change book fields; only the flags given are updated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			var p library.BookPatch
			if fl.Changed("title") {
				p.Title = &f.title
			}
			if fl.Changed("author") {
				p.Author = &f.author
			}
			if fl.Changed("genre") {
				p.Genre = &f.genre
			}
			if fl.Changed("year") {
				p.Year = &f.year
			}
			if fl.Changed("description") {
				p.Description = &f.description
			}
			if fl.Changed("isbn") {
				p.ISBN = &f.isbn
			}
			if fl.Changed("status") {
				s := library.BookStatus(f.status)
				p.Status = &s
			}
			b, err := a.mgr.Books().Update(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			return a.emit(cmd, b, func() string { return describeBook(b) })
		},
	}
	f.bind(cmd)
	return cmd
}

// bookStatusCmd is the administrative override for a book stuck in the wrong
// state; it bypasses the lending rules.
func (a *app) bookStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <book-id> <available|reserved|borrowed>",
		Short: "Force a book's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := library.BookStatus(args[1])
			ok, err := a.mgr.Books().SetStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			if !ok {
				return library.ErrBookNotFound
			}
			return a.emit(cmd, map[string]string{"id": args[0], "status": string(status)}, func() string {
				return success("Book %s is now %s", args[0], status)
			})
		},
	}
}

func (a *app) bookDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Remove a book from the catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.mgr.Books().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return library.ErrBookNotFound
			}
			return a.emit(cmd, map[string]any{"id": args[0], "deleted": true}, func() string {
				return success("Book %s deleted", args[0])
			})
		},
	}
}

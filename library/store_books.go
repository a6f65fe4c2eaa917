package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
)

func (d *Database) InsertBook(ctx context.Context, in BookInput) (*Book, error) {
	now := d.now()
	b := &Book{
		ID:          newID(),
		Title:       in.Title,
		Author:      in.Author,
		Genre:       in.Genre,
		Year:        in.Year,
		Description: in.Description,
		ISBN:        in.ISBN,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := d.exec(ctx, dialect.Insert(tableBooks).Rows(goqu.Record{
		"id":          b.ID,
		"title":       b.Title,
		"author":      b.Author,
		"genre":       b.Genre,
		"year":        b.Year,
		"description": b.Description,
		"isbn":        b.ISBN,
		"status":      string(b.Status),
		"created_at":  b.CreatedAt,
		"updated_at":  b.UpdatedAt,
	}).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return b, nil
}

func (d *Database) FindBook(ctx context.Context, id string) (*Book, error) {
	if !validID(id) {
		return nil, ErrBookNotFound
	}
	var b Book
	found, err := d.get(ctx, &b, dialect.From(tableBooks).Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if !found {
		return nil, ErrBookNotFound
	}
	return &b, nil
}

func bookConditions(f BookFilter) []goqu.Expression {
	var where []goqu.Expression
	// instr keeps the match a literal substring; LIKE would treat % and _ as wildcards.
	if f.Title != "" {
		where = append(where, goqu.L("instr(fold(title), ?) > 0", strings.ToLower(f.Title)))
	}
	if f.Author != "" {
		where = append(where, goqu.L("instr(fold(author), ?) > 0", strings.ToLower(f.Author)))
	}
	if f.Genre != "" {
		where = append(where, goqu.C("genre").Eq(f.Genre))
	}
	if f.Year != nil {
		where = append(where, goqu.C("year").Eq(*f.Year))
	}
	if f.ISBN != "" {
		where = append(where, goqu.C("isbn").Eq(f.ISBN))
	}
	if f.Status != "" {
		where = append(where, goqu.C("status").Eq(string(f.Status)))
	}
	return where
}

// FindBooks returns the books matching every non-zero field of f, oldest first.
func (d *Database) FindBooks(ctx context.Context, f BookFilter) ([]*Book, error) {
	ds := dialect.From(tableBooks).
		Where(bookConditions(f)...).
		Order(goqu.I("created_at").Asc(), goqu.L("rowid").Asc()).
		Prepared(true)
	books := []*Book{}
	if err := d.list(ctx, &books, ds); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// UpdateBook applies the non-nil fields of p and stamps updated_at.
func (d *Database) UpdateBook(ctx context.Context, id string, p BookPatch) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	rec := goqu.Record{"updated_at": d.now()}
	if p.Title != nil {
		rec["title"] = *p.Title
	}
	if p.Author != nil {
		rec["author"] = *p.Author
	}
	if p.Genre != nil {
		rec["genre"] = *p.Genre
	}
	if p.Year != nil {
		rec["year"] = *p.Year
	}
	if p.Description != nil {
		rec["description"] = *p.Description
	}
	if p.ISBN != nil {
		rec["isbn"] = *p.ISBN
	}
	if p.Status != nil {
		rec["status"] = string(*p.Status)
	}
	n, err := d.exec(ctx, dialect.Update(tableBooks).Set(rec).Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return false, fmt.Errorf("update book: %w", err)
	}
	return n > 0, nil
}

// UpdateBookStatus overwrites the status unconditionally.
func (d *Database) UpdateBookStatus(ctx context.Context, id string, status BookStatus) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := d.exec(ctx, dialect.Update(tableBooks).
		Set(goqu.Record{"status": string(status), "updated_at": d.now()}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
	if err != nil {
		return false, fmt.Errorf("update book status: %w", err)
	}
	return n > 0, nil
}

// SwapBookStatus sets status to `to` only while it still equals `from`.
func (d *Database) SwapBookStatus(ctx context.Context, id string, from, to BookStatus) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := d.exec(ctx, dialect.Update(tableBooks).
		Set(goqu.Record{"status": string(to), "updated_at": d.now()}).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(from))).
		Prepared(true))
	if err != nil {
		return false, fmt.Errorf("swap book status: %w", err)
	}
	return n > 0, nil
}

func (d *Database) DeleteBook(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := d.exec(ctx, dialect.Delete(tableBooks).Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	return n > 0, nil
}

func (d *Database) CountBooks(ctx context.Context) (int, error) {
	n, err := d.count(ctx, tableBooks)
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

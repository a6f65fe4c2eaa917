package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-lending/library"
)

type CreateBookRequest struct {
	Title       string `json:"title"       binding:"required"`
	Author      string `json:"author"      binding:"required"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"        binding:"gte=0"`
	Description string `json:"description"`
	ISBN        string `json:"isbn"`
	Status      string `json:"status"      binding:"omitempty,oneof=available reserved borrowed"`
}

type UpdateBookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Genre       *string `json:"genre"`
	Year        *int    `json:"year"        binding:"omitempty,gte=0"`
	Description *string `json:"description"`
	ISBN        *string `json:"isbn"`
	Status      *string `json:"status"      binding:"omitempty,oneof=available reserved borrowed"`
}

func (r UpdateBookRequest) patch() library.BookPatch {
	p := library.BookPatch{
		Title:       r.Title,
		Author:      r.Author,
		Genre:       r.Genre,
		Year:        r.Year,
		Description: r.Description,
		ISBN:        r.ISBN,
	}
	if r.Status != nil {
		s := library.BookStatus(*r.Status)
		p.Status = &s
	}
	return p
}

// ListBooks answers GET /books?title=&author=&genre=&year=&isbn=&status=.
func (h *Handler) ListBooks(c *gin.Context) {
	f := library.BookFilter{
		Title:  c.Query("title"),
		Author: c.Query("author"),
		Genre:  c.Query("genre"),
		ISBN:   c.Query("isbn"),
		Status: library.BookStatus(c.Query("status")),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "year must be an integer", err)
			return
		}
		f.Year = &year
	}
	books, err := h.mgr.Books().List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBook(c *gin.Context) {
	b, err := h.mgr.Books().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	b, err := h.mgr.Books().Create(c.Request.Context(), library.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Year:        req.Year,
		Description: req.Description,
		ISBN:        req.ISBN,
		Status:      library.BookStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) UpdateBook(c *gin.Context) {
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	b, err := h.mgr.Books().Update(c.Request.Context(), c.Param("id"), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBook(c *gin.Context) {
	ok, err := h.mgr.Books().Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, library.ErrBookNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

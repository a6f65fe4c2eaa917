package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type BookRefRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

func (h *Handler) CreateBorrow(c *gin.Context) {
	var req BookRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	id, _ := identityFrom(c)
	b, err := h.mgr.Borrows().Create(c.Request.Context(), id.UserID, req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListBorrows shows admins every borrow and everyone else their own.
func (h *Handler) ListBorrows(c *gin.Context) {
	id, _ := identityFrom(c)
	borrows, err := h.mgr.BorrowsVisibleTo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrows)
}

func (h *Handler) GetBorrow(c *gin.Context) {
	id, _ := identityFrom(c)
	b, err := h.mgr.BorrowFor(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) ReturnBorrow(c *gin.Context) {
	id, _ := identityFrom(c)
	b, err := h.mgr.Borrows().Return(c.Request.Context(), c.Param("id"), id.UserID, id.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CreateReservation(c *gin.Context) {
	var req BookRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	id, _ := identityFrom(c)
	r, err := h.mgr.Reservations().Create(c.Request.Context(), id.UserID, req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListReservations(c *gin.Context) {
	id, _ := identityFrom(c)
	rs, err := h.mgr.ReservationsVisibleTo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *Handler) GetReservation(c *gin.Context) {
	id, _ := identityFrom(c)
	r, err := h.mgr.ReservationFor(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// CancelReservation is owner-only, admins included.
func (h *Handler) CancelReservation(c *gin.Context) {
	id, _ := identityFrom(c)
	r, err := h.mgr.Reservations().Cancel(c.Request.Context(), c.Param("id"), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

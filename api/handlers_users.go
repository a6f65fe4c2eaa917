package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lending/library"
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"     binding:"omitempty,oneof=admin student teacher"`
}

type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"    binding:"omitempty,email"`
	Role     *string `json:"role"     binding:"omitempty,oneof=admin student teacher"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.mgr.Users().List(c.Request.Context(), library.UserFilter{Role: library.Role(c.Query("role"))})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	u, err := h.mgr.Users().Register(c.Request.Context(), library.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     library.Role(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.mgr.Users().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	p := library.UserPatch{Username: req.Username, Email: req.Email}
	if req.Role != nil {
		r := library.Role(*req.Role)
		p.Role = &r
	}
	u, err := h.mgr.Users().Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	ok, err := h.mgr.Users().Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, library.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	if err := h.mgr.Users().ResetPassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

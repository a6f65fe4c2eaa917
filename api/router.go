// Package api exposes the lending operations over HTTP with gin. Every route
// except register and login needs a bearer token; role checks run as
// middleware before the handler.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-lending/internal/logger"
	"library-lending/library"
)

// Handler serves the HTTP endpoints on top of a LibraryManager.
type Handler struct {
	mgr    *library.LibraryManager
	tokens *TokenIssuer
}

func NewHandler(mgr *library.LibraryManager, tokens *TokenIssuer) *Handler {
	return &Handler{mgr: mgr, tokens: tokens}
}

// NewRouter builds the gin engine with all routes under /api.
func NewRouter(mgr *library.LibraryManager, tokens *TokenIssuer, log logger.Logger) *gin.Engine {
	h := NewHandler(mgr, tokens)
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiBase := r.Group("/api")
	authn := Authenticate(tokens, mgr.Users())
	admin := RequireRole(library.RoleAdmin)

	auth := apiBase.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", authn, h.Me)
	}

	books := apiBase.Group("/books", authn)
	{
		books.GET("", h.ListBooks)
		books.GET("/:id", h.GetBook)
		books.POST("", admin, h.CreateBook)
		books.PUT("/:id", admin, h.UpdateBook)
		books.DELETE("/:id", admin, h.DeleteBook)
	}

	users := apiBase.Group("/users", authn, admin)
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.POST("/:id/password", h.ResetPassword)
	}

	borrows := apiBase.Group("/borrows", authn)
	{
		borrows.POST("", h.CreateBorrow)
		borrows.GET("", h.ListBorrows)
		borrows.GET("/:id", h.GetBorrow)
		borrows.POST("/:id/return", h.ReturnBorrow)
	}

	reservations := apiBase.Group("/reservations", authn)
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", h.ListReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.DELETE("/:id", h.CancelReservation)
	}
	return r
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for at most shutdownTimeout.
func Serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	log := logger.FromContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

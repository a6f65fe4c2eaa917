package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-lending/internal/logger"
	"library-lending/library"
)

const (
	contextKeyIdentity = "identity"
	headerRequestID    = "X-Request-ID"
)

// RequestLogger attaches a request-scoped logger to the request context and
// logs one line per request once the handler chain finishes.
func RequestLogger(base logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(headerRequestID, reqID)

		log := base.With("request_id", reqID)
		c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), log))
		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Authenticate requires a valid bearer token and resolves its subject to a
// current identity. Tokens for deleted users are rejected.
func Authenticate(tokens *TokenIssuer, users *library.UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}
		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			respondError(c, err)
			return
		}
		id, err := users.Identity(c.Request.Context(), claims.Subject)
		if errors.Is(err, library.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "user no longer exists"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(contextKeyIdentity, id)
		ctx := logger.ContextWithLogger(c.Request.Context(),
			logger.FromContext(c.Request.Context()).With("user_id", id.UserID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole lets the request through only when the caller has one of the
// given roles. It must run after Authenticate.
func RequireRole(roles ...library.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "insufficient permissions"})
	}
}

func identityFrom(c *gin.Context) (library.Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return library.Identity{}, false
	}
	id, ok := v.(library.Identity)
	return id, ok
}

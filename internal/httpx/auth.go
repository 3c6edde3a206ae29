package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxUserID = "user_id"

// Resolver maps a bearer token to a user id.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// BearerToken returns the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// Auth rejects requests without a valid bearer token and stores the caller's
// id for UserID.
func Auth(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}
		uid, err := r.Resolve(c.Request.Context(), tok)
		if err != nil {
			WriteError(c, err)
			return
		}
		c.Set(ctxUserID, uid)
		c.Next()
	}
}

// UserID is the authenticated caller, or "" outside Auth.
func UserID(c *gin.Context) string { return c.GetString(ctxUserID) }

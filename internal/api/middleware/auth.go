// server/internal/api/middleware/auth.go
package middleware

import (
	"net/http"
	"slices"
	"strings"

	"coldchain-freight-api-server/internal/auth"

	"github.com/gin-gonic/gin"
)

const identityKey = "caller_identity"

// Identity is the authenticated caller, as read from the token claims.
type Identity struct {
	Email string
	Role  string
}

// Caller returns the identity Authenticate stored on the request.
func Caller(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	return token, found && token != ""
}

// Authenticate validates the bearer JWT and stores the caller's Identity.
func Authenticate(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(identityKey, Identity{Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

// Authorize must run after Authenticate. It rejects callers whose role is not
// in allowedRoles.
func Authorize(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := Caller(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Caller identity not found in context"})
			return
		}
		if !slices.Contains(allowedRoles, caller.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}

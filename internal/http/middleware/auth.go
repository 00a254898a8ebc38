// README: Identity middleware; trusts the caller id and role forwarded by the gateway.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/types"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	principalKey = "ridebook.principal"
)

// Identity rejects requests without a usable caller id and role and stores
// the normalized principal on the context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseID(c.GetHeader(HeaderUserID))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + HeaderUserID})
			return
		}
		role := types.NormalizeRole(c.GetHeader(HeaderUserRole))
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderUserRole})
			return
		}
		c.Set(principalKey, types.Principal{ID: id, Role: role})
		c.Next()
	}
}

// RequireRole must run after Identity.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Caller(c).Is(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func Caller(c *gin.Context) types.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(types.Principal); ok {
			return p
		}
	}
	return types.Principal{}
}

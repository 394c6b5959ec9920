package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/events-service/internal/auth"
	"github.com/gatherhub/events-service/internal/models"
)

const claimsContextKey = "auth.claims"

// AuthMiddleware validates the bearer token and stores its claims on the
// request context.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "Not authenticated",
			})
			return
		}

		claims, err := h.tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "Not authenticated",
			})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated user
// holds one of the given roles. It must run after AuthMiddleware.
func (h *Handlers) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "Not authenticated",
			})
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Success: false,
			Error:   "Insufficient permissions",
		})
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

package middleware

import (
	"net/http"
	"strings"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleware rejects requests without a valid provider-issued bearer
// token and puts the resolved actor id on the request context.
func AuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := resolveActor(c, service)
		if !ok {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(services.WithUserContext(c.Request.Context(), userID))
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the actor when a valid token is present
// and lets the request continue anonymously otherwise. Used on the vote
// path, where authentication is a policy decision, not a precondition.
func OptionalAuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := resolveActor(c, service); ok {
			c.Request = c.Request.WithContext(services.WithUserContext(c.Request.Context(), userID))
		}
		c.Next()
	}
}

func resolveActor(c *gin.Context, service *services.AuthService) (uuid.UUID, bool) {
	token := extractBearer(c)
	claims, err := service.ParseAccessToken(token)
	if err != nil {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package auth

import (
	"net/http"
	"strings"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Middleware extracts and validates the bearer token, storing the actor in
// the request context for controllers and services.
func Middleware(v *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "invalid authorization header",
			})
			return
		}

		actor, err := v.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "invalid token",
			})
			return
		}

		c.Set(actorKey, *actor)
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor stored by Middleware.
func ActorFromContext(c *gin.Context) (workflow.Actor, bool) {
	val, ok := c.Get(actorKey)
	if !ok {
		return workflow.Actor{}, false
	}
	actor, ok := val.(workflow.Actor)
	return actor, ok
}

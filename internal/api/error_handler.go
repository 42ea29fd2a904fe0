package api

import (
	"errors"
	"net/http"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HandleError maps domain errors to HTTP statuses: validation 422,
// authorization 403, conflict 409, cascade 502, not-found 404. Everything
// else is a 500 with the message hidden behind a generic text.
func HandleError(c *gin.Context, err error) {
	var validationErr *workflow.ValidationError
	var authErr *workflow.AuthorizationError
	var conflictErr *workflow.ConflictError
	var cascadeErr *workflow.CascadeError

	switch {
	case errors.As(err, &validationErr):
		Error(c, http.StatusUnprocessableEntity, validationErr.Message, "")
	case errors.As(err, &authErr):
		Error(c, http.StatusForbidden, authErr.Message, "")
	case errors.As(err, &conflictErr):
		Error(c, http.StatusConflict, conflictErr.Message, "")
	case errors.As(err, &cascadeErr):
		Error(c, http.StatusBadGateway, cascadeErr.Error(), "")
	case errors.Is(err, gorm.ErrRecordNotFound):
		Error(c, http.StatusNotFound, "not found", "")
	default:
		Error(c, http.StatusInternalServerError, "internal server error", err.Error())
	}
}

// ErrorHandlerMiddleware converts errors attached to the gin context into
// the unified envelope.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			HandleError(c, c.Errors.Last().Err)
		}
	}
}

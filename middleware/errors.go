package middleware

import (
	"food-order-service/apperrors"

	"github.com/gin-gonic/gin"
)

// ErrorMiddleware renders the last error a handler attached with c.Error,
// unless the handler already wrote a response.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := apperrors.From(c.Errors.Last().Err)
		c.AbortWithStatusJSON(appErr.StatusCode(), gin.H{"error": appErr.Message})
	}
}

package controllers

import (
	"errors"
	"io"
	"net/http"

	"food-order-service/apperrors"
	"food-order-service/middleware"
	"food-order-service/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

// respondError writes err as {"error": message} with the status for its kind.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Kind == apperrors.KindInternal {
		_ = c.Error(err)
	}
	c.JSON(appErr.StatusCode(), gin.H{"error": appErr.Message})
}

// bindOptionalJSON decodes the body into dst, accepting an empty body.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
	return false
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return false
	}
	return true
}

func identity(c *gin.Context) (models.Identity, bool) {
	who, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return who, ok
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// statusFilter reads the optional ?status= query parameter.
func statusFilter(c *gin.Context) (*models.OrderStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	s, ok := models.ParseOrderStatus(raw)
	if !ok {
		respondError(c, apperrors.InvalidInput("Invalid status filter %q", raw))
		return nil, false
	}
	return &s, true
}

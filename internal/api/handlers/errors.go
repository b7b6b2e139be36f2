package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
	"github.com/andresuchdata/autoforecast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors onto HTTP statuses. message is used for
// unexpected failures, whose details stay in the log.
func respondError(c *gin.Context, err error, message string) {
	var invalid *forecast.InvalidSettingsError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "details": err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid settings",
			"field":   invalid.Field,
			"details": invalid.Error(),
		})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

package handlers

import (
	"net/http"

	"github.com/andresuchdata/autoforecast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	service *service.ForecastService
}

func NewSettingsHandler(service *service.ForecastService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	setting, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch settings")
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpdateSettings applies the fields present in the body on top of the
// current settings.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	current, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch settings")
		return
	}

	settings := current.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	updated, err := h.service.UpdateSettings(c.Request.Context(), settings)
	if err != nil {
		respondError(c, err, "failed to update settings")
		return
	}
	c.JSON(http.StatusOK, updated)
}

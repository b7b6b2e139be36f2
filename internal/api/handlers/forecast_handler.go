package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/autoforecast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func (h *ForecastHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetForecast returns the full report of one product. weeks defaults to the
// configured horizon.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	asin := strings.TrimSpace(c.Param("asin"))

	weeks := 0
	if raw := strings.TrimSpace(c.Query("weeks")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > service.MaxHorizonWeeks {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid weeks",
				"details": "weeks must be an integer between 1 and " + strconv.Itoa(service.MaxHorizonWeeks),
			})
			return
		}
		weeks = n
	}

	report, err := h.service.GetReport(c.Request.Context(), asin, weeks)
	if err != nil {
		respondError(c, err, "failed to compute forecast")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ForecastHandler) GetSeasonality(c *gin.Context) {
	rec, err := h.service.GetSeasonality(c.Request.Context(), c.Param("asin"))
	if err != nil {
		respondError(c, err, "failed to fetch seasonality")
		return
	}
	c.JSON(http.StatusOK, rec)
}

type seasonalityOverrideRequest struct {
	Index []float64 `json:"index" binding:"required"`
}

func (h *ForecastHandler) OverrideSeasonality(c *gin.Context) {
	var req seasonalityOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rec, err := h.service.OverrideSeasonality(c.Request.Context(), c.Param("asin"), req.Index)
	if err != nil {
		respondError(c, err, "failed to override seasonality")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ForecastHandler) RecomputeSeasonality(c *gin.Context) {
	rec, err := h.service.RecomputeSeasonality(c.Request.Context(), c.Param("asin"))
	if err != nil {
		respondError(c, err, "failed to recompute seasonality")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ForecastHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch dashboard summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ForecastHandler) RecomputeForecasts(c *gin.Context) {
	summary, err := h.service.RecomputeAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to recompute forecasts")
		return
	}
	c.JSON(http.StatusOK, summary)
}

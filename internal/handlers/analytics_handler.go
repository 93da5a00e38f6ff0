package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/genrefy/backend/internal/services"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	reportService    *services.ReportService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService, reportService *services.ReportService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		reportService:    reportService,
	}
}

// GetAnalytics returns the full analytics payload as JSON.
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	data, err := h.analyticsService.GetAnalyticsData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect analytics"})
		return
	}

	c.JSON(http.StatusOK, data)
}

// DownloadReport streams the analytics report as a PDF.
func (h *AnalyticsHandler) DownloadReport(c *gin.Context) {
	pdf, err := h.reportService.GenerateAnalyticsPDF()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	filename := "genrefy-report-" + time.Now().UTC().Format("2006-01-02") + ".pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

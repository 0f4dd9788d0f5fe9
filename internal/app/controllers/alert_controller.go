package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbisedu/backoffice/internal/app/models/dto"
	"github.com/orbisedu/backoffice/internal/app/services"
	"github.com/orbisedu/backoffice/internal/middleware"
)

// AlertController exposes the alert sweep for manual runs
type AlertController struct {
	alertService *services.AlertService
}

// NewAlertController creates a new AlertController
func NewAlertController(alertService *services.AlertService) *AlertController {
	return &AlertController{
		alertService: alertService,
	}
}

// RunSweep triggers an alert sweep immediately
// @Summary Run the alert sweep now
// @Description Runs the deadline sweep outside the daily schedule. Deduplication still applies, so rerunning a day sends nothing twice.
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SweepResultResponse} "Sweep completed"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /alerts/sweep [post]
func (c *AlertController) RunSweep(ctx *gin.Context) {
	result, err := c.alertService.RunDailySweep(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.SweepResultResponse{
		VisaAlerts:       result.VisaAlerts,
		MissingDocAlerts: result.MissingDocAlerts,
		ExpiryWarnings:   result.ExpiryWarnings,
		Skipped:          result.Skipped,
		Failures:         result.Failures,
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(response))
}

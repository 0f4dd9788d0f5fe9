package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/app/models/dto"
	"github.com/orbisedu/backoffice/internal/app/services"
	"github.com/orbisedu/backoffice/internal/middleware"
)

// AgencyController handles partner agency operations
type AgencyController struct {
	agencyService *services.AgencyService
}

// NewAgencyController creates a new AgencyController
func NewAgencyController(agencyService *services.AgencyService) *AgencyController {
	return &AgencyController{
		agencyService: agencyService,
	}
}

func toAgencyResponse(agency *models.Agency) dto.AgencyResponse {
	return dto.AgencyResponse{
		ID:             agency.ID,
		Name:           agency.Name,
		Code:           agency.Code,
		SequenceNumber: agency.SequenceNumber,
		CreatedAt:      agency.CreatedAt,
	}
}

// CreateAgency handles agency registration
// @Summary Register a partner agency
// @Description Creates a new agency and assigns it the next free sequence number
// @Tags agencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAgencyRequest true "Agency information"
// @Success 201 {object} dto.APIResponse{data=dto.AgencyResponse} "Agency created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Agency code already in use"
// @Router /agencies [post]
func (c *AgencyController) CreateAgency(ctx *gin.Context) {
	var req dto.CreateAgencyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid agency data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	agency, err := c.agencyService.CreateAgency(ctx, req.Name, req.Code)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(toAgencyResponse(agency)))
}

// GetAgencyByID retrieves an agency by ID
// @Summary Get agency by ID
// @Tags agencies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Agency ID"
// @Success 200 {object} dto.APIResponse{data=dto.AgencyResponse} "Agency retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid agency ID"
// @Failure 404 {object} dto.ErrorResponse "Agency not found"
// @Router /agencies/{id} [get]
func (c *AgencyController) GetAgencyByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid agency ID")
		errorDetail = errorDetail.WithDetails("Agency ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	agency, err := c.agencyService.GetAgencyByID(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(toAgencyResponse(agency)))
}

// GetAllAgencies retrieves all agencies
// @Summary List agencies
// @Tags agencies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AgencyListResponse} "Agencies retrieved successfully"
// @Router /agencies [get]
func (c *AgencyController) GetAllAgencies(ctx *gin.Context) {
	agencies, err := c.agencyService.GetAllAgencies(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.AgencyListResponse{Agencies: make([]dto.AgencyResponse, 0, len(agencies))}
	for _, agency := range agencies {
		response.Agencies = append(response.Agencies, toAgencyResponse(agency))
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(response))
}

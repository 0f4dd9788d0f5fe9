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

// DocumentTypeController handles document type administration
type DocumentTypeController struct {
	docTypeService *services.DocumentTypeService
}

// NewDocumentTypeController creates a new DocumentTypeController
func NewDocumentTypeController(docTypeService *services.DocumentTypeService) *DocumentTypeController {
	return &DocumentTypeController{
		docTypeService: docTypeService,
	}
}

func toDocumentTypeResponse(docType *models.DocumentType) dto.DocumentTypeResponse {
	return dto.DocumentTypeResponse{
		ID:                       docType.ID,
		Name:                     docType.Name,
		Category:                 string(docType.Category),
		ApplicableVisaCategories: docType.ApplicableVisaCategories,
		HasExpiry:                docType.HasExpiry,
		IsRequired:               docType.IsRequired,
		SortOrder:                docType.SortOrder,
		IsActive:                 docType.IsActive,
		CreatedAt:                docType.CreatedAt,
	}
}

// CreateDocumentType handles document type creation
// @Summary Create a document type
// @Tags document-types
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateDocumentTypeRequest true "Document type definition"
// @Success 201 {object} dto.APIResponse{data=dto.DocumentTypeResponse} "Document type created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Name already in use"
// @Router /document-types [post]
func (c *DocumentTypeController) CreateDocumentType(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.CreateDocumentTypeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid document type data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	docType := &models.DocumentType{
		Name:                     req.Name,
		Category:                 models.DocumentCategory(req.Category),
		ApplicableVisaCategories: req.ApplicableVisaCategories,
		HasExpiry:                req.HasExpiry,
		IsRequired:               req.IsRequired,
		SortOrder:                req.SortOrder,
	}

	if err := c.docTypeService.CreateDocumentType(ctx, caller, docType); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(toDocumentTypeResponse(docType)))
}

// UpdateDocumentType handles document type updates
// @Summary Update a document type
// @Description Rewrites a definition. Existing compliance records are not revoked when applicability narrows.
// @Tags document-types
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document type ID"
// @Param request body dto.UpdateDocumentTypeRequest true "New definition"
// @Success 200 {object} dto.APIResponse{data=dto.DocumentTypeResponse} "Document type updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Document type not found"
// @Router /document-types/{id} [put]
func (c *DocumentTypeController) UpdateDocumentType(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid document type ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.UpdateDocumentTypeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid document type data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	docType := &models.DocumentType{
		ID:                       id,
		Name:                     req.Name,
		Category:                 models.DocumentCategory(req.Category),
		ApplicableVisaCategories: req.ApplicableVisaCategories,
		HasExpiry:                req.HasExpiry,
		IsRequired:               req.IsRequired,
		SortOrder:                req.SortOrder,
	}

	if err := c.docTypeService.UpdateDocumentType(ctx, caller, docType); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	updated, err := c.docTypeService.GetDocumentTypeByID(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(toDocumentTypeResponse(updated)))
}

// DeactivateDocumentType handles soft-deletion of a document type
// @Summary Deactivate a document type
// @Description Stops the type from provisioning new records. Existing records stay untouched.
// @Tags document-types
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document type ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Document type deactivated"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Document type not found"
// @Router /document-types/{id} [delete]
func (c *DocumentTypeController) DeactivateDocumentType(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid document type ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.docTypeService.DeactivateDocumentType(ctx, caller, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Document type deactivated"}))
}

// ListDocumentTypes retrieves document type definitions
// @Summary List document types
// @Tags document-types
// @Produce json
// @Security BearerAuth
// @Param includeInactive query bool false "Include deactivated types (admins only)"
// @Success 200 {object} dto.APIResponse{data=dto.DocumentTypeListResponse} "Document types retrieved"
// @Router /document-types [get]
func (c *DocumentTypeController) ListDocumentTypes(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	includeInactive := ctx.Query("includeInactive") == "true"

	docTypes, err := c.docTypeService.ListDocumentTypes(ctx, caller, includeInactive)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.DocumentTypeListResponse{DocumentTypes: make([]dto.DocumentTypeResponse, 0, len(docTypes))}
	for _, docType := range docTypes {
		response.DocumentTypes = append(response.DocumentTypes, toDocumentTypeResponse(docType))
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(response))
}

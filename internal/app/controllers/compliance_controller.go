package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orbisedu/backoffice/internal/app/auth"
	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/app/models/dto"
	"github.com/orbisedu/backoffice/internal/app/services"
	"github.com/orbisedu/backoffice/internal/middleware"
)

// ComplianceController handles checklist resolution and record updates
type ComplianceController struct {
	checklistService *services.ChecklistService
	studentService   *services.StudentService
}

// NewComplianceController creates a new ComplianceController
func NewComplianceController(checklistService *services.ChecklistService, studentService *services.StudentService) *ComplianceController {
	return &ComplianceController{
		checklistService: checklistService,
		studentService:   studentService,
	}
}

func toComplianceRecordResponse(rec *models.ComplianceRecord) dto.ComplianceRecordResponse {
	resp := dto.ComplianceRecordResponse{
		ID:           rec.ID,
		StudentID:    rec.StudentID,
		DocTypeID:    rec.DocTypeID,
		Status:       string(rec.Status),
		SelfChecked:  rec.SelfChecked,
		SubmittedAt:  rec.SubmittedAt,
		ReviewedAt:   rec.ReviewedAt,
		ReviewerID:   rec.ReviewerID,
		RejectReason: rec.RejectReason,
		ExpiryDate:   rec.ExpiryDate,
		FileRef:      rec.FileRef,
		UpdatedAt:    rec.UpdatedAt,
	}
	if rec.DocumentType != nil {
		resp.DocumentName = rec.DocumentType.Name
		resp.Category = string(rec.DocumentType.Category)
		resp.IsRequired = rec.DocumentType.IsRequired
	}
	return resp
}

// GetStudentChecklist resolves and returns a student's compliance checklist
// @Summary Get a student's compliance checklist
// @Description Returns the checklist, lazily provisioning records for newly applicable document types
// @Tags compliance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.ComplianceChecklistResponse} "Checklist retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid student ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/compliance [get]
func (c *ComplianceController) GetStudentChecklist(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	studentID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	// Access control lives in the student read path; resolving the checklist
	// only makes sense for a student the caller may see.
	if _, err := c.studentService.GetStudent(ctx, caller, studentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	records, err := c.checklistService.Resolve(ctx, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.ComplianceChecklistResponse{
		StudentID: studentID,
		Records:   make([]dto.ComplianceRecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		response.Records = append(response.Records, toComplianceRecordResponse(rec))
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(response))
}

// UpdateComplianceRecord applies a partial update to one compliance record
// @Summary Update a compliance record
// @Description Applies the fields the caller's role permits. Students may submit and self-check; reviewers drive the full state machine.
// @Tags compliance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param recordId path int true "Compliance record ID"
// @Param request body dto.UpdateComplianceRecordRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.ComplianceRecordResponse} "Record updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid update"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /compliance/{recordId} [patch]
func (c *ComplianceController) UpdateComplianceRecord(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	recordID, err := strconv.ParseInt(ctx.Param("recordId"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid record ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.UpdateComplianceRecordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid update data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	patch := auth.RecordPatch{
		SelfChecked:  req.SelfChecked,
		FileRef:      req.FileRef,
		RejectReason: req.RejectReason,
	}
	if req.Status != nil {
		status := models.DocumentStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		patch.Status = &status
	}
	if req.ExpiryDate != nil {
		expiry, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid expiry date")
			errorDetail = errorDetail.WithField("expiryDate").WithDetails("Expected format: YYYY-MM-DD")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		patch.ExpiryDate = &expiry
	}

	record, err := c.checklistService.UpdateRecord(ctx, caller, recordID, patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(toComplianceRecordResponse(record)))
}

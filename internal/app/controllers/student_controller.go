package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/app/models/dto"
	"github.com/orbisedu/backoffice/internal/app/services"
	"github.com/orbisedu/backoffice/internal/middleware"
)

// StudentController handles student registration and approval operations
type StudentController struct {
	studentService *services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService *services.StudentService) *StudentController {
	return &StudentController{
		studentService: studentService,
	}
}

func toStudentResponse(student *models.Student) dto.StudentResponse {
	resp := dto.StudentResponse{
		ID:           student.ID,
		FirstName:    student.FirstName,
		LastName:     student.LastName,
		Email:        student.Email,
		Nationality:  student.Nationality,
		VisaCategory: student.VisaCategory,
		VisaExpiry:   student.VisaExpiry,
		IsApproved:   student.IsApproved,
		AgencyID:     student.AgencyID,
		AssignedCode: student.AssignedCode,
		CreatedAt:    student.CreatedAt,
	}
	if student.Agency != nil {
		resp.AgencyName = student.Agency.Name
	}
	return resp
}

// RegisterStudent handles student registration by staff
// @Summary Register a student
// @Description Registers a new student in the pre-approval state
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterStudentRequest true "Student information"
// @Success 201 {object} dto.APIResponse{data=dto.StudentResponse} "Student registered successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /students [post]
func (c *StudentController) RegisterStudent(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.RegisterStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	student := &models.Student{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Nationality:  req.Nationality,
		VisaCategory: req.VisaCategory,
		AgencyID:     req.AgencyID,
	}
	if req.VisaExpiry != "" {
		expiry, err := time.Parse("2006-01-02", req.VisaExpiry)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid visa expiry date")
			errorDetail = errorDetail.WithField("visaExpiry").WithDetails("Expected format: YYYY-MM-DD")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		student.VisaExpiry = &expiry
	}

	if err := c.studentService.RegisterStudent(ctx, caller, student); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(toStudentResponse(student)))
}

// GetStudentByID retrieves a student by ID
// @Summary Get student by ID
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse} "Student retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid student ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) GetStudentByID(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student ID")
		errorDetail = errorDetail.WithDetails("Student ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	student, err := c.studentService.GetStudent(ctx, caller, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(toStudentResponse(student)))
}

// ListStudents retrieves students visible to the caller
// @Summary List students
// @Description Admins see all students, agency staff only their own agency's
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StudentListResponse} "Students retrieved successfully"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	students, err := c.studentService.ListStudents(ctx, caller)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.StudentListResponse{Students: make([]dto.StudentResponse, 0, len(students))}
	for _, student := range students {
		response.Students = append(response.Students, toStudentResponse(student))
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(response))
}

// ApproveStudents handles batch student approval
// @Summary Approve students
// @Description Approves students and assigns each a permanent student code. Failures are reported per student.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ApproveStudentsRequest true "Student IDs to approve"
// @Success 200 {object} dto.APIResponse{data=dto.ApproveStudentsResponse} "Batch processed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 503 {object} dto.ErrorResponse "Code allocation contended"
// @Router /students/approve [post]
func (c *StudentController) ApproveStudents(ctx *gin.Context) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.ApproveStudentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid approval request")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	outcomes, err := c.studentService.ApproveStudents(ctx, caller, req.StudentIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.ApproveStudentsResponse{Outcomes: make([]dto.ApprovalOutcomeResponse, 0, len(outcomes))}
	for _, outcome := range outcomes {
		response.Outcomes = append(response.Outcomes, dto.ApprovalOutcomeResponse{
			StudentID: outcome.StudentID,
			Code:      outcome.Code,
			Error:     outcome.Error,
		})
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(response))
}

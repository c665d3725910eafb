package graduation

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"mygym-server/model"
	"mygym-server/repository"
	"mygym-server/services"
	"mygym-server/utils/cache"
	"mygym-server/utils/response"
	"mygym-server/utils/validation"
)

const (
	boardCacheKey = "graduation:board"
	boardCacheTTL = 5 * time.Minute
)

// GraduationHandler handles graduation-related API endpoints
type GraduationHandler struct {
	graduation *services.GraduationService
	validator  *validation.Validator
	cache      *cache.RedisCache // nil when Redis is unavailable
}

// NewGraduationHandler creates a new graduation handler
func NewGraduationHandler(graduation *services.GraduationService, redisCache *cache.RedisCache) *GraduationHandler {
	return &GraduationHandler{
		graduation: graduation,
		validator:  validation.NewValidator(),
		cache:      redisCache,
	}
}

// RefreshAlerts handles POST /api/v1/graduation/alerts/refresh
// Recomputes all graduation alerts from current student data
func (h *GraduationHandler) RefreshAlerts(c *fiber.Ctx) error {
	alerts, err := h.graduation.UpdateAlerts(c.Context())
	if err != nil {
		log.Printf("Failed to refresh alerts: %v", err)
		return response.InternalServerError(c, "Failed to refresh graduation alerts")
	}

	h.invalidateBoardCache(c)

	return response.SuccessWithMessage(c, "Graduation alerts refreshed", fiber.Map{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetBoard handles GET /api/v1/graduation/board
// Returns the graduation dashboard aggregate, cached for 5 minutes
func (h *GraduationHandler) GetBoard(c *fiber.Ctx) error {
	if h.cache != nil {
		var cached model.GraduationBoard
		if err := h.cache.GetJSON(c.Context(), boardCacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	board, err := h.graduation.GetGraduationBoard(c.Context())
	if err != nil {
		log.Printf("Failed to build graduation board: %v", err)
		return response.InternalServerError(c, "Failed to build graduation board")
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(c.Context(), boardCacheKey, board, boardCacheTTL); err != nil {
			log.Printf("Failed to cache graduation board: %v", err)
		}
	}

	return response.Success(c, board)
}

// GetEligibleStudents handles GET /api/v1/graduation/eligible
// Returns eligible alerts, optionally filtered by ?modality=
func (h *GraduationHandler) GetEligibleStudents(c *fiber.Ctx) error {
	modality := c.Query("modality")

	alerts, err := h.graduation.GetEligibleStudents(c.Context(), modality)
	if err != nil {
		log.Printf("Failed to get eligible students: %v", err)
		return response.InternalServerError(c, "Failed to get eligible students")
	}

	return response.Success(c, fiber.Map{
		"eligible_students": alerts,
		"count":             len(alerts),
	})
}

// ScheduleExamRequest is the payload of POST /graduation/exams
type ScheduleExamRequest struct {
	Date              time.Time `json:"date" validate:"required"`
	Modality          string    `json:"modality" validate:"required,min=2,max=50"`
	Examiner          string    `json:"examiner" validate:"required,min=2,max=255"`
	Location          string    `json:"location" validate:"max=255"`
	CandidateStudents []string  `json:"candidate_students" validate:"required,min=1,dive,required"`
}

// ScheduleExam handles POST /api/v1/graduation/exams
func (h *GraduationHandler) ScheduleExam(c *fiber.Ctx) error {
	var req ScheduleExamRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.Date.Before(time.Now()) {
		return response.BadRequest(c, "Exam date must be in the future")
	}

	exam := &model.GraduationExam{
		Date:              req.Date,
		Modality:          req.Modality,
		Examiner:          req.Examiner,
		Location:          req.Location,
		CandidateStudents: req.CandidateStudents,
	}

	if err := h.graduation.ScheduleExam(c.Context(), exam); err != nil {
		log.Printf("Failed to schedule exam: %v", err)
		return response.InternalServerError(c, "Failed to schedule exam")
	}

	h.invalidateBoardCache(c)

	return response.Created(c, exam)
}

// GetUpcomingExams handles GET /api/v1/graduation/exams/upcoming
func (h *GraduationHandler) GetUpcomingExams(c *fiber.Ctx) error {
	modality := c.Query("modality")

	exams, err := h.graduation.GetUpcomingExams(c.Context(), modality)
	if err != nil {
		log.Printf("Failed to get upcoming exams: %v", err)
		return response.InternalServerError(c, "Failed to get upcoming exams")
	}

	return response.Success(c, fiber.Map{
		"exams": exams,
		"count": len(exams),
	})
}

// ExamResultRequest is one candidate outcome in a results submission
type ExamResultRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	Passed    bool     `json:"passed"`
	NewBelt   string   `json:"new_belt" validate:"max=50"`
	Notes     string   `json:"notes" validate:"max=1000"`
	Score     *float64 `json:"score" validate:"omitempty,gte=0,lte=10"`
}

// RecordExamResultsRequest is the payload of PUT /graduation/exams/:id/results
type RecordExamResultsRequest struct {
	Results []ExamResultRequest `json:"results" validate:"required,min=1,dive"`
}

// RecordExamResults handles PUT /api/v1/graduation/exams/:id/results
func (h *GraduationHandler) RecordExamResults(c *fiber.Ctx) error {
	examID := c.Params("id")
	if examID == "" {
		return response.BadRequest(c, "Exam ID is required")
	}

	var req RecordExamResultsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	results := make([]model.ExamResult, 0, len(req.Results))
	for _, r := range req.Results {
		results = append(results, model.ExamResult{
			StudentID: r.StudentID,
			Passed:    r.Passed,
			NewBelt:   r.NewBelt,
			Notes:     r.Notes,
			Score:     r.Score,
		})
	}

	exam, err := h.graduation.RecordExamResults(c.Context(), examID, results)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "Exam not found")
		}
		var domainErr *services.DomainError
		if errors.As(err, &domainErr) && domainErr.Err == nil {
			// A terminal exam cannot accept results
			return response.Conflict(c, domainErr.Message)
		}
		log.Printf("Failed to record exam results: %v", err)
		return response.InternalServerError(c, "Failed to record exam results")
	}

	h.invalidateBoardCache(c)

	return response.SuccessWithMessage(c, "Exam results recorded", exam)
}

// CheckEligibilityRequest is the payload of POST /graduation/eligibility/check
type CheckEligibilityRequest struct {
	StudentID         string    `json:"student_id" validate:"required"`
	Name              string    `json:"name" validate:"required,min=2,max=255"`
	CurrentBelt       string    `json:"current_belt" validate:"required,min=2,max=50"`
	Modality          string    `json:"modality" validate:"required,min=2,max=50"`
	TrainingStartDate time.Time `json:"training_start_date" validate:"required"`
	TotalClasses      *int      `json:"total_classes" validate:"omitempty,gte=0"`
}

// CheckEligibility handles POST /api/v1/graduation/eligibility/check
// Evaluates one student on demand without touching stored alerts
func (h *GraduationHandler) CheckEligibility(c *fiber.Ctx) error {
	var req CheckEligibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	check := h.graduation.CheckStudentEligibility(model.Student{
		ID:                req.StudentID,
		Name:              req.Name,
		CurrentBelt:       req.CurrentBelt,
		Modality:          req.Modality,
		TrainingStartDate: req.TrainingStartDate,
		TotalClasses:      req.TotalClasses,
	})

	return response.Success(c, check)
}

// GetRules handles GET /api/v1/graduation/rules and /graduation/rules/:modality
func (h *GraduationHandler) GetRules(c *fiber.Ctx) error {
	modality := c.Params("modality")

	rules, err := h.graduation.GetGraduationRules(c.Context(), modality)
	if err != nil {
		log.Printf("Failed to get graduation rules: %v", err)
		return response.InternalServerError(c, "Failed to get graduation rules")
	}
	if modality != "" && len(rules) == 0 {
		return response.NotFound(c, "No rules defined for this modality")
	}

	return response.Success(c, fiber.Map{
		"rules": rules,
		"count": len(rules),
	})
}

func (h *GraduationHandler) invalidateBoardCache(c *fiber.Ctx) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(c.Context(), boardCacheKey); err != nil {
		log.Printf("Failed to invalidate board cache: %v", err)
	}
}

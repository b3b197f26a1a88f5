package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/middleware"
	"github.com/noah-isme/gema-projects/internal/models"
	"github.com/noah-isme/gema-projects/internal/service"
	"github.com/noah-isme/gema-projects/internal/utils"
)

// ProjectHandler serves the /project endpoints.
type ProjectHandler struct {
	service service.ProjectService
	logger  zerolog.Logger
}

// NewProjectHandler builds a project handler instance.
func NewProjectHandler(service service.ProjectService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		logger:  logger.With().Str("component", "project_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The group must
// already be behind JWTProtected.
func (h *ProjectHandler) Register(router fiber.Router) {
	instructor := middleware.RequireRole(models.RoleInstructor)

	router.Post("/submit", middleware.RequireRole(models.RoleLearner), h.submit)
	router.Get("/evaluation/:userId", h.learnerSubmissions)
	router.Get("/dashboard", instructor, h.dashboard)
	router.Get("/submissions", instructor, h.submissions)
	router.Post("/evaluate", instructor, h.evaluate)
}

func (h *ProjectHandler) submit(c *fiber.Ctx) error {
	input := service.SubmitInput{
		CourseID:   c.FormValue("courseId"),
		GithubLink: c.FormValue("githubLink"),
	}
	if file, err := c.FormFile("file"); err == nil {
		input.File = file
	}

	submission, err := h.service.Submit(c.UserContext(), actorFromContext(c), input)
	if err != nil {
		status, message := h.classify(c, err)
		return utils.SendErrorField(c, status, message)
	}
	return utils.SendJSON(c, fiber.StatusCreated, submission)
}

func (h *ProjectHandler) learnerSubmissions(c *fiber.Ctx) error {
	submissions, err := h.service.LearnerSubmissions(c.UserContext(), actorFromContext(c), c.Params("userId"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendJSON(c, fiber.StatusOK, submissions)
}

func (h *ProjectHandler) dashboard(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendJSON(c, fiber.StatusOK, stats)
}

func (h *ProjectHandler) submissions(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{
		CourseID: c.Query("courseId"),
		Status:   c.Query("status"),
	}

	submissions, err := h.service.Submissions(c.UserContext(), actorFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendJSON(c, fiber.StatusOK, submissions)
}

func (h *ProjectHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	submission, err := h.service.Evaluate(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendJSON(c, fiber.StatusOK, submission)
}

func (h *ProjectHandler) handleError(c *fiber.Ctx, err error) error {
	status, message := h.classify(c, err)
	return utils.SendError(c, status, message)
}

func (h *ProjectHandler) classify(c *fiber.Ctx, err error) (int, string) {
	switch {
	case dto.IsValidationError(err):
		return fiber.StatusBadRequest, dto.ValidationMessage(err)
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, "Insufficient permissions"
	case errors.Is(err, service.ErrCourseRequired):
		return fiber.StatusBadRequest, "Course is required"
	case errors.Is(err, service.ErrEmptySubmission):
		return fiber.StatusBadRequest, "Please provide a file or a GitHub link"
	case errors.Is(err, service.ErrCourseNotFound):
		return fiber.StatusNotFound, "Course not found"
	case errors.Is(err, service.ErrSubmissionNotFound):
		return fiber.StatusNotFound, "Submission not found"
	case errors.Is(err, service.ErrUploadTooLarge):
		return fiber.StatusRequestEntityTooLarge, "File is too large"
	case errors.Is(err, service.ErrUploadTypeNotAllowed):
		return fiber.StatusUnsupportedMediaType, "File type not allowed"
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("route", c.Path()).Msg("project request failed")
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

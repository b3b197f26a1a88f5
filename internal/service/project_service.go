package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/models"
	"github.com/noah-isme/gema-projects/internal/observability"
	"github.com/noah-isme/gema-projects/internal/repository"
)

const statsCacheKey = "gema:projects:dashboard"

var allowedUploadTypes = []string{
	"application/zip",
	"application/x-zip-compressed",
	"application/gzip",
	"application/x-tar",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
	"application/pdf",
	"text/plain",
}

// SubmitInput is a learner's multipart project upload.
type SubmitInput struct {
	CourseID   string
	GithubLink string
	File       *multipart.FileHeader
}

// ProjectService implements the project submission and evaluation endpoints.
type ProjectService interface {
	Submit(ctx context.Context, actor Actor, input SubmitInput) (dto.Submission, error)
	LearnerSubmissions(ctx context.Context, actor Actor, userID string) ([]dto.Submission, error)
	Submissions(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.Submission, error)
	Stats(ctx context.Context, actor Actor) (dto.DashboardStats, error)
	Evaluate(ctx context.Context, actor Actor, payload dto.EvaluationRequest) (dto.Submission, error)
}

// ProjectServiceConfig bundles the optional collaborators of the project service.
type ProjectServiceConfig struct {
	Uploader     FileUploader
	Cache        *redis.Client
	CacheTTL     time.Duration
	Publisher    EvaluationPublisher
	MaxUploadMB  int
	AllowedTypes []string
}

type projectService struct {
	projects  repository.ProjectRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	uploader  FileUploader
	cache     *redis.Client
	cacheTTL  time.Duration
	publisher EvaluationPublisher
	maxSize   int64
	allowed   []string
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewProjectService constructs the project service.
func NewProjectService(projects repository.ProjectRepository, courses repository.CourseRepository, validate *validator.Validate, cfg ProjectServiceConfig, logger zerolog.Logger) ProjectService {
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 20
	}
	allowed := cfg.AllowedTypes
	if len(allowed) == 0 {
		allowed = allowedUploadTypes
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &projectService{
		projects:  projects,
		courses:   courses,
		validator: validate,
		uploader:  cfg.Uploader,
		cache:     cfg.Cache,
		cacheTTL:  ttl,
		publisher: cfg.Publisher,
		maxSize:   int64(maxMB) * 1024 * 1024,
		allowed:   allowed,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "project_service").Logger(),
		tracer:    observability.Tracer("internal/service/project"),
		now:       time.Now,
	}
}

func (s *projectService) Submit(ctx context.Context, actor Actor, input SubmitInput) (dto.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "project.submit", trace.WithAttributes(
		attribute.String("course.id", input.CourseID),
		attribute.Bool("upload.has_file", input.File != nil),
	))
	defer span.End()

	if actor.Role != models.RoleLearner {
		return dto.Submission{}, ErrForbidden
	}

	courseID := strings.TrimSpace(input.CourseID)
	if courseID == "" {
		return dto.Submission{}, ErrCourseRequired
	}
	link := strings.TrimSpace(input.GithubLink)
	if link == "" && input.File == nil {
		return dto.Submission{}, ErrEmptySubmission
	}

	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.Submission{}, ErrCourseNotFound
		}
		return dto.Submission{}, err
	}

	fileURL := ""
	if input.File != nil {
		url, err := s.store(ctx, input.File)
		if err != nil {
			observability.Fail(span, err, "upload")
			return dto.Submission{}, err
		}
		fileURL = url
	}

	submission, err := s.projects.GetByLearnerAndCourse(ctx, actor.ID, courseID)
	resubmission := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.Submission{}, err
	}

	if !resubmission {
		submission = models.ProjectSubmission{UserID: actor.ID, CourseID: courseID}
	}
	submission.FileURL = fileURL
	submission.GithubLink = link
	submission.Status = models.ProjectStatusPending
	submission.SubmittedAt = s.now().UTC()
	submission.Rating = nil
	submission.Comment = ""
	submission.EvaluatedAt = nil
	submission.SetTags(nil)

	if resubmission {
		err = s.projects.Update(ctx, &submission)
	} else {
		err = s.projects.Create(ctx, &submission)
	}
	if err != nil {
		return dto.Submission{}, err
	}

	s.invalidateStats(ctx)
	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("user_id", actor.ID).
		Str("course_id", courseID).
		Bool("resubmission", resubmission).
		Msg("project submitted")

	return submissionResponse(submission, false), nil
}

func (s *projectService) store(ctx context.Context, header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return "", ErrUploadTooLarge
	}
	if s.uploader == nil {
		return "", fmt.Errorf("file uploads are not configured")
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	mime, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}
	if !mimeAllowed(mime, s.allowed) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		s.logger.Warn().Str("mime", mime.String()).Str("filename", header.Filename).Msg("upload type rejected")
		return "", fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, mime.String())
	}

	if _, err := file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}

	url, err := s.uploader.Upload(ctx, header.Filename, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return url, nil
}

func mimeAllowed(mime *mimetype.MIME, allowed []string) bool {
	for _, candidate := range allowed {
		if mime.Is(candidate) {
			return true
		}
	}
	return false
}

func (s *projectService) LearnerSubmissions(ctx context.Context, actor Actor, userID string) ([]dto.Submission, error) {
	userID = strings.TrimSpace(userID)
	if actor.Role != models.RoleInstructor && actor.ID != userID {
		return nil, ErrForbidden
	}

	submissions, err := s.projects.List(ctx, repository.ProjectFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	return submissionResponses(submissions, false), nil
}

func (s *projectService) Submissions(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.Submission, error) {
	if actor.Role != models.RoleInstructor {
		return nil, ErrForbidden
	}
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	values := filter.Values()
	submissions, err := s.projects.List(ctx, repository.ProjectFilter{
		CourseID: values.Get("courseId"),
		Status:   values.Get("status"),
	})
	if err != nil {
		return nil, err
	}
	return submissionResponses(submissions, true), nil
}

func (s *projectService) Stats(ctx context.Context, actor Actor) (dto.DashboardStats, error) {
	if actor.Role != models.RoleInstructor {
		return dto.DashboardStats{}, ErrForbidden
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats dto.DashboardStats
			if unmarshalErr := json.Unmarshal([]byte(cached), &stats); unmarshalErr == nil {
				s.logger.Debug().Msg("dashboard stats cache hit")
				return stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard stats cache")
		}
	}

	counts, err := s.projects.Counts(ctx)
	if err != nil {
		return dto.DashboardStats{}, err
	}
	stats := dto.DashboardStats{
		Total:     int(counts.Total),
		Pending:   int(counts.Pending),
		Evaluated: int(counts.Evaluated),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard stats cache")
			}
		}
	}
	return stats, nil
}

func (s *projectService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dashboard stats cache")
	}
}

func (s *projectService) Evaluate(ctx context.Context, actor Actor, payload dto.EvaluationRequest) (dto.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "project.evaluate", trace.WithAttributes(
		attribute.String("submission.id", payload.SubmissionID),
		attribute.Int("evaluation.rating", payload.Rating),
	))
	defer span.End()

	if actor.Role != models.RoleInstructor {
		return dto.Submission{}, ErrForbidden
	}

	payload.SubmissionID = strings.TrimSpace(payload.SubmissionID)
	payload.Tags = normalizeTags(payload.Tags)
	if err := s.validator.Struct(payload); err != nil {
		return dto.Submission{}, err
	}

	submission, err := s.projects.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.Submission{}, ErrSubmissionNotFound
		}
		return dto.Submission{}, err
	}

	rating := payload.Rating
	evaluatedAt := s.now().UTC()
	submission.Rating = &rating
	submission.Comment = strings.TrimSpace(s.sanitizer.Sanitize(payload.Comment))
	submission.SetTags(payload.Tags)
	submission.Status = models.ProjectStatusEvaluated
	submission.EvaluatedAt = &evaluatedAt

	if err := s.projects.Update(ctx, &submission); err != nil {
		observability.Fail(span, err, "persist")
		return dto.Submission{}, err
	}

	s.invalidateStats(ctx)
	observability.Evaluations().Inc()
	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("instructor_id", actor.ID).
		Int("rating", rating).
		Msg("submission evaluated")

	if s.publisher != nil {
		event := EvaluationEvent{
			SubmissionID: submission.ID,
			LearnerID:    submission.UserID,
			CourseID:     submission.CourseID,
			InstructorID: actor.ID,
			Rating:       rating,
			Tags:         submission.TagList(),
			EvaluatedAt:  evaluatedAt,
		}
		if err := s.publisher.PublishEvaluation(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to publish evaluation event")
		}
	}

	return submissionResponse(submission, true), nil
}

// normalizeTags trims tags and drops blanks and exact duplicates, keeping order.
func normalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func submissionResponses(submissions []models.ProjectSubmission, populated bool) []dto.Submission {
	response := make([]dto.Submission, 0, len(submissions))
	for _, submission := range submissions {
		response = append(response, submissionResponse(submission, populated))
	}
	return response
}

// submissionResponse maps a record to the wire shape. Learner endpoints send
// bare user and course ids; instructor endpoints populate both references.
func submissionResponse(submission models.ProjectSubmission, populated bool) dto.Submission {
	response := dto.Submission{
		ID:          submission.ID,
		User:        dto.Ref{ID: submission.UserID},
		Course:      dto.Ref{ID: submission.CourseID},
		FileURL:     submission.FileURL,
		GithubLink:  submission.GithubLink,
		Status:      dto.SubmissionStatus(submission.Status),
		SubmittedAt: submission.SubmittedAt,
	}

	if populated {
		if submission.User.ID != "" {
			response.User = dto.Ref{ID: submission.User.ID, Name: submission.User.Name, Email: submission.User.Email}
		}
		if submission.Course.ID != "" {
			response.Course = dto.Ref{ID: submission.Course.ID, Name: submission.Course.Name}
		}
	}

	if submission.IsEvaluated() && submission.Rating != nil {
		feedback := &dto.Feedback{
			Rating:  *submission.Rating,
			Tags:    submission.TagList(),
			Comment: submission.Comment,
		}
		if submission.EvaluatedAt != nil {
			feedback.EvaluatedAt = *submission.EvaluatedAt
		}
		response.Feedback = feedback
	}

	return response
}

package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/models"
	"github.com/noah-isme/gema-projects/internal/repository"
)

// CourseService exposes the read-only catalog.
type CourseService interface {
	List(ctx context.Context) ([]dto.Course, error)
}

type courseService struct {
	courses repository.CourseRepository
	logger  zerolog.Logger
}

// NewCourseService constructs the catalog service.
func NewCourseService(courses repository.CourseRepository, logger zerolog.Logger) CourseService {
	return &courseService{
		courses: courses,
		logger:  logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context) ([]dto.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]dto.Course, 0, len(courses))
	for _, course := range courses {
		response = append(response, courseResponse(course))
	}
	return response, nil
}

func courseResponse(course models.Course) dto.Course {
	return dto.Course{
		ID:          course.ID,
		Name:        course.Name,
		Description: course.Description,
		Version:     course.Version,
	}
}

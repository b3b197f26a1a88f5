package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-projects/internal/models"
)

// ProjectFilter narrows project submission queries. Empty fields match all.
type ProjectFilter struct {
	UserID   string
	CourseID string
	Status   string
}

// ProjectCounts is the number of submissions per status.
type ProjectCounts struct {
	Total     int64
	Pending   int64
	Evaluated int64
}

// ProjectRepository defines data operations for project submissions.
type ProjectRepository interface {
	List(ctx context.Context, filter ProjectFilter) ([]models.ProjectSubmission, error)
	GetByID(ctx context.Context, id string) (models.ProjectSubmission, error)
	GetByLearnerAndCourse(ctx context.Context, userID, courseID string) (models.ProjectSubmission, error)
	Create(ctx context.Context, submission *models.ProjectSubmission) error
	Update(ctx context.Context, submission *models.ProjectSubmission) error
	Counts(ctx context.Context) (ProjectCounts, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository instantiates the repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ProjectSubmission{}).
		Preload("User").
		Preload("Course")
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.ProjectSubmission, error) {
	query := r.baseQuery(ctx)

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CourseID != "" {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var submissions []models.ProjectSubmission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (models.ProjectSubmission, error) {
	var submission models.ProjectSubmission
	if err := r.baseQuery(ctx).Where("project_submissions.id = ?", id).First(&submission).Error; err != nil {
		return models.ProjectSubmission{}, err
	}
	return submission, nil
}

func (r *projectRepository) GetByLearnerAndCourse(ctx context.Context, userID, courseID string) (models.ProjectSubmission, error) {
	var submission models.ProjectSubmission
	if err := r.baseQuery(ctx).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		First(&submission).Error; err != nil {
		return models.ProjectSubmission{}, err
	}
	return submission, nil
}

func (r *projectRepository) Create(ctx context.Context, submission *models.ProjectSubmission) error {
	return r.db.WithContext(ctx).Omit("User", "Course").Create(submission).Error
}

func (r *projectRepository) Update(ctx context.Context, submission *models.ProjectSubmission) error {
	return r.db.WithContext(ctx).Omit("User", "Course").Save(submission).Error
}

func (r *projectRepository) Counts(ctx context.Context) (ProjectCounts, error) {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.ProjectSubmission{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return ProjectCounts{}, err
	}

	var counts ProjectCounts
	for _, item := range rows {
		counts.Total += item.Count
		switch item.Status {
		case models.ProjectStatusPending:
			counts.Pending = item.Count
		case models.ProjectStatusEvaluated:
			counts.Evaluated = item.Count
		}
	}
	return counts, nil
}

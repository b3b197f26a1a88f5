package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-projects/internal/models"
	"github.com/noah-isme/gema-projects/internal/repository"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "12345678"

// DemoAccount is a seeded login.
type DemoAccount struct {
	Name  string
	Email string
	Role  string
}

// DemoAccounts are created by Seed when missing.
var DemoAccounts = []DemoAccount{
	{Name: "Learner One", Email: "learner1@gmail.com", Role: models.RoleLearner},
	{Name: "Instructor One", Email: "instructor1@gmail.com", Role: models.RoleInstructor},
}

// DemoCourses are created by Seed when the catalog is empty.
var DemoCourses = []models.Course{
	{Name: "Go Fundamentals", Description: "Build a command line tool that parses and summarises a CSV file."},
	{Name: "Web Services", Description: "Ship a small REST API with persistence and tests."},
	{Name: "Frontend Basics", Description: "Create a responsive landing page from a design mockup."},
}

// SeedService fills an empty collaborator database with demo data.
type SeedService interface {
	Seed(ctx context.Context) error
}

type seedService struct {
	users   repository.UserRepository
	courses repository.CourseRepository
	logger  zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, courses repository.CourseRepository, logger zerolog.Logger) SeedService {
	return &seedService{
		users:   users,
		courses: courses,
		logger:  logger.With().Str("component", "seed_service").Logger(),
	}
}

// Seed is idempotent: existing accounts and a non-empty catalog are left alone.
func (s *seedService) Seed(ctx context.Context) error {
	for _, account := range DemoAccounts {
		if _, err := s.users.GetByEmail(ctx, account.Email); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := HashPassword(DemoPassword)
		if err != nil {
			return err
		}
		user := models.User{Name: account.Name, Email: account.Email, PasswordHash: hash, Role: account.Role}
		if err := s.users.Create(ctx, &user); err != nil {
			return err
		}
		s.logger.Info().Str("email", account.Email).Str("role", account.Role).Msg("demo account seeded")
	}

	count, err := s.courses.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, template := range DemoCourses {
		course := template
		if err := s.courses.Create(ctx, &course); err != nil {
			return err
		}
	}
	s.logger.Info().Int("courses", len(DemoCourses)).Msg("demo courses seeded")
	return nil
}

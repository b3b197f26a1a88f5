package app_test

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/app"
	"github.com/noah-isme/gema-projects/internal/config"
	"github.com/noah-isme/gema-projects/internal/database"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/handler"
	"github.com/noah-isme/gema-projects/internal/middleware"
	"github.com/noah-isme/gema-projects/internal/repository"
	"github.com/noah-isme/gema-projects/internal/router"
	"github.com/noah-isme/gema-projects/internal/service"
)

const e2eSecret = "e2e-secret"

// startCollaborator serves a seeded collaborator on a loopback port and
// returns its API base URL.
func startCollaborator(t *testing.T) string {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := dto.NewValidator()
	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	projects := repository.NewProjectRepository(db)
	require.NoError(t, service.NewSeedService(users, courses, logger).Seed(context.Background()))

	uploader, err := service.NewLocalUploader(t.TempDir(), "/uploads", logger)
	require.NoError(t, err)

	server := fiber.New(fiber.Config{DisableStartupMessage: true})
	middleware.Register(server, middleware.Config{Logger: &logger})
	router.Register(server, config.Config{AppName: "E2E"}, router.Dependencies{
		AuthHandler:   handler.NewAuthHandler(service.NewAuthService(users, validate, e2eSecret, time.Hour, logger), logger),
		CourseHandler: handler.NewCourseHandler(service.NewCourseService(courses, logger), logger),
		ProjectHandler: handler.NewProjectHandler(service.NewProjectService(projects, courses, validate, service.ProjectServiceConfig{
			Uploader: uploader,
		}, logger), logger),
		JWTMiddleware: middleware.JWTProtected(e2eSecret),
		UploadDir:     uploader.Dir(),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Listener(ln) }()
	t.Cleanup(func() { _ = server.Shutdown() })

	return "http://" + ln.Addr().String() + "/api"
}

func newClientApp(t *testing.T, baseURL string) *app.App {
	t.Helper()
	cfg := config.Config{
		APIBaseURL:    baseURL,
		UploadBaseURL: strings.TrimSuffix(baseURL, "/api"),
		HTTPTimeout:   5 * time.Second,
		DiscardStale:  true,
		Storage:       config.StorageConfig{Driver: config.StorageMemory},
	}
	a, err := app.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	a.Start(context.Background())
	require.Equal(t, app.ViewLanding, a.View())
	return a
}

func TestSubmitAndEvaluateAgainstCollaborator(t *testing.T) {
	ctx := context.Background()
	baseURL := startCollaborator(t)

	learner := newClientApp(t, baseURL)
	require.NoError(t, learner.Session.Login(ctx, "learner1@gmail.com", service.DemoPassword))
	require.Equal(t, app.ViewLearnerDashboard, learner.View())

	require.NoError(t, learner.LoadDashboard(ctx))
	catalog := learner.Catalog.State().Courses
	require.Len(t, catalog, len(service.DemoCourses))
	require.Empty(t, learner.Submissions.State().Submissions)

	courseID := catalog[0].ID
	draft := learner.Submit.Open(courseID)
	require.False(t, draft.Resubmission)
	draft.GithubLink = "https://github.com/learner1/project"
	require.True(t, draft.RequestConfirmation())

	ok, err := learner.Submit.Submit(ctx, draft)
	require.NoError(t, err)
	require.True(t, ok)

	own, found := learner.Submissions.ForCourse(courseID)
	require.True(t, found)
	require.Equal(t, dto.SubmissionStatusPending, own.Status)
	require.True(t, learner.Submit.Open(courseID).Resubmission)

	instructor := newClientApp(t, baseURL)
	require.NoError(t, instructor.Session.Login(ctx, "instructor1@gmail.com", service.DemoPassword))
	require.Equal(t, app.ViewInstructorDashboard, instructor.View())

	require.NoError(t, instructor.LoadDashboard(ctx))
	board := instructor.Board.State()
	require.Equal(t, dto.DashboardStats{Total: 1, Pending: 1}, board.Stats)
	require.Len(t, board.Submissions, 1)
	require.Equal(t, "Learner One", board.Submissions[0].User.Name)
	require.Equal(t, catalog[0].Name, instructor.Board.CourseName(courseID))

	pending, found := instructor.Board.Find(own.ID)
	require.True(t, found)

	evaluation := instructor.Evaluate.Open(pending)
	evaluation.Rating = 9
	evaluation.Comment = "Clear structure"
	require.True(t, evaluation.AddTag("readable"))
	require.NoError(t, instructor.Evaluate.Evaluate(ctx, evaluation))

	evaluated, found := instructor.Board.Find(own.ID)
	require.True(t, found)
	require.True(t, evaluated.IsEvaluated())
	require.Equal(t, dto.DashboardStats{Total: 1, Pending: 1}, instructor.Board.State().Stats, "refresh keeps the loaded stats")

	require.NoError(t, instructor.Board.Load(ctx))
	require.Equal(t, dto.DashboardStats{Total: 1, Evaluated: 1}, instructor.Board.State().Stats)

	require.NoError(t, instructor.Board.SetStatusFilter(ctx, string(dto.SubmissionStatusPending)))
	require.Empty(t, instructor.Board.State().Submissions)

	require.NoError(t, learner.Submissions.Fetch(ctx, learner.Session.State().User.ID))
	own, found = learner.Submissions.ForCourse(courseID)
	require.True(t, found)
	require.NotNil(t, own.Feedback)
	require.Equal(t, 9, own.Feedback.Rating)
	require.Equal(t, []string{"readable"}, own.Feedback.Tags)

	learner.Logout(ctx)
	require.Equal(t, app.ViewLanding, learner.View())
	require.Empty(t, learner.Submissions.State().Submissions)
}

func TestLoginRejectedByCollaborator(t *testing.T) {
	ctx := context.Background()
	a := newClientApp(t, startCollaborator(t))

	err := a.Session.Login(ctx, "learner1@gmail.com", "wrong-password")
	require.Error(t, err)
	require.Equal(t, "Invalid credentials", api.Message(err, ""))
	require.Equal(t, app.ViewLanding, a.View())
	require.Empty(t, a.Notifier.List())
}

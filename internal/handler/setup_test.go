package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-projects/internal/config"
	"github.com/noah-isme/gema-projects/internal/database"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/handler"
	"github.com/noah-isme/gema-projects/internal/middleware"
	"github.com/noah-isme/gema-projects/internal/models"
	"github.com/noah-isme/gema-projects/internal/repository"
	"github.com/noah-isme/gema-projects/internal/router"
	"github.com/noah-isme/gema-projects/internal/service"
)

const testSecret = "secret"

type testUploader struct{}

func (testUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "/uploads/" + name, nil
}

type collaborator struct {
	app     *fiber.App
	db      *gorm.DB
	courses []models.Course
}

func setupCollaborator(t *testing.T) *collaborator {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.New(io.Discard)
	validate := dto.NewValidator()
	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	projects := repository.NewProjectRepository(db)

	require.NoError(t, service.NewSeedService(users, courses, logger).Seed(context.Background()))

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		AuthHandler:   handler.NewAuthHandler(service.NewAuthService(users, validate, testSecret, time.Hour, logger), logger),
		CourseHandler: handler.NewCourseHandler(service.NewCourseService(courses, logger), logger),
		ProjectHandler: handler.NewProjectHandler(service.NewProjectService(projects, courses, validate, service.ProjectServiceConfig{
			Uploader: testUploader{},
		}, logger), logger),
		JWTMiddleware: middleware.JWTProtected(testSecret),
	})

	list, err := courses.List(context.Background())
	require.NoError(t, err)
	return &collaborator{app: app, db: db, courses: list}
}

func (c *collaborator) login(t *testing.T, email string) dto.AuthResponse {
	t.Helper()
	resp := c.do(t, http.MethodPost, "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Email: email, Password: service.DemoPassword}), fiber.MIMEApplicationJSON)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var auth dto.AuthResponse
	decodeResponse(t, resp, &auth)
	return auth
}

func (c *collaborator) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

type formFile struct {
	name    string
	content []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (io.Reader, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if file != nil {
		part, err := writer.CreateFormFile("file", file.name)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target), string(data))
}

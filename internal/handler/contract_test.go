package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-projects/internal/dto"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + path)
	require.NoError(t, err)
	return schema
}

func validateBody(t *testing.T, schema *jsonschema.Schema, resp *http.Response) interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload), string(body))
	return payload
}

func TestCollaboratorContracts(t *testing.T) {
	c := setupCollaborator(t)

	resp := c.do(t, http.MethodPost, "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Email: "learner1@gmail.com", Password: "12345678"}), fiber.MIMEApplicationJSON)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateBody(t, compileSchema(t, "auth_response.schema.json"), resp)

	learner := c.login(t, "learner1@gmail.com")
	instructor := c.login(t, "instructor1@gmail.com")

	resp = c.do(t, http.MethodGet, "/api/course", learner.Token, nil, "")
	validateBody(t, compileSchema(t, "course_list.schema.json"), resp)

	body, contentType := multipartBody(t, map[string]string{"courseId": c.courses[0].ID, "githubLink": "https://github.com/u1/proj"}, nil)
	resp = c.do(t, http.MethodPost, "/api/project/submit", learner.Token, body, contentType)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created dto.Submission
	decodeResponse(t, resp, &created)

	list := compileSchema(t, "submission_list.schema.json")

	resp = c.do(t, http.MethodGet, "/api/project/evaluation/"+learner.User.ID, learner.Token, nil, "")
	bare := validateBody(t, list, resp).([]interface{})
	require.Len(t, bare, 1)
	require.IsType(t, "", bare[0].(map[string]interface{})["userId"])

	evaluation := dto.EvaluationRequest{SubmissionID: created.ID, Rating: 8, Comment: "Good", Tags: []string{"tidy"}}
	resp = c.do(t, http.MethodPost, "/api/project/evaluate", instructor.Token, jsonBody(t, evaluation), fiber.MIMEApplicationJSON)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = c.do(t, http.MethodGet, "/api/project/submissions", instructor.Token, nil, "")
	populated := validateBody(t, list, resp).([]interface{})
	require.Len(t, populated, 1)
	entry := populated[0].(map[string]interface{})
	require.IsType(t, map[string]interface{}{}, entry["userId"])
	require.IsType(t, map[string]interface{}{}, entry["courseId"])
	require.Contains(t, entry, "feedback")

	resp = c.do(t, http.MethodGet, "/api/project/dashboard", instructor.Token, nil, "")
	validateBody(t, compileSchema(t, "dashboard_stats.schema.json"), resp)
}

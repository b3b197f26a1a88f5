package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/dto"
)

func TestPresentError(t *testing.T) {
	validate := dto.NewValidator()
	err := validate.Struct(dto.LoginRequest{Email: "a@b.c"})
	require.Equal(t, "Password is required", presentError(err))

	wrapped := fmt.Errorf("login: %w", &api.NetworkError{Op: "login", Err: errors.New("refused")})
	require.Equal(t, api.NetworkErrorMessage, presentError(wrapped))

	require.Equal(t, "boom", presentError(errors.New("boom")))
}

func TestPrintSubmissionsResolvesNamesAndLinks(t *testing.T) {
	submitted := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	submissions := []dto.Submission{
		{
			ID:          "s1",
			User:        dto.Ref{ID: "u1", Name: "Jane"},
			Course:      dto.Ref{ID: "c1"},
			FileURL:     "/uploads/project.zip",
			Status:      dto.SubmissionStatusPending,
			SubmittedAt: submitted,
		},
		{
			ID:         "s2",
			User:       dto.Ref{ID: "u2"},
			Course:     dto.Ref{ID: "c9", Name: "Go"},
			GithubLink: "https://github.com/u2/repo",
			Status:     dto.SubmissionStatusEvaluated,
			Feedback:   &dto.Feedback{Rating: 8},
		},
	}

	var out bytes.Buffer
	courseName := func(id string) string { return "Course " + id }
	require.NoError(t, printSubmissions(&out, submissions, courseName, "http://localhost:5000"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "Jane")
	require.Contains(t, lines[1], "Course c1")
	require.Contains(t, lines[1], "http://localhost:5000/uploads/project.zip")
	require.Contains(t, lines[2], "u2")
	require.Contains(t, lines[2], "Go")
	require.Contains(t, lines[2], "evaluated (8/10)")
	require.Contains(t, lines[2], "https://github.com/u2/repo")
	require.Contains(t, strings.Fields(lines[2]), "-", "missing date renders as a dash")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestPrintSuggestedTags(t *testing.T) {
	var out bytes.Buffer
	printSuggestedTags(&out, []string{"CSS", "API Integration"})
	require.Equal(t, "Suggested tags: CSS, API Integration\n", out.String())

	out.Reset()
	printSuggestedTags(&out, nil)
	require.Equal(t, "Every suggested tag is already applied.\n", out.String())
}

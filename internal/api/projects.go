package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/noah-isme/gema-projects/internal/dto"
)

// Courses lists the full course catalog.
func (c *Client) Courses(ctx context.Context) ([]dto.Course, error) {
	var out []dto.Course
	err := c.do(ctx, call{
		op:            "courses",
		method:        http.MethodGet,
		path:          PathCourses,
		contentType:   "application/json",
		authenticated: true,
		fallback:      "Failed to fetch courses",
		statusSuffix:  true,
	}, &out)
	if out == nil && err == nil {
		out = []dto.Course{}
	}
	return out, err
}

// UserSubmissions lists every submission owned by userID.
func (c *Client) UserSubmissions(ctx context.Context, userID string) ([]dto.Submission, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	var out []dto.Submission
	err := c.do(ctx, call{
		op:            "user_submissions",
		method:        http.MethodGet,
		path:          PathProjectEvaluation + "/" + url.PathEscape(userID),
		contentType:   "application/json",
		authenticated: true,
		fallback:      "Failed to fetch submissions",
		statusSuffix:  true,
	}, &out)
	if out == nil && err == nil {
		out = []dto.Submission{}
	}
	return out, err
}

// DashboardStats fetches the aggregate submission counts.
func (c *Client) DashboardStats(ctx context.Context) (dto.DashboardStats, error) {
	var out dto.DashboardStats
	err := c.do(ctx, call{
		op:            "dashboard_stats",
		method:        http.MethodGet,
		path:          PathProjectDashboard,
		contentType:   "application/json",
		authenticated: true,
		fallback:      "Failed to fetch dashboard stats",
		statusSuffix:  true,
	}, &out)
	return out, err
}

// Submissions lists all submissions matching filter.
func (c *Client) Submissions(ctx context.Context, filter dto.SubmissionFilter) ([]dto.Submission, error) {
	var out []dto.Submission
	err := c.do(ctx, call{
		op:            "submissions",
		method:        http.MethodGet,
		path:          PathProjectList,
		query:         filter.Values(),
		contentType:   "application/json",
		authenticated: true,
		fallback:      "Failed to fetch submissions",
		statusSuffix:  true,
	}, &out)
	if out == nil && err == nil {
		out = []dto.Submission{}
	}
	return out, err
}

// Evaluate stores the rating, comment and tags for one submission.
func (c *Client) Evaluate(ctx context.Context, payload dto.EvaluationRequest) (dto.Submission, error) {
	if payload.Tags == nil {
		payload.Tags = []string{}
	}
	body, err := jsonBody(payload)
	if err != nil {
		return dto.Submission{}, err
	}

	var out dto.Submission
	err = c.do(ctx, call{
		op:            "evaluate",
		method:        http.MethodPost,
		path:          PathProjectEvaluate,
		body:          body,
		contentType:   "application/json",
		authenticated: true,
		fallback:      "Failed to evaluate submission",
		statusSuffix:  true,
	}, &out)
	return out, err
}

// SubmitProject uploads a file and/or repository link for one course. The
// multipart content type is left to the writer so the boundary is set.
func (c *Client) SubmitProject(ctx context.Context, upload dto.ProjectUpload) (dto.Submission, error) {
	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return dto.Submission{}, err
	}

	var out dto.Submission
	err = c.do(ctx, call{
		op:            "submit_project",
		method:        http.MethodPost,
		path:          PathProjectSubmit,
		body:          body,
		contentType:   contentType,
		authenticated: true,
		fallback:      "Submission failed",
		lenient:       true,
		errorFirst:    true,
	}, &out)
	return out, err
}

func encodeUpload(upload dto.ProjectUpload) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	if err := writer.WriteField("courseId", upload.CourseID); err != nil {
		return nil, "", err
	}

	if link := strings.TrimSpace(upload.GithubLink); link != "" {
		if err := writer.WriteField("githubLink", link); err != nil {
			return nil, "", err
		}
	}

	if upload.File != nil {
		name := filepath.Base(upload.File.Name)
		if name == "." || name == string(filepath.Separator) || name == "" {
			name = "upload"
		}
		part, err := writer.CreateFormFile("file", name)
		if err != nil {
			return nil, "", err
		}
		if upload.File.Content != nil {
			// The attachment is shared with the draft, so a retry resends the whole file.
			if err := upload.File.Replayable(); err != nil {
				return nil, "", fmt.Errorf("prepare upload: %w", err)
			}
			if _, err := io.Copy(part, upload.File.Content); err != nil {
				return nil, "", fmt.Errorf("read upload: %w", err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf, writer.FormDataContentType(), nil
}

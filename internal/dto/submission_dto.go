package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

// SubmissionStatus tracks whether an instructor has evaluated a submission.
type SubmissionStatus string

const (
	// SubmissionStatusPending marks a submission awaiting evaluation.
	SubmissionStatusPending SubmissionStatus = "pending"
	// SubmissionStatusEvaluated marks a submission carrying feedback.
	SubmissionStatusEvaluated SubmissionStatus = "evaluated"
)

// FilterAll is the filter value meaning "no filter".
const FilterAll = "all"

// Ref points at a user or course. The collaborator sends either the bare id
// or a populated object, depending on the endpoint.
type Ref struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON accepts both `"id"` and `{"_id": "id", ...}`.
func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = Ref{}
		return nil
	}

	if trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}

	type plain Ref
	var decoded plain
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	*r = Ref(decoded)
	return nil
}

// MarshalJSON writes the bare id unless the reference is populated.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Name == "" && r.Email == "" {
		return json.Marshal(r.ID)
	}
	type plain Ref
	return json.Marshal(plain(r))
}

// Feedback is the instructor-authored evaluation attached to one submission.
type Feedback struct {
	Rating      int       `json:"rating"`
	Tags        []string  `json:"tags"`
	Comment     string    `json:"comment"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Submission is a learner's project for one course.
type Submission struct {
	ID          string           `json:"_id"`
	User        Ref              `json:"userId"`
	Course      Ref              `json:"courseId"`
	FileURL     string           `json:"fileUrl,omitempty"`
	GithubLink  string           `json:"githubLink,omitempty"`
	Status      SubmissionStatus `json:"status"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Feedback    *Feedback        `json:"feedback,omitempty"`
}

// IsEvaluated reports whether the submission carries feedback from an instructor.
func (s Submission) IsEvaluated() bool {
	return s.Status == SubmissionStatusEvaluated
}

// FileLink resolves the uploaded file against the upload host when the
// collaborator returned a relative path.
func (s Submission) FileLink(uploadBaseURL string) string {
	if s.FileURL == "" {
		return ""
	}
	if strings.HasPrefix(s.FileURL, "http://") || strings.HasPrefix(s.FileURL, "https://") {
		return s.FileURL
	}
	base := strings.TrimRight(uploadBaseURL, "/")
	if base == "" {
		return s.FileURL
	}
	return base + "/" + strings.TrimLeft(s.FileURL, "/")
}

// SubmissionFilter narrows the instructor's submission list.
type SubmissionFilter struct {
	CourseID string `query:"courseId"`
	Status   string `query:"status" validate:"omitempty,oneof=all pending evaluated"`
}

// Values encodes the filter as query parameters. Empty and "all" values are
// omitted instead of sent literally.
func (f SubmissionFilter) Values() url.Values {
	values := url.Values{}
	if id := strings.TrimSpace(f.CourseID); id != "" && id != FilterAll {
		values.Set("courseId", id)
	}
	if status := strings.TrimSpace(f.Status); status != "" && status != FilterAll {
		values.Set("status", status)
	}
	return values
}

// EvaluationRequest is the body of POST /project/evaluate.
type EvaluationRequest struct {
	SubmissionID string   `json:"submissionId" validate:"required"`
	Rating       int      `json:"rating" validate:"min=1,max=10"`
	Comment      string   `json:"comment"`
	Tags         []string `json:"tags" validate:"unique,dive,required"`
}

// FileAttachment is a file picked for upload.
type FileAttachment struct {
	Name    string
	Content io.Reader
}

// Replayable makes Content readable again from the start on every send. A
// seekable reader is rewound; anything else is read once into memory and
// replaced by a bytes.Reader.
func (f *FileAttachment) Replayable() error {
	if f == nil || f.Content == nil {
		return nil
	}
	if seeker, ok := f.Content.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind %s: %w", f.Name, err)
		}
		return nil
	}
	data, err := io.ReadAll(f.Content)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	f.Content = bytes.NewReader(data)
	return nil
}

// ProjectUpload is the multipart body of POST /project/submit.
type ProjectUpload struct {
	CourseID   string
	GithubLink string
	File       *FileAttachment
}

// HasContent reports whether at least one of file or repository link is set.
func (p ProjectUpload) HasContent() bool {
	return p.File != nil || strings.TrimSpace(p.GithubLink) != ""
}

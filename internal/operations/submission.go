// Package operations holds the two user-initiated write flows: a learner
// submitting a project and an instructor evaluating one.
package operations

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/notify"
	"github.com/noah-isme/gema-projects/internal/observability"
	"github.com/noah-isme/gema-projects/internal/store"
)

// ProjectClient uploads a learner's project.
type ProjectClient interface {
	SubmitProject(ctx context.Context, upload dto.ProjectUpload) (dto.Submission, error)
}

// Identity exposes the signed-in user.
type Identity interface {
	State() store.SessionState
}

// LearnerSubmissions is the learner's cached submission list.
type LearnerSubmissions interface {
	Fetch(ctx context.Context, userID string) error
	ForCourse(courseID string) (dto.Submission, bool)
}

// ProjectDraft is the in-progress submission form for one course.
type ProjectDraft struct {
	CourseID     string
	GithubLink   string
	File         *dto.FileAttachment
	Resubmission bool
	Confirming   bool
	Open         bool
	Submitting   bool
	Succeeded    bool
	Error        string
}

// Upload builds the request body from the draft.
func (d *ProjectDraft) Upload() dto.ProjectUpload {
	return dto.ProjectUpload{
		CourseID:   d.CourseID,
		GithubLink: strings.TrimSpace(d.GithubLink),
		File:       d.File,
	}
}

// Ready reports whether the draft has a file or a non-blank repository link.
func (d *ProjectDraft) Ready() bool {
	return d.Upload().HasContent()
}

// RequestConfirmation moves a ready draft to the confirmation step. It
// reports false, and changes nothing, when there is nothing to submit.
func (d *ProjectDraft) RequestConfirmation() bool {
	if !d.Ready() {
		return false
	}
	d.Confirming = true
	return true
}

// CancelConfirmation returns to editing without losing inputs.
func (d *ProjectDraft) CancelConfirmation() {
	d.Confirming = false
}

// Reset clears the inputs and the confirmation step.
func (d *ProjectDraft) Reset() {
	d.GithubLink = ""
	d.File = nil
	d.Confirming = false
}

// SubmissionService sends learner projects to the collaborator.
type SubmissionService struct {
	client      ProjectClient
	identity    Identity
	submissions LearnerSubmissions
	notifier    notify.Notifier
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionService constructs the learner submission flow. notifier may be nil.
func NewSubmissionService(client ProjectClient, identity Identity, submissions LearnerSubmissions, notifier notify.Notifier, logger zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		client:      client,
		identity:    identity,
		submissions: submissions,
		notifier:    notifier,
		logger:      logger.With().Str("component", "submission_operation").Logger(),
		tracer:      observability.Tracer("internal/operations/submission"),
	}
}

// Open starts a draft for courseID, flagged as a resubmission when the
// learner already has a submission for that course.
func (s *SubmissionService) Open(courseID string) *ProjectDraft {
	draft := &ProjectDraft{CourseID: strings.TrimSpace(courseID), Open: true}
	if s.submissions != nil {
		_, draft.Resubmission = s.submissions.ForCourse(draft.CourseID)
	}
	return draft
}

// Submit uploads the draft. It does nothing and reports false when the draft
// is empty, has no course or no learner is signed in. On failure the draft
// keeps its inputs and carries the message; the error is also returned.
func (s *SubmissionService) Submit(ctx context.Context, draft *ProjectDraft) (bool, error) {
	if draft == nil || draft.CourseID == "" || !draft.Ready() {
		return false, nil
	}

	session := s.identity.State()
	if session.User == nil || session.User.ID == "" {
		s.logger.Debug().Str("course_id", draft.CourseID).Msg("ignoring submission without a signed-in learner")
		return false, nil
	}
	userID := session.User.ID

	ctx, span := s.tracer.Start(ctx, "operations.submit", trace.WithAttributes(
		attribute.String("course.id", draft.CourseID),
		attribute.Bool("submission.has_file", draft.File != nil),
		attribute.Bool("submission.resubmission", draft.Resubmission),
	))
	defer span.End()

	draft.Submitting = true
	draft.Error = ""
	draft.Succeeded = false

	_, err := s.client.SubmitProject(ctx, draft.Upload())
	draft.Submitting = false
	if err != nil {
		observability.Fail(span, err, "submit")
		s.logger.Warn().Err(err).Str("course_id", draft.CourseID).Msg("project submission failed")
		draft.Error = api.Message(err, "Submission failed")
		return false, err
	}

	draft.Succeeded = true
	draft.Reset()
	draft.Open = false

	s.logger.Info().Str("course_id", draft.CourseID).Str("user_id", userID).Msg("project submitted")
	if s.notifier != nil {
		s.notifier.Success("Project submitted")
	}

	if s.submissions != nil {
		if err := s.submissions.Fetch(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to refresh submissions after submit")
		}
	}

	return true, nil
}

package operations

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/notify"
	"github.com/noah-isme/gema-projects/internal/observability"
)

// DefaultRating pre-fills a draft for a submission with no feedback yet.
const DefaultRating = 7

// ErrNoDraft is returned when Evaluate is called without a draft.
var ErrNoDraft = errors.New("operations: no evaluation draft")

// suggestedTags are offered as one-step additions while evaluating.
var suggestedTags = []string{
	"React",
	"JavaScript",
	"CSS",
	"HTML",
	"Redux",
	"Node.js",
	"API Integration",
	"Responsive Design",
}

// EvaluationClient stores an instructor's evaluation.
type EvaluationClient interface {
	Evaluate(ctx context.Context, payload dto.EvaluationRequest) (dto.Submission, error)
}

// BoardRefresher refetches the instructor's filtered submissions.
type BoardRefresher interface {
	Refresh(ctx context.Context) error
}

// EvaluationDraft is the in-progress evaluation form for one submission.
type EvaluationDraft struct {
	SubmissionID string
	Rating       int
	Comment      string
	Tags         []string
	Reevaluation bool
	Open         bool
	Submitting   bool
	Error        string
}

// AddTag appends the trimmed tag. Blank and already present tags are
// ignored; comparison is case-sensitive.
func (d *EvaluationDraft) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, existing := range d.Tags {
		if existing == tag {
			return false
		}
	}
	d.Tags = append(d.Tags, tag)
	return true
}

// RemoveTag drops tag if present.
func (d *EvaluationDraft) RemoveTag(tag string) {
	kept := d.Tags[:0]
	for _, existing := range d.Tags {
		if existing != tag {
			kept = append(kept, existing)
		}
	}
	d.Tags = kept
}

// SuggestedTags lists the preset tags not yet on the draft, in preset order.
func (d *EvaluationDraft) SuggestedTags() []string {
	out := make([]string, 0, len(suggestedTags))
	for _, tag := range suggestedTags {
		if !slices.Contains(d.Tags, tag) {
			out = append(out, tag)
		}
	}
	return out
}

// Request builds the request body from the draft.
func (d *EvaluationDraft) Request() dto.EvaluationRequest {
	tags := make([]string, len(d.Tags))
	copy(tags, d.Tags)
	return dto.EvaluationRequest{
		SubmissionID: d.SubmissionID,
		Rating:       d.Rating,
		Comment:      strings.TrimSpace(d.Comment),
		Tags:         tags,
	}
}

// EvaluationService sends instructor evaluations to the collaborator.
type EvaluationService struct {
	client    EvaluationClient
	board     BoardRefresher
	notifier  notify.Notifier
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewEvaluationService constructs the evaluation flow. board and notifier may be nil.
func NewEvaluationService(client EvaluationClient, board BoardRefresher, notifier notify.Notifier, validate *validator.Validate, logger zerolog.Logger) *EvaluationService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &EvaluationService{
		client:    client,
		board:     board,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "evaluation_operation").Logger(),
		tracer:    observability.Tracer("internal/operations/evaluation"),
	}
}

// Open starts a draft for submission, pre-filled with its existing feedback
// or with the defaults.
func (s *EvaluationService) Open(submission dto.Submission) *EvaluationDraft {
	draft := &EvaluationDraft{
		SubmissionID: submission.ID,
		Rating:       DefaultRating,
		Tags:         []string{},
		Open:         true,
	}
	if fb := submission.Feedback; fb != nil {
		draft.Reevaluation = true
		draft.Rating = fb.Rating
		draft.Comment = fb.Comment
		for _, tag := range fb.Tags {
			draft.AddTag(tag)
		}
	}
	return draft
}

// Evaluate validates and sends the draft. Invalid drafts are rejected before
// any request. On failure the draft keeps every edit so it can be retried.
func (s *EvaluationService) Evaluate(ctx context.Context, draft *EvaluationDraft) error {
	if draft == nil {
		return ErrNoDraft
	}
	payload := draft.Request()
	if err := s.validator.Struct(payload); err != nil {
		draft.Error = dto.ValidationMessage(err)
		return err
	}

	ctx, span := s.tracer.Start(ctx, "operations.evaluate", trace.WithAttributes(
		attribute.String("submission.id", payload.SubmissionID),
		attribute.Int("evaluation.rating", payload.Rating),
		attribute.Int("evaluation.tags", len(payload.Tags)),
	))
	defer span.End()

	draft.Submitting = true
	draft.Error = ""

	_, err := s.client.Evaluate(ctx, payload)
	draft.Submitting = false
	if err != nil {
		observability.Fail(span, err, "evaluate")
		s.logger.Warn().Err(err).Str("submission_id", payload.SubmissionID).Msg("evaluation failed")
		draft.Error = api.Message(err, "Evaluation failed. Please try again.")
		if s.notifier != nil {
			s.notifier.Alert(draft.Error)
		}
		return err
	}

	draft.Open = false
	s.logger.Info().Str("submission_id", payload.SubmissionID).Int("rating", payload.Rating).Msg("submission evaluated")

	if s.board != nil {
		if err := s.board.Refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to refresh submissions after evaluation")
		}
	}
	if s.notifier != nil {
		s.notifier.Success("Evaluation saved")
	}
	return nil
}

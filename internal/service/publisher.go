package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EvaluationEvent is broadcast after an instructor evaluates a submission.
type EvaluationEvent struct {
	SubmissionID string    `json:"submission_id"`
	LearnerID    string    `json:"learner_id"`
	CourseID     string    `json:"course_id"`
	InstructorID string    `json:"instructor_id"`
	Rating       int       `json:"rating"`
	Tags         []string  `json:"tags"`
	EvaluatedAt  time.Time `json:"evaluated_at"`
}

// EvaluationPublisher fans evaluation events out to other services.
type EvaluationPublisher interface {
	PublishEvaluation(ctx context.Context, event EvaluationEvent) error
}

// NATSPublisher publishes evaluation events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "nats_publisher").Logger(),
	}
}

// PublishEvaluation encodes event as JSON and publishes it.
func (p *NATSPublisher) PublishEvaluation(_ context.Context, event EvaluationEvent) error {
	if p == nil || p.conn == nil || p.subject == "" {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode evaluation event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish evaluation event: %w", err)
	}

	p.logger.Debug().Str("subject", p.subject).Str("submission_id", event.SubmissionID).Msg("evaluation event published")
	return nil
}

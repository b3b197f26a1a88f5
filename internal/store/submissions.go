package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/observability"
)

// ErrNoUser is returned when an operation needs a signed-in user id.
var ErrNoUser = errors.New("store: no user to fetch submissions for")

// SubmissionsState is a snapshot of the learner's own submissions.
type SubmissionsState struct {
	UserID      string
	Submissions []dto.Submission
	Loading     bool
	Error       string
}

// Submissions caches the submissions owned by one learner.
type Submissions struct {
	mu        sync.RWMutex
	state     SubmissionsState
	guard     fetchGuard
	client    SubmissionClient
	logger    zerolog.Logger
	tracer    trace.Tracer
	listeners listeners[SubmissionsState]
}

// NewSubmissions constructs an empty learner submission store.
func NewSubmissions(client SubmissionClient, discardStale bool, logger zerolog.Logger) *Submissions {
	return &Submissions{
		state:  SubmissionsState{Submissions: []dto.Submission{}},
		guard:  fetchGuard{discardStale: discardStale},
		client: client,
		logger: logger.With().Str("component", "learner_submissions").Logger(),
		tracer: observability.Tracer("internal/store/submissions"),
	}
}

// Fetch replaces the cached list with every submission owned by userID.
func (s *Submissions) Fetch(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrNoUser
	}

	ctx, span := s.tracer.Start(ctx, "submissions.fetch", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	s.mu.Lock()
	seq := s.guard.begin()
	s.state.Loading = true
	s.state.Error = ""
	snapshot := s.snapshot()
	s.mu.Unlock()
	s.listeners.notify(snapshot)

	submissions, err := s.client.UserSubmissions(ctx, userID)

	s.mu.Lock()
	applied := s.guard.finish(seq)
	s.state.Loading = s.guard.loading()
	if applied {
		if err != nil {
			s.state.Error = api.Message(err, "Failed to fetch submissions")
		} else {
			s.state.UserID = userID
			s.state.Submissions = cloneSubmissions(submissions)
			s.state.Error = ""
		}
	}
	snapshot = s.snapshot()
	s.mu.Unlock()
	s.listeners.notify(snapshot)

	if !applied {
		s.logger.Debug().Uint64("seq", seq).Msg("dropping stale submission list")
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		return nil
	}
	if err != nil {
		observability.Fail(span, err, "user_submissions")
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to fetch submissions")
		return err
	}
	return nil
}

// ForCourse returns the learner's submission for courseID, if any.
func (s *Submissions) ForCourse(courseID string) (dto.Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, submission := range s.state.Submissions {
		if submission.Course.ID == courseID {
			return submission, true
		}
	}
	return dto.Submission{}, false
}

// Reset empties the store and drops responses to fetches still in flight.
func (s *Submissions) Reset() {
	s.mu.Lock()
	s.guard.reset()
	s.state = SubmissionsState{Submissions: []dto.Submission{}}
	snapshot := s.snapshot()
	s.mu.Unlock()
	s.listeners.notify(snapshot)
}

// State returns a snapshot of the store.
func (s *Submissions) State() SubmissionsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Subscribe registers fn for every state change. The returned func unsubscribes.
func (s *Submissions) Subscribe(fn func(SubmissionsState)) func() {
	return s.listeners.add(fn)
}

func (s *Submissions) snapshot() SubmissionsState {
	out := s.state
	out.Submissions = cloneSubmissions(s.state.Submissions)
	return out
}

package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/observability"
)

// UnknownCourse names submissions whose course is not in the catalog.
const UnknownCourse = "Unknown Course"

// BoardState is a snapshot of the instructor's review board.
type BoardState struct {
	CourseFilter string
	StatusFilter string
	Submissions  []dto.Submission
	Stats        dto.DashboardStats
	Loading      bool
	Error        string
}

// Filter returns the filter the next fetch will send.
func (s BoardState) Filter() dto.SubmissionFilter {
	return dto.SubmissionFilter{CourseID: s.CourseFilter, Status: s.StatusFilter}
}

// Board is the instructor's query service: filtered submissions, aggregate
// counts and the course catalog used to label them.
type Board struct {
	mu        sync.RWMutex
	state     BoardState
	guard     fetchGuard
	loads     int
	epoch     uint64
	client    SubmissionClient
	catalog   *Catalog
	logger    zerolog.Logger
	tracer    trace.Tracer
	listeners listeners[BoardState]
}

// NewBoard constructs a board with both filters set to "all".
func NewBoard(client SubmissionClient, catalog *Catalog, discardStale bool, logger zerolog.Logger) *Board {
	return &Board{
		state:   initialBoardState(),
		guard:   fetchGuard{discardStale: discardStale},
		client:  client,
		catalog: catalog,
		logger:  logger.With().Str("component", "instructor_board").Logger(),
		tracer:  observability.Tracer("internal/store/board"),
	}
}

func initialBoardState() BoardState {
	return BoardState{
		CourseFilter: dto.FilterAll,
		StatusFilter: dto.FilterAll,
		Submissions:  []dto.Submission{},
	}
}

// Load fetches the stats and the course catalog concurrently, then the
// submissions for the current filters.
func (b *Board) Load(ctx context.Context) error {
	ctx, span := b.tracer.Start(ctx, "board.load")
	defer span.End()

	b.mu.Lock()
	b.loads++
	epoch := b.epoch
	b.state.Loading = true
	b.state.Error = ""
	snapshot := b.snapshot()
	b.mu.Unlock()
	b.listeners.notify(snapshot)

	// Both requests run to completion; a failing one never cancels the other.
	var stats dto.DashboardStats
	var group errgroup.Group
	group.Go(func() error {
		var err error
		stats, err = b.client.DashboardStats(ctx)
		return err
	})
	if b.catalog != nil {
		group.Go(func() error {
			return b.catalog.Fetch(ctx)
		})
	}

	if err := group.Wait(); err != nil {
		observability.Fail(span, err, "initial_load")
		b.logger.Warn().Err(err).Msg("failed to load dashboard data")
		b.endLoad(epoch, func(st *BoardState) {
			st.Error = api.Message(err, "Failed to load dashboard data")
		})
		return err
	}

	b.mu.Lock()
	if epoch != b.epoch {
		b.mu.Unlock()
		return nil
	}
	b.state.Stats = stats
	b.mu.Unlock()

	err := b.fetch(ctx)
	b.endLoad(epoch, nil)
	return err
}

func (b *Board) endLoad(epoch uint64, mutate func(*BoardState)) {
	b.mu.Lock()
	if epoch != b.epoch {
		b.mu.Unlock()
		return
	}
	if b.loads > 0 {
		b.loads--
	}
	if mutate != nil {
		mutate(&b.state)
	}
	b.state.Loading = b.loads > 0 || b.guard.loading()
	snapshot := b.snapshot()
	b.mu.Unlock()
	b.listeners.notify(snapshot)
}

// SetCourseFilter narrows the list to one course ("all" or empty for every
// course) and refetches. Stats are left as they are.
func (b *Board) SetCourseFilter(ctx context.Context, courseID string) error {
	b.setFilter(func(st *BoardState) { st.CourseFilter = normalizeFilter(courseID) })
	return b.fetch(ctx)
}

// SetStatusFilter narrows the list to one status ("all" or empty for every
// status) and refetches.
func (b *Board) SetStatusFilter(ctx context.Context, status string) error {
	b.setFilter(func(st *BoardState) { st.StatusFilter = normalizeFilter(status) })
	return b.fetch(ctx)
}

func (b *Board) setFilter(mutate func(*BoardState)) {
	b.mu.Lock()
	mutate(&b.state)
	b.mu.Unlock()
}

func normalizeFilter(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return dto.FilterAll
	}
	return value
}

// Refresh refetches the submissions with the current filters.
func (b *Board) Refresh(ctx context.Context) error {
	return b.fetch(ctx)
}

func (b *Board) fetch(ctx context.Context) error {
	b.mu.Lock()
	seq := b.guard.begin()
	filter := b.state.Filter()
	b.state.Loading = true
	snapshot := b.snapshot()
	b.mu.Unlock()
	b.listeners.notify(snapshot)

	ctx, span := b.tracer.Start(ctx, "board.fetch", trace.WithAttributes(
		attribute.String("filter.course", filter.CourseID),
		attribute.String("filter.status", filter.Status),
	))
	defer span.End()

	submissions, err := b.client.Submissions(ctx, filter)

	b.mu.Lock()
	applied := b.guard.finish(seq)
	b.state.Loading = b.loads > 0 || b.guard.loading()
	if applied {
		if err != nil {
			b.state.Error = api.Message(err, "Failed to fetch submissions")
		} else {
			b.state.Submissions = cloneSubmissions(submissions)
		}
	}
	snapshot = b.snapshot()
	b.mu.Unlock()
	b.listeners.notify(snapshot)

	if !applied {
		b.logger.Debug().Uint64("seq", seq).Msg("dropping stale submission list")
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		return nil
	}
	if err != nil {
		observability.Fail(span, err, "submissions")
		b.logger.Warn().Err(err).Msg("failed to fetch filtered submissions")
		return err
	}
	span.SetAttributes(attribute.Int("submissions.count", len(submissions)))
	return nil
}

// Find returns the listed submission with id.
func (b *Board) Find(id string) (dto.Submission, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, submission := range b.state.Submissions {
		if submission.ID == id {
			return submission, true
		}
	}
	return dto.Submission{}, false
}

// CourseName labels a course id from the catalog.
func (b *Board) CourseName(courseID string) string {
	if b.catalog != nil {
		if course, ok := b.catalog.Find(courseID); ok && course.Name != "" {
			return course.Name
		}
	}
	return UnknownCourse
}

// Catalog returns the course catalog the board labels submissions with.
func (b *Board) Catalog() *Catalog {
	return b.catalog
}

// Reset restores the initial filters and drops in-flight responses.
func (b *Board) Reset() {
	b.mu.Lock()
	b.guard.reset()
	b.loads = 0
	b.epoch++
	b.state = initialBoardState()
	snapshot := b.snapshot()
	b.mu.Unlock()
	b.listeners.notify(snapshot)
}

// State returns a snapshot of the board.
func (b *Board) State() BoardState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot()
}

// Subscribe registers fn for every state change. The returned func unsubscribes.
func (b *Board) Subscribe(fn func(BoardState)) func() {
	return b.listeners.add(fn)
}

func (b *Board) snapshot() BoardState {
	out := b.state
	out.Submissions = cloneSubmissions(b.state.Submissions)
	return out
}

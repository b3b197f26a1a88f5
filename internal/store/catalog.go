package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/observability"
)

// CatalogState is a snapshot of the course catalog.
type CatalogState struct {
	Courses []dto.Course
	Loading bool
	Error   string
}

// Catalog caches the course list.
type Catalog struct {
	mu        sync.RWMutex
	state     CatalogState
	guard     fetchGuard
	client    CourseClient
	logger    zerolog.Logger
	tracer    trace.Tracer
	listeners listeners[CatalogState]
}

// NewCatalog constructs an empty catalog. With discardStale set, overlapping
// fetches resolve in issue order.
func NewCatalog(client CourseClient, discardStale bool, logger zerolog.Logger) *Catalog {
	return &Catalog{
		state:  CatalogState{Courses: []dto.Course{}},
		guard:  fetchGuard{discardStale: discardStale},
		client: client,
		logger: logger.With().Str("component", "course_catalog").Logger(),
		tracer: observability.Tracer("internal/store/catalog"),
	}
}

// Fetch replaces the catalog with the collaborator's list. On failure the
// previous list is kept and the error is recorded.
func (c *Catalog) Fetch(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "catalog.fetch")
	defer span.End()

	c.mu.Lock()
	seq := c.guard.begin()
	c.state.Loading = true
	c.state.Error = ""
	snapshot := c.snapshot()
	c.mu.Unlock()
	c.listeners.notify(snapshot)

	courses, err := c.client.Courses(ctx)

	c.mu.Lock()
	applied := c.guard.finish(seq)
	c.state.Loading = c.guard.loading()
	if applied {
		if err != nil {
			c.state.Error = api.Message(err, "Failed to fetch courses")
		} else {
			c.state.Courses = cloneCourses(courses)
			c.state.Error = ""
		}
	}
	snapshot = c.snapshot()
	c.mu.Unlock()
	c.listeners.notify(snapshot)

	if !applied {
		c.logger.Debug().Uint64("seq", seq).Msg("dropping stale course list")
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		return nil
	}
	if err != nil {
		observability.Fail(span, err, "courses")
		c.logger.Warn().Err(err).Msg("failed to fetch courses")
		return err
	}
	span.SetAttributes(attribute.Int("courses.count", len(courses)))
	return nil
}

// Find returns the cached course with id.
func (c *Catalog) Find(id string) (dto.Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, course := range c.state.Courses {
		if course.ID == id {
			return course, true
		}
	}
	return dto.Course{}, false
}

// ClearError resets the error message.
func (c *Catalog) ClearError() {
	c.mu.Lock()
	c.state.Error = ""
	snapshot := c.snapshot()
	c.mu.Unlock()
	c.listeners.notify(snapshot)
}

// Reset empties the catalog and drops responses to fetches still in flight.
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.guard.reset()
	c.state = CatalogState{Courses: []dto.Course{}}
	snapshot := c.snapshot()
	c.mu.Unlock()
	c.listeners.notify(snapshot)
}

// State returns a snapshot of the catalog.
func (c *Catalog) State() CatalogState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

// Subscribe registers fn for every state change. The returned func unsubscribes.
func (c *Catalog) Subscribe(fn func(CatalogState)) func() {
	return c.listeners.add(fn)
}

func (c *Catalog) snapshot() CatalogState {
	out := c.state
	out.Courses = cloneCourses(c.state.Courses)
	return out
}

// Package store holds the client-side state containers: the session, the
// course catalog, the learner's own submissions and the instructor board.
// Every store is safe for concurrent use and notifies subscribers with a
// snapshot after each state change.
package store

import (
	"context"
	"sync"

	"github.com/noah-isme/gema-projects/internal/dto"
)

// AuthClient exchanges credentials with the collaborator.
type AuthClient interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Register(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error)
}

// CourseClient lists the course catalog.
type CourseClient interface {
	Courses(ctx context.Context) ([]dto.Course, error)
}

// SubmissionClient reads submissions and the aggregate counts.
type SubmissionClient interface {
	UserSubmissions(ctx context.Context, userID string) ([]dto.Submission, error)
	Submissions(ctx context.Context, filter dto.SubmissionFilter) ([]dto.Submission, error)
	DashboardStats(ctx context.Context) (dto.DashboardStats, error)
}

// listeners fans state snapshots out to subscribers. Callbacks run outside
// the owning store's lock.
type listeners[T any] struct {
	mu   sync.RWMutex
	next int
	fns  map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners[T]) notify(state T) {
	l.mu.RLock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(state)
	}
}

// fetchGuard orders overlapping fetches of one store. With discardStale set,
// a response older than the last applied one is dropped and loading stays
// on until every in-flight fetch has settled. Without it the last response
// to arrive wins and the first to settle clears loading. Responses to fetches
// issued before a reset are always dropped. Callers hold the store's lock.
type fetchGuard struct {
	discardStale bool
	issued       uint64
	applied      uint64
	floor        uint64
	inflight     int
}

func (g *fetchGuard) begin() uint64 {
	g.issued++
	g.inflight++
	return g.issued
}

// finish reports whether the response tagged seq should be applied.
func (g *fetchGuard) finish(seq uint64) bool {
	if seq <= g.floor {
		return false
	}
	if g.inflight > 0 {
		g.inflight--
	}
	if !g.discardStale {
		return true
	}
	if seq < g.applied {
		return false
	}
	g.applied = seq
	return true
}

func (g *fetchGuard) loading() bool {
	if !g.discardStale {
		return false
	}
	return g.inflight > 0
}

func (g *fetchGuard) reset() {
	g.floor = g.issued
	g.inflight = 0
}

func cloneCourses(in []dto.Course) []dto.Course {
	out := make([]dto.Course, len(in))
	copy(out, in)
	return out
}

func cloneSubmissions(in []dto.Submission) []dto.Submission {
	out := make([]dto.Submission, len(in))
	copy(out, in)
	return out
}

package store

import (
	"context"
	"sync"

	"github.com/noah-isme/gema-projects/internal/dto"
)

type fakeAuth struct {
	mu       sync.Mutex
	calls    int
	response dto.AuthResponse
	err      error
}

func (f *fakeAuth) Login(_ context.Context, _ dto.LoginRequest) (dto.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

func (f *fakeAuth) Register(_ context.Context, _ dto.SignupRequest) (dto.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

func (f *fakeAuth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type courseReply struct {
	courses []dto.Course
	err     error
}

// fakeCourses answers each call with the next queued reply. A call blocks
// until a reply is queued through its release channel when gated.
type fakeCourses struct {
	mu      sync.Mutex
	replies []courseReply
	gates   []chan courseReply
	started chan int
}

func (f *fakeCourses) Courses(ctx context.Context) ([]dto.Course, error) {
	f.mu.Lock()
	if len(f.gates) > 0 {
		gate := f.gates[0]
		f.gates = f.gates[1:]
		started := f.started
		f.mu.Unlock()
		if started != nil {
			started <- 1
		}
		select {
		case reply := <-gate:
			return reply.courses, reply.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return []dto.Course{}, nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply.courses, reply.err
}

type fakeSubmissions struct {
	mu           sync.Mutex
	byUser       map[string][]dto.Submission
	listed       []dto.Submission
	stats        dto.DashboardStats
	err          error
	statsErr     error
	filters      []dto.SubmissionFilter
	userRequests []string
	onList       func(dto.SubmissionFilter)
}

func (f *fakeSubmissions) UserSubmissions(_ context.Context, userID string) ([]dto.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userRequests = append(f.userRequests, userID)
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

func (f *fakeSubmissions) Submissions(_ context.Context, filter dto.SubmissionFilter) ([]dto.Submission, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	hook := f.onList
	listed, err := f.listed, f.err
	f.mu.Unlock()

	if hook != nil {
		hook(filter)
	}
	if err != nil {
		return nil, err
	}

	out := make([]dto.Submission, 0, len(listed))
	for _, submission := range listed {
		values := filter.Values()
		if id := values.Get("courseId"); id != "" && submission.Course.ID != id {
			continue
		}
		if status := values.Get("status"); status != "" && string(submission.Status) != status {
			continue
		}
		out = append(out, submission)
	}
	return out, nil
}

func (f *fakeSubmissions) DashboardStats(_ context.Context) (dto.DashboardStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, f.statsErr
}

func (f *fakeSubmissions) recordedFilters() []dto.SubmissionFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dto.SubmissionFilter, len(f.filters))
	copy(out, f.filters)
	return out
}

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/config"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/storage"
	"github.com/noah-isme/gema-projects/internal/store"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		APIBaseURL:    baseURL,
		UploadBaseURL: "http://localhost:5000",
		DiscardStale:  true,
		Storage:       config.StorageConfig{Driver: config.StorageMemory},
	}
}

func TestSelectView(t *testing.T) {
	learner := &dto.User{ID: "u1", Role: dto.RoleLearner}
	instructor := &dto.User{ID: "i1", Role: dto.RoleInstructor}

	cases := []struct {
		name  string
		state store.SessionState
		want  View
	}{
		{name: "not hydrated", state: store.SessionState{}, want: ViewLoading},
		{name: "loading", state: store.SessionState{IsHydrated: true, Loading: true}, want: ViewLoading},
		{name: "anonymous", state: store.SessionState{IsHydrated: true}, want: ViewLanding},
		{name: "learner", state: store.SessionState{IsHydrated: true, IsAuthenticated: true, Token: "t", User: learner}, want: ViewLearnerDashboard},
		{name: "instructor", state: store.SessionState{IsHydrated: true, IsAuthenticated: true, Token: "t", User: instructor}, want: ViewInstructorDashboard},
		{name: "restored without user", state: store.SessionState{IsHydrated: true, IsAuthenticated: true, Token: "t"}, want: ViewSignInAgain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SelectView(tc.state))
		})
	}
}

func TestNewOpensConfiguredStorage(t *testing.T) {
	a, err := New(testConfig("http://localhost:5000/api"), zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &storage.MemoryStorage{}, a.Storage)
	require.Equal(t, ViewLoading, a.View())

	a.Start(context.Background())
	require.Equal(t, ViewLanding, a.View())
	require.NoError(t, a.Close())

	_, err = New(testConfig("not a url"), zerolog.Nop())
	require.Error(t, err)
}

func TestUnauthorizedResetsEverything(t *testing.T) {
	var dashboardHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/project/dashboard":
			atomic.AddInt32(&dashboardHits, 1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Token expired"}`))
		case "/api/course":
			_ = json.NewEncoder(w).Encode([]dto.Course{{ID: "c1", Name: "React"}})
		default:
			_ = json.NewEncoder(w).Encode([]dto.Submission{})
		}
	}))
	defer server.Close()

	mem := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, storage.KeyToken, "expired-token"))
	require.NoError(t, mem.Set(ctx, storage.KeyUser, `{"id":"i1","name":"Ins","role":"instructor"}`))

	a, err := New(testConfig(server.URL+"/api"), zerolog.Nop(), WithStorage(mem))
	require.NoError(t, err)
	a.Start(ctx)
	require.Equal(t, ViewInstructorDashboard, a.View())

	err = a.LoadDashboard(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.Equal(t, int32(1), atomic.LoadInt32(&dashboardHits))

	state := a.Session.State()
	require.False(t, state.IsAuthenticated)
	require.True(t, state.IsHydrated)
	require.Empty(t, state.Error)
	require.Equal(t, ViewLanding, a.View())

	_, err = mem.Get(ctx, storage.KeyToken)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.Empty(t, a.Board.State().Error)
	require.False(t, a.Board.State().Loading)

	toasts := a.Notifier.List()
	require.Len(t, toasts, 1)
	require.Equal(t, SessionExpiredMessage, toasts[0].Description)

	// Close does not touch storage the caller owns.
	require.NoError(t, a.Close())
	require.NoError(t, mem.Set(ctx, "still", "open"))
}

func TestLearnerDashboardAndLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(dto.AuthResponse{Token: "tok", User: dto.User{ID: "u1", Name: "L", Role: dto.RoleLearner}})
		case "/api/course":
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode([]dto.Course{{ID: "c1", Name: "React"}})
		case "/api/project/evaluation/u1":
			_ = json.NewEncoder(w).Encode([]dto.Submission{{ID: "s1", User: dto.Ref{ID: "u1"}, Course: dto.Ref{ID: "c1"}, Status: dto.SubmissionStatusPending}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	a, err := New(testConfig(server.URL+"/api"), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	a.Start(ctx)
	require.ErrorIs(t, a.LoadDashboard(ctx), ErrNotSignedIn)

	require.NoError(t, a.Session.Login(ctx, "learner1@gmail.com", "12345678"))
	require.Equal(t, ViewLearnerDashboard, a.View())
	require.NoError(t, a.LoadDashboard(ctx))
	require.Len(t, a.Catalog.State().Courses, 1)
	_, submitted := a.Submissions.ForCourse("c1")
	require.True(t, submitted)

	a.Logout(ctx)
	require.Equal(t, ViewLanding, a.View())
	require.Empty(t, a.Catalog.State().Courses)
	require.Empty(t, a.Submissions.State().Submissions)

	a.Start(ctx)
	require.False(t, a.Session.State().IsAuthenticated)
	require.Empty(t, a.Notifier.List())
}

func TestRestoredTokenWithoutUserAsksForLogin(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx := context.Background()
	a, err := New(testConfig(server.URL+"/api"), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Storage.Set(ctx, storage.KeyToken, "tok"))
	require.NoError(t, a.Storage.Set(ctx, storage.KeyUser, "{not json"))

	a.Start(ctx)
	require.True(t, a.Session.State().IsAuthenticated)
	require.Nil(t, a.Session.State().User)
	require.Equal(t, ViewSignInAgain, a.View())

	require.ErrorIs(t, a.LoadDashboard(ctx), ErrIdentityMissing)
	require.Zero(t, atomic.LoadInt32(&hits))
}

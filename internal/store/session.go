package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/observability"
	"github.com/noah-isme/gema-projects/internal/storage"
)

// SessionState is a snapshot of the authentication state.
type SessionState struct {
	User            *dto.User
	Token           string
	IsAuthenticated bool
	Loading         bool
	Error           string
	IsHydrated      bool
}

// Session owns the current identity and its persisted credentials.
type Session struct {
	mu        sync.RWMutex
	state     SessionState
	client    AuthClient
	storage   storage.Storage
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	listeners listeners[SessionState]
}

// NewSession constructs an unhydrated, unauthenticated session.
func NewSession(client AuthClient, store storage.Storage, validate *validator.Validate, logger zerolog.Logger) *Session {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &Session{
		client:    client,
		storage:   store,
		validator: validate,
		logger:    logger.With().Str("component", "session_store").Logger(),
		tracer:    observability.Tracer("internal/store/session"),
	}
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Subscribe registers fn for every state change. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(SessionState)) func() {
	return s.listeners.add(fn)
}

// Token reads the persisted bearer token. Requests pick it up from storage on
// every call so credentials written by another session of the same store
// are honoured.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.storage.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// Login authenticates with email and password.
func (s *Session) Login(ctx context.Context, email, password string) error {
	payload := dto.LoginRequest{Email: email, Password: password}.Normalize()
	return s.authenticate(ctx, "login", "Login failed", payload, func(ctx context.Context) (dto.AuthResponse, error) {
		return s.client.Login(ctx, payload)
	})
}

// Signup registers a new identity and signs it in.
func (s *Session) Signup(ctx context.Context, req dto.SignupRequest) error {
	payload := req.Normalize()
	return s.authenticate(ctx, "signup", "Signup failed", payload, func(ctx context.Context) (dto.AuthResponse, error) {
		return s.client.Register(ctx, payload)
	})
}

func (s *Session) authenticate(ctx context.Context, op, fallback string, payload interface{}, send func(context.Context) (dto.AuthResponse, error)) error {
	ctx, span := s.tracer.Start(ctx, "session."+op)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		s.update(func(st *SessionState) {
			st.Loading = false
			st.Error = dto.ValidationMessage(err)
		})
		return err
	}

	s.update(func(st *SessionState) {
		st.Loading = true
		st.Error = ""
	})

	resp, err := send(ctx)
	if err == nil && resp.Token == "" {
		err = errors.New(fallback)
	}
	if err != nil {
		observability.Fail(span, err, op)
		s.logger.Info().Err(err).Str("operation", op).Msg("authentication failed")
		s.update(func(st *SessionState) {
			st.Loading = false
			st.Error = api.Message(err, fallback)
			st.User = nil
			st.Token = ""
			st.IsAuthenticated = false
		})
		return err
	}

	s.persist(ctx, resp)

	user := resp.User
	span.SetAttributes(attribute.String("user.role", string(user.Role)))
	s.update(func(st *SessionState) {
		st.Loading = false
		st.Error = ""
		st.User = &user
		st.Token = resp.Token
		st.IsAuthenticated = true
	})
	s.logger.Debug().Str("operation", op).Str("user_id", user.ID).Msg("session established")
	return nil
}

func (s *Session) persist(ctx context.Context, resp dto.AuthResponse) {
	if err := s.storage.Set(ctx, storage.KeyToken, resp.Token); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session token")
	}

	encoded, err := json.Marshal(resp.User)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode session user")
		return
	}
	if err := s.storage.Set(ctx, storage.KeyUser, string(encoded)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session user")
	}
}

// Restore loads persisted credentials. It can be called any number of times;
// the session is hydrated afterwards whatever storage held.
func (s *Session) Restore(ctx context.Context) {
	token := s.read(ctx, storage.KeyToken)

	var user *dto.User
	if token != "" {
		if raw := s.read(ctx, storage.KeyUser); raw != "" {
			var decoded dto.User
			if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
				s.logger.Warn().Err(err).Msg("discarding unreadable persisted user")
			} else {
				user = &decoded
			}
		}
	}

	s.update(func(st *SessionState) {
		if token != "" {
			st.Token = token
			st.IsAuthenticated = true
			if user != nil {
				st.User = user
			}
		}
		st.IsHydrated = true
	})
}

func (s *Session) read(ctx context.Context, key string) string {
	value, err := s.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read persisted session")
		}
		return ""
	}
	return value
}

// Logout forgets the identity locally. No request is sent.
func (s *Session) Logout(ctx context.Context) {
	s.forget(ctx)
	s.update(func(st *SessionState) {
		st.User = nil
		st.Token = ""
		st.IsAuthenticated = false
		st.Error = ""
	})
}

// Invalidate drops a session the collaborator no longer accepts and returns
// to the unauthenticated, hydrated state.
func (s *Session) Invalidate(ctx context.Context) {
	s.forget(ctx)
	s.update(func(st *SessionState) {
		*st = SessionState{IsHydrated: true}
	})
	s.logger.Info().Msg("session invalidated")
}

func (s *Session) forget(ctx context.Context) {
	if err := s.storage.Delete(ctx, storage.KeyToken, storage.KeyUser); err != nil {
		s.logger.Warn().Err(err).Msg("failed to erase persisted session")
	}
}

// ClearError resets the error message.
func (s *Session) ClearError() {
	s.update(func(st *SessionState) {
		st.Error = ""
	})
}

func (s *Session) update(mutate func(*SessionState)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.listeners.notify(snapshot)
}

func (s *Session) snapshot() SessionState {
	out := s.state
	if s.state.User != nil {
		user := *s.state.User
		out.User = &user
	}
	return out
}

// Package app wires storage, the collaborator client, the stores and the
// operations into one injectable application context.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/config"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/notify"
	"github.com/noah-isme/gema-projects/internal/operations"
	"github.com/noah-isme/gema-projects/internal/storage"
	"github.com/noah-isme/gema-projects/internal/store"
)

// SessionExpiredMessage is shown after the collaborator rejects the session.
const SessionExpiredMessage = "Your session has expired. Please sign in again."

// ErrNotSignedIn is returned by dashboard loads without a session.
var ErrNotSignedIn = errors.New("app: not signed in")

// ErrIdentityMissing is returned when a restored token has no readable
// stored user, so the role and user id are unknown.
var ErrIdentityMissing = errors.New("app: stored session has no user, sign in again")

// View is the screen the shell should present.
type View string

const (
	ViewLoading             View = "loading"
	ViewLanding             View = "landing"
	ViewLearnerDashboard    View = "learner_dashboard"
	ViewInstructorDashboard View = "instructor_dashboard"
	// ViewSignInAgain is a token without a stored user. Neither dashboard can
	// be chosen without the role, so the shell asks for a fresh login.
	ViewSignInAgain View = "sign_in_again"
)

// App is the application context shared by every shell command.
type App struct {
	Config      config.Config
	Storage     storage.Storage
	Client      *api.Client
	Session     *store.Session
	Catalog     *store.Catalog
	Submissions *store.Submissions
	Board       *store.Board
	Submit      *operations.SubmissionService
	Evaluate    *operations.EvaluationService
	Notifier    *notify.Broker

	logger     zerolog.Logger
	ownStorage bool
}

// Option customises New.
type Option func(*options)

type options struct {
	storage    storage.Storage
	apiOptions []api.Option
}

// WithStorage uses s instead of opening the configured driver. The caller
// keeps ownership of s.
func WithStorage(s storage.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithAPIOptions passes extra options to the collaborator client.
func WithAPIOptions(opts ...api.Option) Option {
	return func(o *options) { o.apiOptions = append(o.apiOptions, opts...) }
}

// New builds the application context from configuration.
func New(cfg config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config: cfg,
		logger: logger.With().Str("component", "app").Logger(),
	}

	if o.storage != nil {
		a.Storage = o.storage
	} else {
		opened, err := storage.Open(cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("open session storage: %w", err)
		}
		a.Storage = opened
		a.ownStorage = true
	}

	validate := dto.NewValidator()

	clientOpts := []api.Option{
		api.WithLogger(logger),
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithTokenSource(api.TokenFunc(func(ctx context.Context) (string, error) {
			return a.Session.Token(ctx)
		})),
		api.WithUnauthorizedHandler(a.handleUnauthorized),
	}
	client, err := api.New(cfg.APIBaseURL, append(clientOpts, o.apiOptions...)...)
	if err != nil {
		a.closeStorage()
		return nil, err
	}
	a.Client = client

	a.Notifier = notify.NewBroker(logger)
	a.Session = store.NewSession(client, a.Storage, validate, logger)
	a.Catalog = store.NewCatalog(client, cfg.DiscardStale, logger)
	a.Submissions = store.NewSubmissions(client, cfg.DiscardStale, logger)
	a.Board = store.NewBoard(client, a.Catalog, cfg.DiscardStale, logger)
	a.Submit = operations.NewSubmissionService(client, a.Session, a.Submissions, a.Notifier, logger)
	a.Evaluate = operations.NewEvaluationService(client, a.Board, a.Notifier, validate, logger)

	return a, nil
}

// Start restores the persisted session.
func (a *App) Start(ctx context.Context) {
	a.Session.Restore(ctx)
}

// View selects the screen for the current session.
func (a *App) View() View {
	return SelectView(a.Session.State())
}

// SelectView maps a session snapshot to the screen that presents it.
func SelectView(state store.SessionState) View {
	switch {
	case !state.IsHydrated || state.Loading:
		return ViewLoading
	case !state.IsAuthenticated:
		return ViewLanding
	case state.User == nil:
		return ViewSignInAgain
	case state.User.IsInstructor():
		return ViewInstructorDashboard
	default:
		return ViewLearnerDashboard
	}
}

// LoadDashboard fetches what the current user's dashboard shows.
func (a *App) LoadDashboard(ctx context.Context) error {
	state := a.Session.State()
	if !state.IsAuthenticated {
		return ErrNotSignedIn
	}

	switch SelectView(state) {
	case ViewSignInAgain:
		return ErrIdentityMissing
	case ViewInstructorDashboard:
		return a.Board.Load(ctx)
	}

	if err := a.Catalog.Fetch(ctx); err != nil {
		return err
	}
	return a.Submissions.Fetch(ctx, state.User.ID)
}

// Logout signs out locally and forgets every cached list.
func (a *App) Logout(ctx context.Context) {
	a.Session.Logout(ctx)
	a.resetStores()
}

// handleUnauthorized runs when the collaborator rejects the session token.
func (a *App) handleUnauthorized(ctx context.Context) {
	wasAuthenticated := a.Session.State().IsAuthenticated
	a.logger.Info().Bool("was_authenticated", wasAuthenticated).Msg("collaborator rejected session, signing out")
	a.Session.Invalidate(ctx)
	a.resetStores()
	if wasAuthenticated {
		a.Notifier.Error(SessionExpiredMessage)
	}
}

func (a *App) resetStores() {
	a.Catalog.Reset()
	a.Submissions.Reset()
	a.Board.Reset()
}

// Close releases storage opened by New.
func (a *App) Close() error {
	return a.closeStorage()
}

func (a *App) closeStorage() error {
	if !a.ownStorage || a.Storage == nil {
		return nil
	}
	return a.Storage.Close()
}

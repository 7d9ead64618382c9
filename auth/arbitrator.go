package auth

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	errs "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/metrics"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
)

// Orchestrator authenticates a request against one resolved session record.
type Orchestrator interface {
	AuthenticateRequest(ctx context.Context, username string, record *sessions.Record, table string, disableLastActivityUpdate bool) (*AuthResult, error)
}

var _ Orchestrator = (*Authenticator)(nil)

// Tables names the two session tables.
type Tables struct {
	Primary   string // token mapping, written at first login
	Secondary string // session management, written when a concurrent session is opened
}

// Arbitrator decides which of a user's two session records owns the caller's session id.
type Arbitrator struct {
	sessions     sessions.Repo
	orchestrator Orchestrator
	tables       Tables
	opts         options
}

func NewArbitrator(repo sessions.Repo, orchestrator Orchestrator, tables Tables, opts ...Option) (*Arbitrator, error) {
	if repo == nil {
		return nil, errors.New("[NewArbitrator] Sessions repo is required")
	}
	if orchestrator == nil {
		return nil, errors.New("[NewArbitrator] Orchestrator is required")
	}
	if tables.Primary == "" || tables.Secondary == "" {
		return nil, errors.Wrap(errs.ErrConfiguration, "[NewArbitrator] both session tables are required")
	}

	a := &Arbitrator{
		sessions:     repo,
		orchestrator: orchestrator,
		tables:       tables,
		opts:         defaultOptions(),
	}
	for _, opt := range opts {
		opt(&a.opts)
	}
	return a, nil
}

// Authorize returns the authorization context for identity. Every failure is logged with
// its cause and reported to the caller only as ErrSessionInvalid.
func (a *Arbitrator) Authorize(ctx context.Context, identity Identity, disableLastActivityUpdate bool) (*AuthContext, error) {
	ac, err := a.authorize(ctx, identity, disableLastActivityUpdate)
	if err != nil {
		outcome := failureOutcome(err)
		a.opts.logger.Warn().
			Err(err).
			Str("username", identity.Username).
			Str("outcome", outcome).
			Msg("session rejected")
		a.opts.metrics.SessionOutcome(outcome)
		return nil, errs.ErrSessionInvalid
	}
	return ac, nil
}

func (a *Arbitrator) authorize(ctx context.Context, identity Identity, disableLastActivityUpdate bool) (*AuthContext, error) {
	if identity.Username == "" || identity.SessionID == "" {
		return nil, MissingIdentityErr
	}

	var primary, secondary *sessions.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		secondary, err = a.lookup(gctx, a.tables.Secondary, identity.Username)
		return err
	})
	g.Go(func() (err error) {
		primary, err = a.lookup(gctx, a.tables.Primary, identity.Username)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	record, table, concurrent, err := a.resolve(identity.SessionID, primary, secondary)
	if err != nil {
		return nil, err
	}

	result, err := a.orchestrator.AuthenticateRequest(ctx, identity.Username, record, table, disableLastActivityUpdate)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, NoAuthResultErr
	}

	return &AuthContext{
		AuthResult:          *result,
		SessionID:           identity.SessionID,
		IsConcurrentSession: concurrent,
	}, nil
}

func (a *Arbitrator) lookup(ctx context.Context, table, username string) (*sessions.Record, error) {
	record, err := a.sessions.Get(ctx, table, username)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[Arbitrator.lookup] %s", table)
	}
	return record, nil
}

// resolve applies the ownership rule: a matching secondary record wins over a matching
// primary record.
func (a *Arbitrator) resolve(sessionID string, primary, secondary *sessions.Record) (*sessions.Record, string, bool, error) {
	switch {
	case secondary != nil && secondary.SessionID == sessionID:
		return secondary, a.tables.Secondary, true, nil
	case primary != nil && primary.SessionID == sessionID:
		return primary, a.tables.Primary, false, nil
	case primary == nil && secondary == nil:
		return nil, "", false, errs.ErrSessionNotFound
	}
	return nil, "", false, errs.ErrSessionMismatch
}

func failureOutcome(err error) string {
	switch {
	case errs.Is(err, errs.ErrSessionTimeout):
		return metrics.OutcomeTimeout
	case errs.Is(err, errs.ErrSessionMismatch):
		return metrics.OutcomeMismatch
	case errs.Is(err, errs.ErrSessionNotFound):
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}

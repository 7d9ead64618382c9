package auth

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	errs "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/metrics"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/utils"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/exchange"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/idtoken"
)

// TokenExchanger performs grants against an upstream token endpoint.
type TokenExchanger interface {
	ExchangeAssertion(ctx context.Context, endpoint string, form url.Values) (*oauth2.Token, error)
	Refresh(ctx context.Context, endpoint string, creds exchange.ClientCredentials, refreshToken string) (*oauth2.Token, error)
	ExchangeCode(ctx context.Context, endpoint string, creds exchange.ClientCredentials, redirectURI, code string) (*oauth2.Token, error)
}

// AssertionBuilder produces a token exchange form carrying a freshly signed assertion.
type AssertionBuilder interface {
	ExchangeForm(tokenEndpoint, idToken string) (url.Values, error)
}

type IdentityVerifier interface {
	Verify(ctx context.Context, raw string) (*idtoken.Claims, error)
}

// Deps holds the collaborators of an Authenticator.
type Deps struct {
	Sessions   sessions.Repo
	Exchanger  TokenExchanger
	Assertions AssertionBuilder
	Verifier   IdentityVerifier
}

// Authenticator decides per request whether a session's upstream token is reused,
// refreshed or acquired, and evicts sessions that have been idle too long.
type Authenticator struct {
	deps      Deps
	providers Providers
	opts      options
}

func NewAuthenticator(deps Deps, providers Providers, opts ...Option) (*Authenticator, error) {
	if deps.Sessions == nil {
		return nil, errors.New("[NewAuthenticator] Sessions repo is required")
	}
	if deps.Exchanger == nil {
		return nil, errors.New("[NewAuthenticator] Exchanger is required")
	}
	if deps.Assertions == nil {
		return nil, errors.New("[NewAuthenticator] Assertions builder is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("[NewAuthenticator] Verifier is required")
	}

	a := &Authenticator{
		deps:      deps,
		providers: providers,
		opts:      defaultOptions(),
	}
	for _, opt := range opts {
		opt(&a.opts)
	}
	return a, nil
}

// AuthenticateRequest returns the upstream access token to use for this request. A
// session idle for longer than the idle timeout is deleted from table and reported as
// ErrSessionTimeout regardless of its token state.
func (a *Authenticator) AuthenticateRequest(
	ctx context.Context,
	username string,
	record *sessions.Record,
	table string,
	disableLastActivityUpdate bool,
) (*AuthResult, error) {
	if record == nil {
		return nil, errors.Wrap(errs.ErrSessionNotFound, "[AuthenticateRequest]")
	}

	logger := a.opts.logger.With().Str("username", username).Str("table", table).Logger()
	now := a.opts.nowTime()

	lastActivity := now
	if disableLastActivityUpdate {
		lastActivity = record.LastActivityTime
	}

	if !record.LastActivityTime.IsZero() && now.Sub(record.LastActivityTime) > a.opts.idleTimeout {
		if err := a.deps.Sessions.Delete(ctx, table, username); err != nil {
			logger.Error().Err(err).Msg("failed to delete idle session")
		}
		logger.Info().Time("lastActivityTime", record.LastActivityTime).Msg("session idle timeout, record deleted")
		return nil, errors.Wrapf(errs.ErrSessionTimeout, "[AuthenticateRequest] idle for %s", now.Sub(record.LastActivityTime).Round(time.Second))
	}

	endpoints, err := a.providers.Resolve(username)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateRequest] resolve identity provider")
	}
	logger = logger.With().Bool("mock", endpoints.IsMock).Logger()

	if record.Phase() == sessions.PhaseActiveToken {
		timeUntilExpiry := record.Token.ExpiresAt.Sub(now)
		if timeUntilExpiry > a.opts.refreshWindow {
			if err := a.persist(ctx, table, username, sessions.Update{LastActivityTime: lastActivity}); err != nil {
				return nil, err
			}
			a.opts.metrics.SessionOutcome(metrics.OutcomeReused)
			return newAuthResult(username, record.Token.AccessToken, record.SelectedRole), nil
		}

		result := a.refresh(ctx, endpoints, record.Token)
		if result.OK() {
			if err := a.persist(ctx, table, username, sessions.Update{LastActivityTime: lastActivity, Token: result.Token}); err != nil {
				return nil, err
			}
			logger.Debug().Time("expiresAt", result.Token.ExpiresAt).Msg("upstream token refreshed")
			a.opts.metrics.SessionOutcome(metrics.OutcomeRefresh)
			return newAuthResult(username, result.Token.AccessToken, record.SelectedRole), nil
		}

		// Any refresh failure, transient or not, falls back to acquisition. This can hide
		// an upstream outage behind acquisition errors; the flag marks these for review.
		logger.Warn().
			Err(result.Err).
			Dur("timeUntilExpiry", timeUntilExpiry).
			Bool("refreshFallback", true).
			Msg("token refresh failed, attempting acquisition")
	}

	token, err := a.acquire(ctx, endpoints, record)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateRequest] acquire upstream token")
	}

	upstream := toUpstreamToken(token, "")
	if err := a.persist(ctx, table, username, sessions.Update{
		LastActivityTime: lastActivity,
		Token:            upstream,
		ClearCredential:  true,
	}); err != nil {
		return nil, err
	}
	logger.Info().Time("expiresAt", upstream.ExpiresAt).Msg("upstream token acquired")
	a.opts.metrics.SessionOutcome(metrics.OutcomeAcquired)
	return newAuthResult(username, upstream.AccessToken, record.SelectedRole), nil
}

func (a *Authenticator) persist(ctx context.Context, table, username string, update sessions.Update) error {
	if err := a.deps.Sessions.Update(ctx, table, username, update); err != nil {
		return errors.Wrapf(err, "[AuthenticateRequest] update %s", table)
	}
	return nil
}

func newAuthResult(username, accessToken string, role *sessions.SelectedRole) *AuthResult {
	selected := utils.Value(role)
	return &AuthResult{
		Username:            username,
		UpstreamAccessToken: accessToken,
		RoleID:              selected.RoleID,
		OrgCode:             selected.OrgCode,
	}
}

// toUpstreamToken keeps previousRefresh when the endpoint does not rotate refresh tokens.
func toUpstreamToken(token *oauth2.Token, previousRefresh string) *sessions.UpstreamToken {
	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	return &sessions.UpstreamToken{
		AccessToken:  token.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    token.Expiry,
	}
}

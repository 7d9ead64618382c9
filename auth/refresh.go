package auth

import (
	"context"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
)

// RefreshResult is the outcome of the refresh step: a new token or the reason there is none.
type RefreshResult struct {
	Token *sessions.UpstreamToken
	Err   error
}

func (r RefreshResult) OK() bool {
	return r.Err == nil && r.Token != nil
}

func (a *Authenticator) refresh(ctx context.Context, endpoints IdentityProviderEndpoints, current *sessions.UpstreamToken) RefreshResult {
	token, err := a.deps.Exchanger.Refresh(ctx, endpoints.TokenEndpoint, endpoints.Credentials, current.RefreshToken)
	if err != nil {
		return RefreshResult{Err: err}
	}
	return RefreshResult{Token: toUpstreamToken(token, current.RefreshToken)}
}

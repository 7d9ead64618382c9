package auth

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
)

// acquire obtains a first upstream token from the identity credential on the record.
func (a *Authenticator) acquire(ctx context.Context, endpoints IdentityProviderEndpoints, record *sessions.Record) (*oauth2.Token, error) {
	if endpoints.IsMock {
		return a.acquireWithCode(ctx, endpoints, record)
	}
	return a.acquireWithIDToken(ctx, endpoints, record)
}

func (a *Authenticator) acquireWithCode(ctx context.Context, endpoints IdentityProviderEndpoints, record *sessions.Record) (*oauth2.Token, error) {
	cred, ok := record.Credential.(sessions.AuthorizationCodeCredential)
	if !ok || cred.Code == "" {
		return nil, MissingAuthCodeErr
	}

	token, err := a.deps.Exchanger.ExchangeCode(ctx, endpoints.TokenEndpoint, endpoints.Credentials, endpoints.RedirectURI, cred.Code)
	if err != nil {
		return nil, errors.Wrap(err, "[acquireWithCode]")
	}
	return token, nil
}

func (a *Authenticator) acquireWithIDToken(ctx context.Context, endpoints IdentityProviderEndpoints, record *sessions.Record) (*oauth2.Token, error) {
	cred, ok := record.Credential.(sessions.IDTokenCredential)
	if !ok || cred.IDToken == "" {
		return nil, MissingIDTokenErr
	}

	if _, err := a.deps.Verifier.Verify(ctx, cred.IDToken); err != nil {
		return nil, errors.Wrap(err, "[acquireWithIDToken]")
	}

	form, err := a.deps.Assertions.ExchangeForm(endpoints.TokenEndpoint, cred.IDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[acquireWithIDToken] build client assertion")
	}

	token, err := a.deps.Exchanger.ExchangeAssertion(ctx, endpoints.TokenEndpoint, form)
	if err != nil {
		return nil, errors.Wrap(err, "[acquireWithIDToken]")
	}
	return token, nil
}

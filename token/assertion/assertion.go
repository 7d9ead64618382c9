// Package assertion builds the signed client assertion presented to the upstream token
// endpoint when exchanging an identity token.
package assertion

import (
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/keys"
)

// RFC 7523 / RFC 8693 parameter values
const (
	GrantTypeTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"
	ClientAssertionTypeJWT = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	TokenTypeIDToken       = "urn:ietf:params:oauth:token-type:id_token"

	// Lifetime of each assertion
	Lifetime = 5 * time.Minute
)

type Option func(b *Builder)

// WithNowTime overrides the clock used for iat and exp.
func WithNowTime(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithIDGenerator overrides the jti source.
func WithIDGenerator(newID func() string) Option {
	return func(b *Builder) {
		b.newID = newID
	}
}

// Builder mints a fresh assertion on every call. Assertions are never cached.
type Builder struct {
	signer   keys.Signer
	clientID string
	now      func() time.Time
	newID    func() string
}

func NewBuilder(signer keys.Signer, clientID string, opts ...Option) *Builder {
	b := &Builder{
		signer:   signer,
		clientID: clientID,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build signs a JWT whose issuer and subject are the client id and whose audience is
// the token endpoint it will be presented to.
func (b *Builder) Build(tokenEndpoint string) (string, error) {
	if b.clientID == "" {
		return "", errors.New("[Builder.Build] client id is empty")
	}
	if tokenEndpoint == "" {
		return "", errors.New("[Builder.Build] token endpoint is empty")
	}

	iat := b.now().UTC()
	claims := jwt.MapClaims{
		"iss": b.clientID,
		"sub": b.clientID,
		"aud": tokenEndpoint,
		"iat": iat.Unix(),
		"exp": iat.Add(Lifetime).Unix(),
		"jti": b.newID(),
	}

	signed, err := b.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Builder.Build] sign")
	}
	return signed, nil
}

// ExchangeForm returns the form body for an id token exchange with a newly minted
// assertion.
func (b *Builder) ExchangeForm(tokenEndpoint, idToken string) (url.Values, error) {
	if idToken == "" {
		return nil, errors.New("[Builder.ExchangeForm] subject token is empty")
	}

	signed, err := b.Build(tokenEndpoint)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", GrantTypeTokenExchange)
	form.Set("client_assertion_type", ClientAssertionTypeJWT)
	form.Set("client_assertion", signed)
	form.Set("subject_token_type", TokenTypeIDToken)
	form.Set("subject_token", idToken)
	return form, nil
}

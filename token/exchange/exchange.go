// Package exchange talks to the upstream token endpoints: identity token exchange with a
// signed client assertion, refresh, and the mock provider's authorization code grant.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/metrics"
)

const (
	defaultExchangeTimeout = 2 * time.Second
	defaultRefreshTimeout  = 10 * time.Second

	maxResponseBodySize = 1 << 20
)

// ClientCredentials identify this service to a token endpoint for refresh and code grants.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

func (c ClientCredentials) String() string {
	secret := "[REDACTED]"
	if c.ClientSecret == "" {
		secret = "<empty>"
	}
	return fmt.Sprintf("ClientCredentials{ClientID: %s, ClientSecret: %s}", c.ClientID, secret)
}

type Option func(c *Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithExchangeTimeout bounds the identity token and code exchanges.
func WithExchangeTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.exchangeTimeout = d
		}
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

type Client struct {
	httpClient      *http.Client
	metrics         *metrics.Metrics
	exchangeTimeout time.Duration
	refreshTimeout  time.Duration
	now             func() time.Time
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:      http.DefaultClient,
		exchangeTimeout: defaultExchangeTimeout,
		refreshTimeout:  defaultRefreshTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    json.Number `json:"expires_in"` // some gateways send a numeric string
}

// ExchangeAssertion posts a signed-assertion token exchange form to endpoint.
func (c *Client) ExchangeAssertion(ctx context.Context, endpoint string, form url.Values) (token *oauth2.Token, err error) {
	started := time.Now()
	defer func() { c.metrics.TokenExchange(string(KindIDToken), started, err) }()

	fail := func(status int, cause error) error {
		return &Error{Kind: KindIDToken, Endpoint: endpoint, StatusCode: status, Err: cause}
	}

	ctx, cancel := context.WithTimeout(ctx, c.exchangeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(resp.StatusCode, describeBody(body))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("malformed response"))
	}
	if parsed.AccessToken == "" {
		return nil, fail(resp.StatusCode, fmt.Errorf("response missing access_token"))
	}
	expiresIn, err := parsed.ExpiresIn.Int64()
	if err != nil || expiresIn <= 0 {
		return nil, fail(resp.StatusCode, fmt.Errorf("response missing expires_in"))
	}

	return &oauth2.Token{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		TokenType:    parsed.TokenType,
		Expiry:       c.now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// Refresh renews an access token with a refresh token grant.
func (c *Client) Refresh(ctx context.Context, endpoint string, creds ClientCredentials, refreshToken string) (token *oauth2.Token, err error) {
	started := time.Now()
	defer func() { c.metrics.TokenExchange(string(KindRefresh), started, err) }()

	if refreshToken == "" {
		return nil, &Error{Kind: KindRefresh, Endpoint: endpoint, Err: fmt.Errorf("no refresh token")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	cfg := c.oauthConfig(endpoint, creds, "")
	token, err = cfg.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	return c.checkToken(KindRefresh, endpoint, token, err)
}

// ExchangeCode redeems an authorization code issued by the mock identity provider.
func (c *Client) ExchangeCode(ctx context.Context, endpoint string, creds ClientCredentials, redirectURI, code string) (token *oauth2.Token, err error) {
	started := time.Now()
	defer func() { c.metrics.TokenExchange(string(KindCode), started, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.exchangeTimeout)
	defer cancel()

	cfg := c.oauthConfig(endpoint, creds, redirectURI)
	token, err = cfg.Exchange(c.withHTTPClient(ctx), code)
	return c.checkToken(KindCode, endpoint, token, err)
}

func (c *Client) oauthConfig(endpoint string, creds ClientCredentials, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  endpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// checkToken converts oauth2 failures into redacted exchange errors and enforces that an
// expiry was returned.
func (c *Client) checkToken(kind Kind, endpoint string, token *oauth2.Token, err error) (*oauth2.Token, error) {
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, &Error{Kind: kind, Endpoint: endpoint, StatusCode: status, Err: describeBody(retrieveErr.Body)}
		}
		return nil, &Error{Kind: kind, Endpoint: endpoint, Err: redactTransportError(err)}
	}
	if token == nil || token.AccessToken == "" {
		return nil, &Error{Kind: kind, Endpoint: endpoint, Err: fmt.Errorf("response missing access_token")}
	}
	if token.Expiry.IsZero() {
		return nil, &Error{Kind: kind, Endpoint: endpoint, Err: fmt.Errorf("response missing expires_in")}
	}
	return token, nil
}

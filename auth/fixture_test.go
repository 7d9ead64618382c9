package auth_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/metrics"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
	fakesessionrepo "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions/repofakes"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/exchange"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/idtoken"
)

const (
	primaryTable      = "TokenMapping"
	secondaryTable    = "SessionManagement"
	realTokenEndpoint = "https://api.example.nhs.uk/oauth2/token"
	mockTokenEndpoint = "https://internal-dev.example.nhs.uk/oauth2-mock/token"
	publicHostname    = "cpt-ui-pr-123.dev.example.nhs.uk"
	testUsername      = "Primary_555043300081"
	mockUsername      = "Mock_555043300081"
	testSessionID     = "session-1"
)

// events records the order in which upstream collaborators are called
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, name)
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fakeExchanger struct {
	events *events

	refreshToken   *oauth2.Token
	refreshErr     error
	assertionToken *oauth2.Token
	assertionErr   error
	codeToken      *oauth2.Token
	codeErr        error

	lastEndpoint string
	lastCreds    exchange.ClientCredentials
	lastRefresh  string
	lastRedirect string
	lastCode     string
	lastForm     url.Values
}

func (f *fakeExchanger) ExchangeAssertion(_ context.Context, endpoint string, form url.Values) (*oauth2.Token, error) {
	f.events.add("exchange-assertion")
	f.lastEndpoint, f.lastForm = endpoint, form
	return f.assertionToken, f.assertionErr
}

func (f *fakeExchanger) Refresh(_ context.Context, endpoint string, creds exchange.ClientCredentials, refreshToken string) (*oauth2.Token, error) {
	f.events.add("refresh")
	f.lastEndpoint, f.lastCreds, f.lastRefresh = endpoint, creds, refreshToken
	return f.refreshToken, f.refreshErr
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, endpoint string, creds exchange.ClientCredentials, redirectURI, code string) (*oauth2.Token, error) {
	f.events.add("exchange-code")
	f.lastEndpoint, f.lastCreds, f.lastRedirect, f.lastCode = endpoint, creds, redirectURI, code
	return f.codeToken, f.codeErr
}

type fakeVerifier struct {
	events *events
	err    error
	raw    string
}

func (f *fakeVerifier) Verify(_ context.Context, raw string) (*idtoken.Claims, error) {
	f.events.add("verify")
	f.raw = raw
	if f.err != nil {
		return nil, f.err
	}
	return &idtoken.Claims{Subject: "555043300081", ACR: idtoken.DefaultACR}, nil
}

type fakeAssertions struct {
	events *events
}

func (f *fakeAssertions) ExchangeForm(tokenEndpoint, idToken string) (url.Values, error) {
	f.events.add("assertion")
	return url.Values{"subject_token": {idToken}, "client_assertion": {"signed-for-" + tokenEndpoint}}, nil
}

// testFixture holds all test dependencies
type testFixture struct {
	now           time.Time
	events        *events
	repo          *fakesessionrepo.FakeSessionRepo
	exchanger     *fakeExchanger
	verifier      *fakeVerifier
	assertions    *fakeAssertions
	metrics       *metrics.Metrics
	providers     auth.Providers
	authenticator *auth.Authenticator
}

type fixtureOption func(f *testFixture)

func withoutMockMode() fixtureOption {
	return func(f *testFixture) {
		f.providers.Mock = nil
	}
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T, opts ...fixtureOption) *testFixture {
	t.Helper()

	ev := &events{}
	f := &testFixture{
		now:        time.Now().Truncate(time.Second),
		events:     ev,
		repo:       fakesessionrepo.NewFakeSessionRepo(),
		exchanger:  &fakeExchanger{events: ev},
		verifier:   &fakeVerifier{events: ev},
		assertions: &fakeAssertions{events: ev},
		metrics:    metrics.New(),
		providers: auth.Providers{
			Real: auth.IdentityProviderEndpoints{
				TokenEndpoint: realTokenEndpoint,
				Credentials:   exchange.ClientCredentials{ClientID: "real-client"},
			},
			Mock: &auth.IdentityProviderEndpoints{
				TokenEndpoint: mockTokenEndpoint,
				Credentials:   exchange.ClientCredentials{ClientID: "mock-client", ClientSecret: "mock-secret"},
				RedirectURI:   auth.MockCallbackURI(publicHostname),
			},
		},
	}
	for _, opt := range opts {
		opt(f)
	}

	a, err := auth.NewAuthenticator(auth.Deps{
		Sessions:   f.repo,
		Exchanger:  f.exchanger,
		Assertions: f.assertions,
		Verifier:   f.verifier,
	}, f.providers, f.options()...)
	require.NoError(t, err)
	f.authenticator = a
	return f
}

func (f *testFixture) options() []auth.Option {
	return []auth.Option{
		auth.WithNowTime(func() time.Time { return f.now }),
		auth.WithLogger(zerolog.Nop()),
		auth.WithMetrics(f.metrics),
	}
}

func (f *testFixture) put(t *testing.T, table string, record *sessions.Record) {
	t.Helper()
	require.NoError(t, f.repo.Put(context.Background(), table, record))
}

func (f *testFixture) get(t *testing.T, table, username string) *sessions.Record {
	t.Helper()
	record, err := f.repo.Get(context.Background(), table, username)
	require.NoError(t, err)
	return record
}

func (f *testFixture) activeRecord(username, sessionID string, expiresIn time.Duration) *sessions.Record {
	return &sessions.Record{
		Username:  username,
		SessionID: sessionID,
		Token: &sessions.UpstreamToken{
			AccessToken:  "tok",
			RefreshToken: "refresh-tok",
			ExpiresAt:    f.now.Add(expiresIn),
		},
		LastActivityTime: f.now.Add(-time.Minute),
	}
}

func (f *testFixture) bearer(access, refresh string, expiresIn time.Duration) *oauth2.Token {
	return &oauth2.Token{AccessToken: access, RefreshToken: refresh, Expiry: f.now.Add(expiresIn)}
}

func refreshFailure() error {
	return &exchange.Error{Kind: exchange.KindRefresh, Endpoint: realTokenEndpoint, StatusCode: 400, Err: errors.New(`oauth error "invalid_grant"`)}
}

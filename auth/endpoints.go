package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	errs "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/errors"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/exchange"
)

// MockUsernamePrefix marks sessions created through the mock identity provider.
const MockUsernamePrefix = "Mock_"

var previewSuffix = regexp.MustCompile(`-pr-\d+`)

// IsMockUsername reports whether username follows the mock session naming convention.
func IsMockUsername(username string) bool {
	return strings.HasPrefix(username, MockUsernamePrefix)
}

// MockCallbackURI derives the redirect URI registered with the mock identity provider.
// Preview environments share the main environment's registration, so any "-pr-<n>"
// suffix is removed from the host.
func MockCallbackURI(publicHostname string) string {
	return fmt.Sprintf("https://%s/oauth2/mock-callback", previewSuffix.ReplaceAllString(publicHostname, ""))
}

// IdentityProviderEndpoints is everything the flow needs to talk to one identity
// provider. It is resolved once per request and passed through unchanged.
type IdentityProviderEndpoints struct {
	IsMock        bool
	TokenEndpoint string
	Credentials   exchange.ClientCredentials
	RedirectURI   string // mock only
}

// Providers holds the real provider and, when mock mode is enabled, the mock one.
type Providers struct {
	Real IdentityProviderEndpoints
	Mock *IdentityProviderEndpoints
}

// Resolve picks the provider for username.
func (p Providers) Resolve(username string) (IdentityProviderEndpoints, error) {
	if !IsMockUsername(username) {
		return p.Real, nil
	}
	if p.Mock == nil {
		return IdentityProviderEndpoints{}, MockModeDisabledErr
	}

	mock := *p.Mock
	mock.IsMock = true
	switch {
	case mock.TokenEndpoint == "":
		return IdentityProviderEndpoints{}, errors.Wrap(errs.ErrConfiguration, "[Providers.Resolve] mock token endpoint is not set")
	case mock.Credentials.ClientID == "":
		return IdentityProviderEndpoints{}, errors.Wrap(errs.ErrConfiguration, "[Providers.Resolve] mock client id is not set")
	case mock.RedirectURI == "":
		return IdentityProviderEndpoints{}, errors.Wrap(errs.ErrConfiguration, "[Providers.Resolve] mock callback uri is not set")
	}
	return mock, nil
}

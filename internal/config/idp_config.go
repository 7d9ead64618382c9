package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	realTokenEndpointVar = "REAL_TOKEN_ENDPOINT"
	mockTokenEndpointVar = "MOCK_TOKEN_ENDPOINT"
	realIssuerVar        = "REAL_OIDC_ISSUER"
	realOIDCClientIDVar  = "REAL_OIDC_CLIENT_ID"
	realJWKSEndpointVar  = "REAL_JWKS_ENDPOINT"
	acceptedACRVar       = "ACCEPTED_ACR_VALUES"
	jwksMaxEntriesVar    = "JWKS_CACHE_MAX_ENTRIES"
	jwksMaxAgeVar        = "JWKS_CACHE_MAX_AGE"
	clockToleranceVar    = "ID_TOKEN_CLOCK_TOLERANCE"
	exchangeTimeoutVar   = "TOKEN_EXCHANGE_TIMEOUT"
	refreshTimeoutVar    = "TOKEN_REFRESH_TIMEOUT"
	mockModeVar          = "MOCK_MODE_ENABLED"
)

type IdentityProviderConfig interface {
	GetRealTokenEndpoint() string
	GetMockTokenEndpoint() string
	GetRealIssuer() string
	GetRealOIDCClientID() string
	GetRealJWKSEndpoint() string
	GetAcceptedACRValues() []string
	GetJWKSCacheMaxEntries() int
	GetJWKSCacheMaxAge() time.Duration
	GetIDTokenClockTolerance() time.Duration
	// GetTokenExchangeTimeout bounds the initial exchange; kept short so a slow upstream
	// fails before the calling broker gives up on the request.
	GetTokenExchangeTimeout() time.Duration
	GetTokenRefreshTimeout() time.Duration
	GetMockModeEnabled() bool
}

type IdentityProvider struct {
	v *viper.Viper
}

var _ IdentityProviderConfig = IdentityProvider{}

func (i IdentityProvider) GetRealTokenEndpoint() string {
	return i.v.GetString(realTokenEndpointVar)
}

func (i IdentityProvider) GetMockTokenEndpoint() string {
	return i.v.GetString(mockTokenEndpointVar)
}

func (i IdentityProvider) GetRealIssuer() string {
	return i.v.GetString(realIssuerVar)
}

func (i IdentityProvider) GetRealOIDCClientID() string {
	return i.v.GetString(realOIDCClientIDVar)
}

func (i IdentityProvider) GetRealJWKSEndpoint() string {
	return i.v.GetString(realJWKSEndpointVar)
}

func (i IdentityProvider) GetAcceptedACRValues() []string {
	return splitList(i.v.GetString(acceptedACRVar))
}

func (i IdentityProvider) GetJWKSCacheMaxEntries() int {
	return i.v.GetInt(jwksMaxEntriesVar)
}

func (i IdentityProvider) GetJWKSCacheMaxAge() time.Duration {
	return i.v.GetDuration(jwksMaxAgeVar)
}

func (i IdentityProvider) GetIDTokenClockTolerance() time.Duration {
	return i.v.GetDuration(clockToleranceVar)
}

func (i IdentityProvider) GetTokenExchangeTimeout() time.Duration {
	return i.v.GetDuration(exchangeTimeoutVar)
}

func (i IdentityProvider) GetTokenRefreshTimeout() time.Duration {
	return i.v.GetDuration(refreshTimeoutVar)
}

func (i IdentityProvider) GetMockModeEnabled() bool {
	return i.v.GetBool(mockModeVar)
}

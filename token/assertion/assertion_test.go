package assertion_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/assertion"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/keys"
)

const tokenEndpoint = "https://upstream.example.nhs.uk/oauth2/token"

func newSigner(t *testing.T) *keys.KeyPairSigner {
	t.Helper()
	kp, err := keys.GenerateRSAKeyPair("assertion-kid", keys.RS512, 2048)
	require.NoError(t, err)
	return keys.NewKeyPairSigner(kp)
}

func TestBuild_Claims(t *testing.T) {
	signer := newSigner(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	b := assertion.NewBuilder(signer, "client-123",
		assertion.WithNowTime(func() time.Time { return now }),
		assertion.WithIDGenerator(func() string { return "jti-1" }),
	)

	raw, err := b.Build(tokenEndpoint)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, signer.GetVerificationKey, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)

	require.Equal(t, "assertion-kid", parsed.Header["kid"])
	require.Equal(t, "RS512", parsed.Header["alg"])
	require.Equal(t, "client-123", claims["iss"])
	require.Equal(t, "client-123", claims["sub"])
	require.Equal(t, tokenEndpoint, claims["aud"])
	require.Equal(t, "jti-1", claims["jti"])
	require.EqualValues(t, now.Unix(), claims["iat"])
	require.EqualValues(t, now.Add(5*time.Minute).Unix(), claims["exp"])
}

func TestBuild_FreshJTIPerCall(t *testing.T) {
	b := assertion.NewBuilder(newSigner(t), "client-123")

	seen := map[string]bool{}
	for range 3 {
		raw, err := b.Build(tokenEndpoint)
		require.NoError(t, err)

		claims := jwt.MapClaims{}
		_, _, err = jwt.NewParser().ParseUnverified(raw, claims)
		require.NoError(t, err)

		jti, ok := claims["jti"].(string)
		require.True(t, ok)
		require.False(t, seen[jti], "jti reused: %s", jti)
		seen[jti] = true
	}
}

func TestBuild_MissingInputs(t *testing.T) {
	_, err := assertion.NewBuilder(newSigner(t), "").Build(tokenEndpoint)
	require.ErrorContains(t, err, "client id is empty")

	_, err = assertion.NewBuilder(newSigner(t), "client-123").Build("")
	require.ErrorContains(t, err, "token endpoint is empty")
}

func TestExchangeForm(t *testing.T) {
	b := assertion.NewBuilder(newSigner(t), "client-123")

	form, err := b.ExchangeForm(tokenEndpoint, "id-token-abc")
	require.NoError(t, err)

	require.Equal(t, "urn:ietf:params:oauth:grant-type:token-exchange", form.Get("grant_type"))
	require.Equal(t, "urn:ietf:params:oauth:client-assertion-type:jwt-bearer", form.Get("client_assertion_type"))
	require.Equal(t, "urn:ietf:params:oauth:token-type:id_token", form.Get("subject_token_type"))
	require.Equal(t, "id-token-abc", form.Get("subject_token"))
	require.NotEmpty(t, form.Get("client_assertion"))

	again, err := b.ExchangeForm(tokenEndpoint, "id-token-abc")
	require.NoError(t, err)
	require.NotEqual(t, form.Get("client_assertion"), again.Get("client_assertion"))

	_, err = b.ExchangeForm(tokenEndpoint, "")
	require.ErrorContains(t, err, "subject token is empty")
}

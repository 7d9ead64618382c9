package keys_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/keys"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestLoadKeyPairFromPEM(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair("kid-1", keys.RS512, 2048)
	require.NoError(t, err)

	t.Run("pkcs1", func(t *testing.T) {
		pemData, err := kp.ExportPrivateKeyPEM()
		require.NoError(t, err)

		loaded, err := keys.LoadKeyPairFromPEM("kid-1", keys.RS512, pemData)
		require.NoError(t, err)
		require.True(t, kp.PrivateKey.(*rsa.PrivateKey).Equal(loaded.PrivateKey))
	})

	t.Run("pkcs8", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(kp.PrivateKey)
		require.NoError(t, err)
		pemData := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

		loaded, err := keys.LoadKeyPairFromPEM("kid-1", keys.RS512, pemData)
		require.NoError(t, err)
		require.Equal(t, jwt.SigningMethodRS512, loaded.GetSigningMethod())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := keys.LoadKeyPairFromPEM("kid-1", keys.RS512, "not a pem")
		require.ErrorContains(t, err, "failed to decode PEM block")
	})
}

func TestKeyPairSigner_SignAndVerify(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair("kid-1", keys.RS512, 2048)
	require.NoError(t, err)
	signer := keys.NewKeyPairSigner(kp)

	raw, err := signer.Sign(jwt.MapClaims{"sub": "client"})
	require.NoError(t, err)

	parsed, err := jwt.Parse(raw, signer.GetVerificationKey)
	require.NoError(t, err)
	require.Equal(t, "kid-1", parsed.Header["kid"])
	require.Equal(t, "RS512", parsed.Header["alg"])

	jwks, err := signer.GetJWKS()
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "kid-1", jwks.Keys[0].Kid)
}

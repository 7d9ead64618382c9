package config

import "github.com/spf13/viper"

const (
	signingKeyRefVar       = "SIGNING_KEY_REF"
	signingKeyIDVar        = "SIGNING_KEY_ID"
	realClientIDRefVar     = "REAL_CLIENT_ID_REF"
	realClientSecretRefVar = "REAL_CLIENT_SECRET_REF"
	mockClientIDRefVar     = "MOCK_CLIENT_ID_REF"
	mockClientSecretRefVar = "MOCK_CLIENT_SECRET_REF"
	secretsProviderVar     = "SECRETS_PROVIDER"
)

// Secret providers
const (
	SecretsProviderEnv = "env"
	SecretsProviderAWS = "aws"
)

// SigningConfig holds references to secret material, never the material itself.
type SigningConfig interface {
	GetSigningKeyRef() string
	GetSigningKeyID() string
	GetRealClientIDRef() string
	GetRealClientSecretRef() string
	GetMockClientIDRef() string
	GetMockClientSecretRef() string
	GetSecretsProvider() string
}

type Signing struct {
	v *viper.Viper
}

var _ SigningConfig = Signing{}

func (s Signing) GetSigningKeyRef() string {
	return s.v.GetString(signingKeyRefVar)
}

func (s Signing) GetSigningKeyID() string {
	return s.v.GetString(signingKeyIDVar)
}

func (s Signing) GetRealClientIDRef() string {
	return s.v.GetString(realClientIDRefVar)
}

func (s Signing) GetRealClientSecretRef() string {
	return s.v.GetString(realClientSecretRefVar)
}

func (s Signing) GetMockClientIDRef() string {
	return s.v.GetString(mockClientIDRefVar)
}

func (s Signing) GetMockClientSecretRef() string {
	return s.v.GetString(mockClientSecretRefVar)
}

func (s Signing) GetSecretsProvider() string {
	return s.v.GetString(secretsProviderVar)
}

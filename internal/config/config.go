package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	IdentityProviderConfig
	SigningConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetPublicHostname() string
	GetTrustIdentityHeaders() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	IdentityProvider
	Signing
}

// New builds the configuration from the process environment.
func New() Config {
	v := viper.New()
	v.AutomaticEnv()
	return NewFromViper(v)
}

// NewFromViper builds the configuration from an existing viper instance, applying defaults
// for anything that has not been set.
func NewFromViper(v *viper.Viper) Config {
	setDefaults(v)
	return mainConfig{
		EnvVars:          EnvVars{v: v},
		Cors:             Cors{v: v},
		Session:          Session{v: v},
		IdentityProvider: IdentityProvider{v: v},
		Signing:          Signing{v: v},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(portEnvVar, "8080")
	v.SetDefault(appNameVar, "EPS Session Auth")
	v.SetDefault(envVar, "DEV")
	v.SetDefault(logLevelVar, "info")
	v.SetDefault(allowedOriginsVar, "")
	v.SetDefault(trustIdentityHeadersVar, false)

	v.SetDefault(primaryTableVar, "TokenMapping")
	v.SetDefault(secondaryTableVar, "SessionManagement")
	v.SetDefault(idleTimeoutVar, "15m")
	v.SetDefault(refreshWindowVar, "60s")
	v.SetDefault(sessionStoreVar, StoreMemory)
	v.SetDefault(redisAddrVar, "localhost:6379")
	v.SetDefault(redisKeyPrefixVar, "eps:session:")

	v.SetDefault(exchangeTimeoutVar, "2s")
	v.SetDefault(refreshTimeoutVar, "10s")
	v.SetDefault(acceptedACRVar, "AAL3_ANY")
	v.SetDefault(jwksMaxEntriesVar, 5)
	v.SetDefault(jwksMaxAgeVar, "10m")
	v.SetDefault(clockToleranceVar, "5s")
	v.SetDefault(mockModeVar, false)

	v.SetDefault(secretsProviderVar, SecretsProviderEnv)
}

// splitList splits a comma separated setting, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	portEnvVar              = "PORT"
	appNameVar              = "APP_NAME"
	envVar                  = "ENV"
	logLevelVar             = "LOG_LEVEL"
	publicHostnameVar       = "PUBLIC_HOSTNAME"
	trustIdentityHeadersVar = "TRUST_IDENTITY_HEADERS"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.GetString(portEnvVar)
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameVar)
}

func (e EnvVars) GetEnv() string {
	return e.v.GetString(envVar)
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelVar)
}

// GetPublicHostname returns the public host the front end is served from
// (e.g. "cpt-ui-pr-123.dev.example.nhs.uk"). Used to derive the mock callback URI.
func (e EnvVars) GetPublicHostname() string {
	return e.v.GetString(publicHostnameVar)
}

// GetTrustIdentityHeaders enables reading the caller identity from headers set by an
// authenticating proxy. Only safe when that proxy strips the headers from client requests.
func (e EnvVars) GetTrustIdentityHeaders() bool {
	return e.v.GetBool(trustIdentityHeadersVar)
}

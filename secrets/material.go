package secrets

import (
	"context"
	"fmt"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/config"
	errs "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/errors"
)

// Material is everything secret the session subsystem needs, resolved once at startup.
type Material struct {
	SigningKeyPEM    string
	RealClientID     string
	RealClientSecret string
	MockClientID     string
	MockClientSecret string
}

// Resolve fetches every configured reference. The signing key and real client id are
// required; mock credentials are required only when mock mode is enabled.
func Resolve(ctx context.Context, p Provider, cfg config.SigningConfig, mockEnabled bool) (*Material, error) {
	var m Material
	var err error

	required := func(name, ref string, dst *string) {
		if err != nil {
			return
		}
		if ref == "" {
			err = errs.Wrapf(errs.ErrConfiguration, "%s reference is not set", name)
			return
		}
		*dst, err = p.GetSecret(ctx, ref)
		if err != nil {
			err = fmt.Errorf("resolve %s: %w", name, err)
		}
	}
	optional := func(name, ref string, dst *string) {
		if err != nil || ref == "" {
			return
		}
		*dst, err = p.GetSecret(ctx, ref)
		if err != nil {
			err = fmt.Errorf("resolve %s: %w", name, err)
		}
	}

	required("signing key", cfg.GetSigningKeyRef(), &m.SigningKeyPEM)
	required("real client id", cfg.GetRealClientIDRef(), &m.RealClientID)
	optional("real client secret", cfg.GetRealClientSecretRef(), &m.RealClientSecret)
	if mockEnabled {
		required("mock client id", cfg.GetMockClientIDRef(), &m.MockClientID)
		required("mock client secret", cfg.GetMockClientSecretRef(), &m.MockClientSecret)
	}

	if err != nil {
		return nil, err
	}
	return &m, nil
}

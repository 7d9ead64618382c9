// Package idtoken verifies identity tokens issued by the upstream clinical identity
// provider before they are exchanged for an access token.
package idtoken

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/jwks"
)

const (
	// DefaultACR is assumed when a token carries no acr claim.
	DefaultACR = "AAL3_ANY"
	// StrongACRPrefix marks assurance levels accepted without an allow-list entry.
	StrongACRPrefix = "AAL3"

	DefaultClockTolerance = 5 * time.Second
)

// KeySource resolves signing keys by key id and verifies JWS signatures.
type KeySource interface {
	oidc.KeySet
	Key(ctx context.Context, kid string) (any, error)
}

type Config struct {
	Issuer         string
	Audience       string
	AcceptedACR    []string
	ClockTolerance time.Duration
}

// Claims are the verified fields of an identity token this service relies on.
type Claims struct {
	Subject  string
	Issuer   string
	ACR      string
	Expiry   time.Time
	IssuedAt time.Time
}

type Option func(v *Verifier)

func WithNowTime(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

type Verifier struct {
	cfg      Config
	keys     KeySource
	verifier *oidc.IDTokenVerifier
	now      func() time.Time
}

func NewVerifier(keys KeySource, cfg Config, opts ...Option) *Verifier {
	if cfg.ClockTolerance <= 0 {
		cfg.ClockTolerance = DefaultClockTolerance
	}

	v := &Verifier{
		cfg:  cfg,
		keys: keys,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	algs := make([]string, 0, len(jwks.SupportedAlgorithms))
	for _, alg := range jwks.SupportedAlgorithms {
		algs = append(algs, string(alg))
	}

	v.verifier = oidc.NewVerifier(cfg.Issuer, keys, &oidc.Config{
		ClientID:             cfg.Audience,
		SupportedSigningAlgs: algs,
		Now: func() time.Time {
			return v.now().Add(-v.cfg.ClockTolerance)
		},
	})
	return v
}

// Verify checks signature, issuer, audience, expiry and assurance level. Every failure is
// a *VerificationError.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	sig, err := jose.ParseSigned(raw, jwks.SupportedAlgorithms)
	if err != nil {
		return nil, &VerificationError{Stage: StageDecode, Err: err}
	}
	if len(sig.Signatures) != 1 {
		return nil, &VerificationError{Stage: StageDecode, Err: fmt.Errorf("expected one signature, got %d", len(sig.Signatures))}
	}

	if _, err := v.keys.Key(ctx, sig.Signatures[0].Header.KeyID); err != nil {
		return nil, &VerificationError{Stage: StageKey, Err: err}
	}

	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, &VerificationError{Stage: StageVerify, Err: err}
	}

	var extra struct {
		ACR string `json:"acr"`
	}
	if err := token.Claims(&extra); err != nil {
		return nil, &VerificationError{Stage: StageClaims, Err: err}
	}

	acr := extra.ACR
	if acr == "" {
		acr = DefaultACR
	}
	if !v.acceptableACR(acr) {
		return nil, &VerificationError{Stage: StageACR, Err: fmt.Errorf("assurance level %q not accepted", acr)}
	}

	return &Claims{
		Subject:  token.Subject,
		Issuer:   token.Issuer,
		ACR:      acr,
		Expiry:   token.Expiry,
		IssuedAt: token.IssuedAt,
	}, nil
}

func (v *Verifier) acceptableACR(acr string) bool {
	return strings.HasPrefix(acr, StrongACRPrefix) || slices.Contains(v.cfg.AcceptedACR, acr)
}

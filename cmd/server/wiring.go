package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/config"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/metrics"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/secrets"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions/dynamorepo"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions/redisrepo"
	fakesessionrepo "github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions/repofakes"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/assertion"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/exchange"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/idtoken"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/jwks"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/token/keys"
)

// buildAuthorizer resolves secrets and assembles the session arbitrator with its
// orchestrator and token collaborators.
func buildAuthorizer(ctx context.Context, c config.Config, m *metrics.Metrics) (*auth.Arbitrator, error) {
	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("awsconfig.LoadDefaultConfig: %w", err)
		}
		awsCfg = &cfg
		return cfg, nil
	}

	provider, err := secretsProvider(c, loadAWS)
	if err != nil {
		return nil, err
	}
	material, err := secrets.Resolve(ctx, provider, c, c.GetMockModeEnabled())
	if err != nil {
		return nil, err
	}

	keyPair, err := keys.LoadKeyPairFromPEM(c.GetSigningKeyID(), keys.RS512, material.SigningKeyPEM)
	if err != nil {
		return nil, err
	}
	assertions := assertion.NewBuilder(keys.NewKeyPairSigner(keyPair), material.RealClientID)

	httpClient := &http.Client{}
	exchanger := exchange.NewClient(
		exchange.WithHTTPClient(httpClient),
		exchange.WithMetrics(m),
		exchange.WithExchangeTimeout(c.GetTokenExchangeTimeout()),
		exchange.WithRefreshTimeout(c.GetTokenRefreshTimeout()),
	)

	keyCache, err := jwks.New(c.GetRealJWKSEndpoint(),
		jwks.WithHTTPClient(httpClient),
		jwks.WithBounds(c.GetJWKSCacheMaxEntries(), c.GetJWKSCacheMaxAge()),
		jwks.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	verifier := idtoken.NewVerifier(keyCache, idtoken.Config{
		Issuer:         c.GetRealIssuer(),
		Audience:       c.GetRealOIDCClientID(),
		AcceptedACR:    c.GetAcceptedACRValues(),
		ClockTolerance: c.GetIDTokenClockTolerance(),
	})

	repo, err := sessionRepo(c, loadAWS)
	if err != nil {
		return nil, err
	}

	providers := auth.Providers{
		Real: auth.IdentityProviderEndpoints{
			TokenEndpoint: c.GetRealTokenEndpoint(),
			Credentials:   exchange.ClientCredentials{ClientID: material.RealClientID, ClientSecret: material.RealClientSecret},
		},
	}
	if c.GetMockModeEnabled() {
		providers.Mock = &auth.IdentityProviderEndpoints{
			IsMock:        true,
			TokenEndpoint: c.GetMockTokenEndpoint(),
			Credentials:   exchange.ClientCredentials{ClientID: material.MockClientID, ClientSecret: material.MockClientSecret},
			RedirectURI:   auth.MockCallbackURI(c.GetPublicHostname()),
		}
		log.Warn().Str("redirectUri", providers.Mock.RedirectURI).Msg("mock identity provider enabled")
	}

	opts := []auth.Option{
		auth.WithLogger(log.Logger),
		auth.WithMetrics(m),
		auth.WithIdleTimeout(c.GetIdleSessionTimeout()),
		auth.WithRefreshWindow(c.GetTokenRefreshWindow()),
	}
	authenticator, err := auth.NewAuthenticator(auth.Deps{
		Sessions:   repo,
		Exchanger:  exchanger,
		Assertions: assertions,
		Verifier:   verifier,
	}, providers, opts...)
	if err != nil {
		return nil, err
	}

	return auth.NewArbitrator(repo, authenticator, auth.Tables{
		Primary:   c.GetPrimaryTable(),
		Secondary: c.GetSecondaryTable(),
	}, opts...)
}

func secretsProvider(c config.Config, loadAWS func() (aws.Config, error)) (secrets.Provider, error) {
	switch c.GetSecretsProvider() {
	case config.SecretsProviderEnv:
		return secrets.NewEnvProvider(), nil
	case config.SecretsProviderAWS:
		cfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		return secrets.NewAWSProvider(secretsmanager.NewFromConfig(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown secrets provider %q", c.GetSecretsProvider())
	}
}

func sessionRepo(c config.Config, loadAWS func() (aws.Config, error)) (sessions.Repo, error) {
	switch c.GetSessionStore() {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory session store; sessions are lost on restart")
		return fakesessionrepo.NewFakeSessionRepo(), nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
		})
		return redisrepo.New(client, c.GetRedisKeyPrefix()), nil
	case config.StoreDynamoDB:
		cfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		return dynamorepo.New(dynamodb.NewFromConfig(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", c.GetSessionStore())
	}
}

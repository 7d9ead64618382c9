// Package secrets resolves key material and client credentials by reference.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

var ErrSecretNotFound = errors.New("secret not found")

// Provider returns the secret value behind a reference.
type Provider interface {
	GetSecret(ctx context.Context, ref string) (string, error)
}

// EnvProvider treats each reference as an environment variable name.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

func (p *EnvProvider) GetSecret(_ context.Context, ref string) (string, error) {
	value, ok := p.lookup(ref)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: env %s", ErrSecretNotFound, ref)
	}
	// PEM blocks passed through env files commonly arrive with escaped newlines
	return strings.ReplaceAll(value, `\n`, "\n"), nil
}

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider treats each reference as a Secrets Manager secret ARN or name.
type AWSProvider struct {
	client SecretsManagerAPI
}

func NewAWSProvider(client SecretsManagerAPI) *AWSProvider {
	return &AWSProvider{client: client}
}

func (p *AWSProvider) GetSecret(ctx context.Context, ref string) (string, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, ref)
		}
		return "", fmt.Errorf("get secret %s: %w", ref, err)
	}

	value := aws.ToString(out.SecretString)
	if value == "" && len(out.SecretBinary) > 0 {
		value = string(out.SecretBinary)
	}
	if value == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrSecretNotFound, ref)
	}
	return value, nil
}

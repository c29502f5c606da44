package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI is the subset of the Secrets Manager client in use.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsProvider implements SecretsProvider using AWS Secrets Manager
type AWSSecretsProvider struct {
	client SecretsManagerAPI
	prefix string
}

var _ SecretsProvider = (*AWSSecretsProvider)(nil)

// NewAWSSecretsProvider loads the default AWS config for region.
func NewAWSSecretsProvider(ctx context.Context, region, prefix string) (*AWSSecretsProvider, error) {
	if region == "" {
		return nil, fmt.Errorf("region is required for AWS Secrets Manager")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewAWSSecretsProviderWithClient(secretsmanager.NewFromConfig(cfg), prefix), nil
}

func NewAWSSecretsProviderWithClient(client SecretsManagerAPI, prefix string) *AWSSecretsProvider {
	return &AWSSecretsProvider{client: client, prefix: prefix}
}

// GetSecret reads prefix+key; when that secret does not exist it retries key alone.
func (a *AWSSecretsProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if a.prefix != "" {
		value, err := a.get(ctx, a.prefix+key)
		var notFound *types.ResourceNotFoundException
		if err == nil || !errors.As(err, &notFound) {
			return value, wrapSecretErr(key, err)
		}
	}
	value, err := a.get(ctx, key)
	return value, wrapSecretErr(key, err)
}

func (a *AWSSecretsProvider) get(ctx context.Context, id string) (string, error) {
	out, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(id)})
	if err != nil {
		return "", err
	}
	if out.SecretString == nil {
		return "", errors.New("secret has no string value")
	}
	return *out.SecretString, nil
}

func wrapSecretErr(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to get secret %s: %w", key, err)
}

func (a *AWSSecretsProvider) Close() error {
	return nil
}

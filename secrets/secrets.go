package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/awantoch/portflow/config"
	"github.com/awantoch/portflow/constants"
)

// SecretsProvider resolves secret values by key.
type SecretsProvider interface {
	GetSecret(ctx context.Context, key string) (string, error)
	Close() error
}

// Reference prefixes accepted in credential fields.
const (
	envRefPrefix    = "$env:"
	secretRefPrefix = "$secret:"
)

// NewSecretsProvider creates a secrets provider from configuration.
func NewSecretsProvider(ctx context.Context, cfg *config.SecretsConfig) (SecretsProvider, error) {
	if cfg == nil {
		return NewEnvSecretsProvider(""), nil
	}

	switch cfg.Driver {
	case "", constants.SecretsDriverEnv:
		return NewEnvSecretsProvider(cfg.Prefix), nil
	case constants.SecretsDriverAWS:
		if cfg.Region == "" {
			return nil, fmt.Errorf("region is required for AWS Secrets Manager")
		}
		return NewAWSSecretsProvider(ctx, cfg.Region, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unsupported secrets driver: %s", cfg.Driver)
	}
}

// Resolve expands a credential value. "$env:NAME" always reads the process
// environment, "$secret:NAME" asks provider, and anything else is returned as is.
func Resolve(ctx context.Context, provider SecretsProvider, value string) (string, error) {
	switch {
	case strings.HasPrefix(value, envRefPrefix):
		return NewEnvSecretsProvider("").GetSecret(ctx, strings.TrimPrefix(value, envRefPrefix))
	case strings.HasPrefix(value, secretRefPrefix):
		if provider == nil {
			return "", fmt.Errorf("no secrets provider configured for %s", value)
		}
		return provider.GetSecret(ctx, strings.TrimPrefix(value, secretRefPrefix))
	default:
		return value, nil
	}
}

// ResolveCredentials expands the client ID and secret of cfg in place.
func ResolveCredentials(ctx context.Context, provider SecretsProvider, cfg *config.PortConfig) error {
	id, err := Resolve(ctx, provider, cfg.ClientID)
	if err != nil {
		return fmt.Errorf("resolve client_id: %w", err)
	}
	secret, err := Resolve(ctx, provider, cfg.ClientSecret)
	if err != nil {
		return fmt.Errorf("resolve client_secret: %w", err)
	}
	cfg.ClientID, cfg.ClientSecret = id, secret
	return nil
}

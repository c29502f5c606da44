package secrets

import (
	"context"
	"fmt"
	"os"
)

// EnvSecretsProvider implements SecretsProvider using environment variables
type EnvSecretsProvider struct {
	prefix string
}

var _ SecretsProvider = (*EnvSecretsProvider)(nil)

func NewEnvSecretsProvider(prefix string) *EnvSecretsProvider {
	return &EnvSecretsProvider{prefix: prefix}
}

// GetSecret reads prefix+key, then key alone.
func (e *EnvSecretsProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if e.prefix != "" {
		if value := os.Getenv(e.prefix + key); value != "" {
			return value, nil
		}
	}
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret not found in environment variables: %s", key)
}

func (e *EnvSecretsProvider) Close() error {
	return nil
}

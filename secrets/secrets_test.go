package secrets

import (
	"context"
	"strings"
	"testing"

	"github.com/awantoch/portflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSecretsProvider(t *testing.T) {
	ctx := context.Background()
	t.Setenv("TEST_SECRET", "test_value")
	t.Setenv("PORTFLOW_API_KEY", "api_key_value")

	t.Run("WithoutPrefix", func(t *testing.T) {
		provider := NewEnvSecretsProvider("")
		value, err := provider.GetSecret(ctx, "TEST_SECRET")
		require.NoError(t, err)
		assert.Equal(t, "test_value", value)

		_, err = provider.GetSecret(ctx, "NON_EXISTENT")
		assert.Error(t, err)
	})

	t.Run("WithPrefix", func(t *testing.T) {
		value, err := NewEnvSecretsProvider("PORTFLOW_").GetSecret(ctx, "API_KEY")
		require.NoError(t, err)
		assert.Equal(t, "api_key_value", value)
	})

	t.Run("FallbackWithoutPrefix", func(t *testing.T) {
		value, err := NewEnvSecretsProvider("MISSING_").GetSecret(ctx, "TEST_SECRET")
		require.NoError(t, err)
		assert.Equal(t, "test_value", value)
	})
}

func TestNewSecretsProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewSecretsProvider(ctx, nil)
	require.NoError(t, err)
	assert.IsType(t, &EnvSecretsProvider{}, p)

	p, err = NewSecretsProvider(ctx, &config.SecretsConfig{Driver: "env", Prefix: "X_"})
	require.NoError(t, err)
	assert.IsType(t, &EnvSecretsProvider{}, p)

	_, err = NewSecretsProvider(ctx, &config.SecretsConfig{Driver: "aws"})
	assert.ErrorContains(t, err, "region")

	_, err = NewSecretsProvider(ctx, &config.SecretsConfig{Driver: "vault"})
	assert.ErrorContains(t, err, "unsupported secrets driver")
}

// Every driver name the factory accepts must pass config validation, and
// the reverse.
func TestNewSecretsProvider_AgreesWithConfigValidate(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{"env", "aws", "aws-sm", "AWS", "vault"} {
		cfg := config.Config{Secrets: config.SecretsConfig{Driver: driver, Region: "us-east-1"}}
		config.ApplyDefaults(&cfg)
		validateErr := cfg.Validate()
		_, factoryErr := NewSecretsProvider(ctx, &config.SecretsConfig{Driver: driver})
		unsupported := factoryErr != nil && strings.Contains(factoryErr.Error(), "unsupported")
		assert.Equal(t, validateErr != nil, unsupported, "driver %q", driver)
	}
}

type staticProvider map[string]string

func (s staticProvider) GetSecret(_ context.Context, key string) (string, error) {
	if v, ok := s[key]; ok {
		return v, nil
	}
	return "", assert.AnError
}

func (s staticProvider) Close() error { return nil }

func TestResolve(t *testing.T) {
	ctx := context.Background()
	t.Setenv("PORT_TEST_SECRET", "from-env")
	provider := staticProvider{"port/secret": "from-store"}

	v, err := Resolve(ctx, provider, "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", v)

	v, err = Resolve(ctx, provider, "$env:PORT_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	v, err = Resolve(ctx, provider, "$secret:port/secret")
	require.NoError(t, err)
	assert.Equal(t, "from-store", v)

	_, err = Resolve(ctx, provider, "$secret:missing")
	assert.Error(t, err)

	_, err = Resolve(ctx, nil, "$secret:port/secret")
	assert.Error(t, err)
}

func TestResolveCredentials(t *testing.T) {
	t.Setenv("PORT_TEST_ID", "id-1")
	cfg := &config.PortConfig{ClientID: "$env:PORT_TEST_ID", ClientSecret: "$secret:s"}

	require.NoError(t, ResolveCredentials(context.Background(), staticProvider{"s": "shh"}, cfg))
	assert.Equal(t, "id-1", cfg.ClientID)
	assert.Equal(t, "shh", cfg.ClientSecret)

	cfg = &config.PortConfig{ClientID: "$env:PORT_TEST_UNSET_ID"}
	assert.ErrorContains(t, ResolveCredentials(context.Background(), nil, cfg), "client_id")
}

package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "USD", cfg.Currency.Base)
	assert.Equal(t, "database", cfg.Currency.FeedSource)
	assert.Equal(t, 0.16, cfg.Sales.DefaultTaxPerc)
	assert.Equal(t, 7, cfg.Sales.DuplicateOpportunityDays)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 480, cfg.Auth.TokenTTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CURRENCY_BASE", "eur")
	t.Setenv("DATABASE_PORT", "6543")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Currency.Base)
	assert.Equal(t, 6543, cfg.Database.Port)
}

type mapSource map[string]string

func (m mapSource) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if v, ok := m[secretName]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "localhost"

	err := applySecrets(context.Background(), cfg, mapSource{
		"POSTGRES-MAIN-HOST": "db.internal",
		"jwt-secret":         "from-vault",
		"admin-api-key":      "key",
	})
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "from-vault", cfg.Auth.JWTSecret)
	assert.Equal(t, "key", cfg.Auth.APIKey)
}

func TestApplySecrets_RequiresJWTSecret(t *testing.T) {
	err := applySecrets(context.Background(), &Config{}, mapSource{})
	assert.Error(t, err)
}

func TestDurations(t *testing.T) {
	s := ServerConfig{ReadTimeout: 2, WriteTimeout: 3, RequestTimeout: 4}
	assert.Equal(t, "2s", s.ReadTimeoutDuration().String())
	assert.Equal(t, "3s", s.WriteTimeoutDuration().String())
	assert.Equal(t, "4s", s.RequestTimeoutDuration().String())

	a := AuthConfig{TokenTTL: 90}
	assert.Equal(t, "1h30m0s", a.TokenTTLDuration().String())
}

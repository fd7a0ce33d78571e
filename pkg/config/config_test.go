package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromYAML(t *testing.T, yaml string) (*Config, error) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(yaml), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return Load("test")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFromYAML(t, "")
	require.NoError(t, err)

	assert.Equal(t, "8084", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, 72*time.Hour, cfg.Review.DelayedAfter)
	assert.Equal(t, 10, cfg.Review.PageSize)
	assert.True(t, cfg.Auth.EnableVerification)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	cfg, err := loadFromYAML(t, `
port: "9000"
review:
  delayed_after: 24h
  page_size: 25
database:
  host: pg.internal
  database: reviews
`)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.Review.DelayedAfter)
	assert.Equal(t, 25, cfg.Review.PageSize)
	assert.Contains(t, cfg.Database.ConnectionString(), "host=pg.internal")
	assert.Contains(t, cfg.Database.ConnectionString(), "dbname=reviews")
}

func TestLoad_JWKSEndpoints(t *testing.T) {
	cfg, err := loadFromYAML(t, `
auth:
  jwks_endpoints: "https://auth.example=https://auth.example/.well-known/jwks.json"
`)
	require.NoError(t, err)

	assert.Equal(t,
		"https://auth.example/.well-known/jwks.json",
		cfg.Auth.JWKSEndpoints["https://auth.example"])
}

func TestLoad_RejectsNonPositivePageSize(t *testing.T) {
	_, err := loadFromYAML(t, `
review:
  page_size: -1
`)
	assert.Error(t, err)
}

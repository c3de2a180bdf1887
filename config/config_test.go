package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/high-horse/fingerprint-server/internal/decision"
	"github.com/high-horse/fingerprint-server/internal/matching"
	"github.com/high-horse/fingerprint-server/internal/minutiae"
	"github.com/high-horse/fingerprint-server/internal/ridge"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fingerprint.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	LoadDefaultConfig()
	c := Config
	require.NotNil(t, c)

	assert.Equal(t, ridge.DefaultParams(), c.Ridge)
	assert.Equal(t, minutiae.DefaultParams(), c.Detector)
	assert.Equal(t, matching.DefaultParams(), c.Matcher)
	assert.Equal(t, decision.DefaultPolicy(), c.Decision)
	assert.Equal(t, ":9090", c.Server.Address)
	assert.Equal(t, 30*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, uint8(127), c.Server.SkeletonThreshold)
	assert.Equal(t, "memory", c.Store.Backend)
	assert.Equal(t, "localhost:6379", c.Store.Redis.Address)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 24*time.Hour, c.Log.Rotation)
	assert.NoError(t, c.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
workers = 4

[matcher]
global_distance = 20.0

[decision]
pos_bound = 25.0

[store]
backend = "redis"

[store.redis]
address = "redis:6379"
db = 2

[log]
level = "debug"
rotation = "1h"
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Same(t, c, Config)

	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 20.0, c.Matcher.GlobalDistance)
	assert.Equal(t, 7.0, c.Matcher.LocalDistance, "untouched keys keep defaults")
	assert.Equal(t, 25.0, c.Decision.PosBound)
	assert.Equal(t, 50.0, c.Decision.HighScore)
	assert.Equal(t, "redis", c.Store.Backend)
	assert.Equal(t, 2, c.Store.Redis.DB)
	assert.Equal(t, time.Hour, c.Log.Rotation)
	assert.Equal(t, 4, c.MatcherParams().Workers)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "[matcher]\nglobal_distanse = 3.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matcher.global_distanse")
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeConfig(t, "[store]\nbackend = \"postgres\"\n"))
	assert.ErrorContains(t, err, "postgres")

	_, err = Load(writeConfig(t, "[detector]\nmin_walk = 30.0\n"))
	assert.ErrorContains(t, err, "min_walk")

	_, err = Load(writeConfig(t, "[ridge]\nmask_window = 24\n"))
	assert.ErrorContains(t, err, "mask_window")

	_, err = Load(writeConfig(t, "[ridge]\norientation_window = -3\n"))
	assert.ErrorContains(t, err, "orientation_window")

	_, err = Load(writeConfig(t, "[ridge]\nperiod_blur = 0\n"))
	assert.ErrorContains(t, err, "period_blur")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

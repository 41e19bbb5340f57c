package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv(lookup(map[string]string{"JWT_SECRET": "s3cret"}))
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "python3", cfg.PythonPath)
		assert.Equal(t, "./ml", cfg.ScriptDir)
		assert.Equal(t, "ai_ml.py", cfg.DefaultScript)
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
		assert.Equal(t, 30*time.Second, cfg.PredictionTimeout)
		assert.Equal(t, int64(8), cfg.MaxConcurrency)
		assert.Equal(t, uint32(5), cfg.BreakerFailures)
		assert.Equal(t, time.Minute, cfg.MetricsInterval)
		assert.False(t, cfg.UsesMemoryStore())
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := FromEnv(lookup(map[string]string{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("invalid values", func(t *testing.T) {
		cases := map[string]map[string]string{
			"timeout":     {"JWT_SECRET": "x", "PREDICTION_TIMEOUT": "soon"},
			"concurrency": {"JWT_SECRET": "x", "PREDICTION_MAX_CONCURRENCY": "0"},
			"ttl":         {"JWT_SECRET": "x", "JWT_TTL": "-1h"},
			"breaker":     {"JWT_SECRET": "x", "PREDICTION_BREAKER_FAILURES": "many"},
			"metrics":     {"JWT_SECRET": "x", "METRICS_EXPORT_INTERVAL": "0s"},
		}
		for name, env := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := FromEnv(lookup(env))
				assert.Error(t, err)
			})
		}
	})

	t.Run("python path override", func(t *testing.T) {
		cfg, err := FromEnv(lookup(map[string]string{"JWT_SECRET": "x", "PYTHON_PATH": "/opt/venv/bin/python"}))
		require.NoError(t, err)
		assert.Equal(t, "/opt/venv/bin/python", cfg.PythonPath)
	})
}

func TestAllowedOrigins(t *testing.T) {
	env := map[string]string{
		"JWT_SECRET":   "x",
		"FRONTEND_URL": "https://app.lifelink.io/, https://ops.lifelink.io ,",
	}

	cfg, err := FromEnv(lookup(env))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.lifelink.io", "https://ops.lifelink.io"}, cfg.FrontendOrigins)

	origins := cfg.AllowedOrigins()
	assert.Contains(t, origins, "https://app.lifelink.io")
	assert.Contains(t, origins, "http://localhost:5173")

	env["APP_ENV"] = "production"
	cfg, err = FromEnv(lookup(env))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.lifelink.io", "https://ops.lifelink.io"}, cfg.AllowedOrigins())
}

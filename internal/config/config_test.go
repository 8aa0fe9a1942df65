package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"petitiondesk/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATA_FILE", "MODEL_STORE", "MODEL_DIR", "PORT", "SEED", "TRANSCRIBE_URL", "TRANSCRIBE_TIMEOUT", "SESSION_IDLE_TTL", "MAX_SESSIONS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "petitions_dataset.csv", cfg.Data.File)
	assert.Equal(t, int64(42), cfg.Data.Seed)
	assert.Equal(t, StoreLocal, cfg.Store.Kind)
	assert.Equal(t, "./models", cfg.Store.Dir)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "", cfg.Transcribe.URL)
	assert.Equal(t, 30*time.Second, cfg.Transcribe.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionIdleTTL)
	assert.Equal(t, 10000, cfg.Server.MaxSessions)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MODEL_STORE", "sql")
	t.Setenv("MODEL_DB_DRIVER", "postgres")
	t.Setenv("MODEL_DB_DSN", "postgres://localhost/petitions")
	t.Setenv("SEED", "7")
	t.Setenv("TRANSCRIBE_TIMEOUT", "5s")
	t.Setenv("SESSION_IDLE_TTL", "15m")
	t.Setenv("MAX_SESSIONS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreSQL, cfg.Store.Kind)
	assert.Equal(t, "postgres", cfg.Store.DBDriver)
	assert.Equal(t, int64(7), cfg.Data.Seed)
	assert.Equal(t, 5*time.Second, cfg.Transcribe.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Server.SessionIdleTTL)
	assert.Equal(t, 250, cfg.Server.MaxSessions)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"MODEL_STORE": "s3"}},
		{"unknown driver", map[string]string{"MODEL_STORE": "sql", "MODEL_DB_DRIVER": "mysql"}},
		{"negative timeout", map[string]string{"TRANSCRIBE_TIMEOUT": "-1s"}},
		{"zero session ttl", map[string]string{"SESSION_IDLE_TTL": "0s"}},
		{"negative max sessions", map[string]string{"MAX_SESSIONS": "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_PORT=9191\n"), 0o644))
	t.Setenv("API_PORT", "")
	os.Unsetenv("API_PORT")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "9191", os.Getenv("API_PORT"))

	// missing files are skipped
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
postgres:
  dsn: postgres://party:party@db:5432/party
nats:
  url: nats://nats:4222
jwt:
  secret: file-secret
  default_ttl: 2h
http:
  address: ":9000"
  rate_limit: 5
  rate_burst: 8
game:
  max_stars: 3
  forgiveness_buffer: 4s
  default_answer_seconds: 45
moderation:
  slur_list_path: /etc/party/slurs.txt
smoother:
  endpoint: https://smooth.example/v1
  token_url: https://auth.example/token
  client_id: party
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "postgres://party:party@db:5432/party", cfg.Postgres.DSN)
	assert.Equal(t, 2*time.Hour, cfg.JWT.DefaultTTL)
	assert.Equal(t, HTTPConfig{Address: ":9000", RateLimit: 5, RateBurst: 8}, cfg.HTTP)
	assert.Equal(t, 3, cfg.Game.MaxStars)
	assert.Equal(t, 4*time.Second, cfg.Game.ForgivenessBuffer)
	assert.Equal(t, 45*time.Second, cfg.Game.AnswerWindow())
	assert.Equal(t, 60*time.Second, cfg.Game.VoteWindow(), "unset keys keep defaults")
	assert.Equal(t, "/etc/party/slurs.txt", cfg.Moderation.SlurListPath)
	assert.Equal(t, 10*time.Second, cfg.Smoother.Timeout)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("NATS_NKEY_SEED", "SUAseed")
	t.Setenv("MAX_STARS", "7")
	t.Setenv("FORGIVENESS_BUFFER", "500ms")
	t.Setenv("ENV", "production")

	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, "SUAseed", cfg.NATS.NKeySeed)
	assert.Equal(t, 7, cfg.Game.MaxStars)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.ForgivenessBuffer)
	assert.Equal(t, "production", cfg.Observability.Environment)
}

func TestLoadConfig_EnvFallback(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"NATS_URL": "nats://localhost:4222"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "missing nats url",
			env:     map[string]string{"DATABASE_URL": "postgres://env"},
			wantErr: "NATS_URL",
		},
		{
			name:    "bad max stars",
			env:     map[string]string{"DATABASE_URL": "postgres://env", "NATS_URL": "nats://x", "MAX_STARS": "lots"},
			wantErr: "MAX_STARS",
		},
		{
			name: "complete",
			env:  map[string]string{"DATABASE_URL": "postgres://env", "NATS_URL": "nats://x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"DATABASE_URL", "NATS_URL", "MAX_STARS"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig(missing)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ":8080", cfg.HTTP.Address)
			assert.Equal(t, 24*time.Hour, cfg.JWT.DefaultTTL)
			assert.Equal(t, 5, cfg.Game.MaxStars)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef-secret"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	for _, k := range []string{"DATABASE_URL", "PORT", "MESSAGE_CAP", "SESSION_TTL", "STORAGE_DRIVER", "OPENAI_MODEL_CHAT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 50, cfg.MessageCap)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, StorageLocal, cfg.StorageDriver)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nmessage_cap: 10\nstorage_driver: memory\njwt_secret: "+secret+"\n"), 0o600))
	t.Setenv("MESSAGE_CAP", "3")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 3, cfg.MessageCap)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
}

func TestValidate(t *testing.T) {
	base := Config{JWTSecret: secret, MessageCap: 1, SessionTTL: time.Hour, StorageDriver: StorageLocal}
	require.NoError(t, base.Validate())

	short := base
	short.JWTSecret = "short"
	assert.ErrorContains(t, short.Validate(), "JWT_SECRET")

	s3 := base
	s3.StorageDriver = StorageS3
	assert.ErrorContains(t, s3.Validate(), "S3_BUCKET")

	unknown := base
	unknown.StorageDriver = "ftp"
	assert.ErrorContains(t, unknown.Validate(), `"ftp"`)
}

func TestLogger(t *testing.T) {
	cfg := Config{LogLevel: "debug", LogFormat: "json"}
	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	cfg.LogLevel = "loud"
	_, err = cfg.Logger()
	assert.Error(t, err)
}

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MEDIA_UPLOAD_ROOT", "/srv/media")
	t.Setenv("METADATA_DRIVER", "mongo")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "/srv/media", cfg.Media.UploadRoot)
	assert.Equal(t, "mongo", cfg.MetadataDriver)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORAGE_DRIVER", "MEDIA_FETCH_TIMEOUT_SEC", "MEDIA_STREAM_CHUNK_BYTES", "APP_ENV", "MONGO_COLLECTION"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, 10, cfg.Media.FetchTimeoutSec)
	assert.Equal(t, 32<<10, cfg.Media.StreamChunkSize)
	assert.Equal(t, "media", cfg.Mongo.Collection)
	assert.False(t, cfg.Development())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

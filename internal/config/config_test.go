package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.Equal(t, 60*time.Second, cfg.GRPC.KeepaliveTime)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, ContentStoreFS, cfg.ContentStore)
	assert.Equal(t, 5, cfg.Uploads.MaxFilesPerNote)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxFileSize())
	assert.Equal(t, "/uploads", cfg.Uploads.URLPrefix)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.Origins())
}

func TestParse_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MAX_FILES_PER_NOTE", "3")
	t.Setenv("MAX_FILE_SIZE_MB", "1")
	t.Setenv("FRONTEND_ORIGIN", "https://notes.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMongo, cfg.StoreDriver)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, 3, cfg.Uploads.MaxFilesPerNote)
	assert.Equal(t, int64(1<<20), cfg.Uploads.MaxFileSize())
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Equal(t, "https://notes.example.com", cfg.CORS.Origins()[0])
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":     {"STORE_DRIVER": "redis"},
		"unknown content":   {"CONTENT_STORE": "ftp"},
		"s3 without bucket": {"CONTENT_STORE": "s3"},
		"zero slots":        {"MAX_FILES_PER_NOTE": "0"},
		"zero size":         {"MAX_FILE_SIZE_MB": "0"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

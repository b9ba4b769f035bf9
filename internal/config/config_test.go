package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "HTTP_ADDR", "UPLOAD_DIR", "UPLOAD_TMP_DIR", "DATABASE_URL", "JWT_SECRET",
		"JWT_TTL", "LOG_LEVEL", "UPLOAD_ALLOWED_FIELDS", "UPLOAD_CONSTRAINTS",
		"UPLOAD_CONSTRAINTS_FILE", "MAX_MULTIPART_MEMORY", "UPLOAD_MAX_FILE_SIZE",
		"CORS_ALLOWED_ORIGINS", "UPLOAD_CREATE_DIRS",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "uploads.db", cfg.DatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(32<<20), cfg.MaxMultipartMemory)
	assert.Zero(t, cfg.MaxFileSize)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.AuthEnabled())
	assert.True(t, cfg.CreateDirs)
	assert.Empty(t, cfg.Constraints)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLOAD_DIR", "/srv/files")
	t.Setenv("UPLOAD_ALLOWED_FIELDS", "avatar, photos ,")
	t.Setenv("UPLOAD_CONSTRAINTS", "size:<= 2M; type:~ image/")
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "10 MB")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/srv/files", cfg.UploadDir)
	assert.Equal(t, []string{"avatar", "photos"}, cfg.AllowedFields)
	assert.Equal(t, []ConstraintRule{{Alias: "size", Expr: "<= 2M"}, {Alias: "type", Expr: "~ image/"}}, cfg.Constraints)
	assert.Equal(t, int64(10_000_000), cfg.MaxFileSize)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"log level":  {"LOG_LEVEL", "verbose"},
		"memory":     {"MAX_MULTIPART_MEMORY", "lots"},
		"ttl":        {"JWT_TTL", "tomorrow"},
		"constraint": {"UPLOAD_CONSTRAINTS", "size"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnvProdRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestFromEnvRejectsSameDirs(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLOAD_DIR", "/tmp/x")
	t.Setenv("UPLOAD_TMP_DIR", "/tmp/x/")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestParseConstraints(t *testing.T) {
	rules, err := ParseConstraints(" size : < 2048 ;; image:is advanced ")
	require.NoError(t, err)
	assert.Equal(t, []ConstraintRule{{Alias: "size", Expr: "< 2048"}, {Alias: "image", Expr: "is advanced"}}, rules)

	_, err = ParseConstraints("size:")
	assert.ErrorIs(t, err, ErrInvalidConstraintRule)
}

func TestLoadConstraintFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constraints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- alias: size
  expr: "<= 2M"
- alias: mimetype
  expr: image/png image/jpeg
`), 0o600))

	rules, err := LoadConstraintFile(path)
	require.NoError(t, err)
	assert.Equal(t, []ConstraintRule{
		{Alias: "size", Expr: "<= 2M"},
		{Alias: "mimetype", Expr: "image/png image/jpeg"},
	}, rules)

	clearEnv(t)
	t.Setenv("UPLOAD_CONSTRAINTS_FILE", path)
	t.Setenv("UPLOAD_CONSTRAINTS", "type:!= text/html")
	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Len(t, cfg.Constraints, 3)
	assert.Equal(t, "type", cfg.Constraints[2].Alias)
}

func TestLoadConstraintFileMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constraints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- alias: image
  expr: is advanced
  messages:
    fileIsNotImage: "{name} is not a picture"
`), 0o600))

	rules, err := LoadConstraintFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, map[string]string{"fileIsNotImage": "{name} is not a picture"}, rules[0].Messages)
}

func TestLoadConstraintFileRejectsIncompleteEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constraints.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- alias: size\n"), 0o600))

	_, err := LoadConstraintFile(path)
	assert.ErrorIs(t, err, ErrInvalidConstraintRule)
}

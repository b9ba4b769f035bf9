package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileupload/internal/config"
	"fileupload/internal/database"
	"fileupload/internal/domain/constraint"
	"fileupload/internal/pkg/jwt"
	"fileupload/internal/pkg/logging"
	"fileupload/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:           ":0",
		UploadDir:          "/data/uploads",
		TmpDir:             "/data/tmp",
		CreateDirs:         true,
		DatabaseURL:        "file::memory:",
		LogLevel:           "error",
		MaxMultipartMemory: 1 << 20,
		JWTTTL:             time.Hour,
		Constraints:        []config.ConstraintRule{{Alias: "size", Expr: "<= 1K"}},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, afero.Fs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(cfg.DatabaseURL, logging.Discard())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	fs := afero.NewMemMapFs()
	r, err := NewRouter(Deps{Config: cfg, DB: db, Disk: storage.NewDisk(fs), Logger: logging.Discard()})
	require.NoError(t, err)
	return r, fs
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestNewRouterCreatesDirectories(t *testing.T) {
	_, fs := newTestRouter(t, testConfig())

	for _, dir := range []string{"/data/uploads", "/data/tmp"} {
		ok, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, ok, dir)
	}
}

func TestNewRouterRejectsBadConstraint(t *testing.T) {
	cfg := testConfig()
	cfg.Constraints = []config.ConstraintRule{{Alias: "size", Expr: "tiny"}}

	db, err := database.Connect(cfg.DatabaseURL, logging.Discard())
	require.NoError(t, err)
	_, err = NewRouter(Deps{Config: cfg, DB: db, Disk: storage.NewDisk(afero.NewMemMapFs()), Logger: logging.Discard()})
	assert.ErrorContains(t, err, "constraint size")
}

func TestNewRouterRejectsUnknownMessageKey(t *testing.T) {
	cfg := testConfig()
	cfg.Constraints = []config.ConstraintRule{{Alias: "size", Expr: "< 10", Messages: map[string]string{"fileIsNotImage": "x"}}}

	db, err := database.Connect(cfg.DatabaseURL, logging.Discard())
	require.NoError(t, err)
	_, err = NewRouter(Deps{Config: cfg, DB: db, Disk: storage.NewDisk(afero.NewMemMapFs()), Logger: logging.Discard()})
	assert.ErrorIs(t, err, constraint.ErrUnknownMessage)
}

func TestCustomConstraintMessage(t *testing.T) {
	cfg := testConfig()
	cfg.Constraints[0].Messages = map[string]string{constraint.MsgSizeViolated: "too big: {size_bytes} bytes"}
	r, _ := newTestRouter(t, cfg)

	body, ct := multipartBody(t, "doc", "a.txt", bytes.Repeat([]byte("x"), 2048))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"too big: 2048 bytes"`)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	body, ct := multipartBody(t, "doc", "a.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fileupload_files_total{outcome="persisted"}`)
	assert.Contains(t, w.Body.String(), `fileupload_http_requests_total{status="201"}`)
}

func TestUploadWithAuth(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "test-secret"
	r, _ := newTestRouter(t, cfg)

	body, ct := multipartBody(t, "doc", "a.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_HEADER_MISSING")

	token, err := jwt.New(cfg.JWTSecret, time.Hour).GenerateToken(11, "uploader")
	require.NoError(t, err)

	body, ct = multipartBody(t, "doc", "a.txt", bytes.Repeat([]byte("x"), 2048))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"CONSTRAINT"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/constraints", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `= 1K"`)
}

package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"fileupload/internal/domain/constraint"
	"fileupload/internal/metrics"
	"fileupload/internal/pkg/bytesize"
	"fileupload/internal/pkg/response"
	"fileupload/internal/storage"
)

// HandlerConfig is the per-server upload policy applied to every request.
type HandlerConfig struct {
	UploadDir     string
	TmpDir        string
	AllowedFields []string
	Constraints   []ConstraintEntry
	MaxFileSize   int64
}

// Handler serves the upload endpoints. Each POST builds its own Coordinator.
type Handler struct {
	disk     *storage.Disk
	repo     Repository
	registry *constraint.Registry
	cfg      HandlerConfig
	logger   *log.Logger
}

func NewHandler(disk *storage.Disk, repo Repository, registry *constraint.Registry, cfg HandlerConfig, logger *log.Logger) *Handler {
	return &Handler{disk: disk, repo: repo, registry: registry, cfg: cfg, logger: logger}
}

type fileView struct {
	Field        string `json:"field"`
	OriginalName string `json:"original_name"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	MimeType     string `json:"mime_type"`
	DetectedMime string `json:"detected_mime_type,omitempty"`
	Size         int64  `json:"size"`
	ReadableSize string `json:"readable_size"`
}

type errorView struct {
	Kind         ErrorKind `json:"kind"`
	Field        string    `json:"field"`
	OriginalName string    `json:"original_name"`
	Messages     []string  `json:"messages"`
	Constraint   string    `json:"constraint,omitempty"`
}

// Upload godoc
// @Summary Upload one or more files
// @Description Validates every file part against the configured constraints and stores the ones that pass.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param dir query string false "Sub directory of the upload root"
// @Success 201 {object} map[string]interface{}
// @Failure 400,422,500 {object} map[string]interface{}
// @Router /uploads [post]
func (h *Handler) Upload(c *gin.Context) {
	status := h.upload(c)
	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (h *Handler) upload(c *gin.Context) int {
	override := ""
	if sub := c.Query("dir"); sub != "" {
		dir, err := ResolveSubdir(h.cfg.UploadDir, sub)
		if err != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_DIR", err.Error(), gin.H{"dir": sub})
			return http.StatusBadRequest
		}
		override = dir
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FORM", "request is not a valid multipart form")
		return http.StatusBadRequest
	}

	fields, err := FieldsFromMultipart(h.disk.Fs(), form, SpoolOptions{
		TmpDir:      h.cfg.TmpDir,
		MaxFileSize: h.cfg.MaxFileSize,
	})
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_FORM", err.Error(), gin.H{
			"field": MaxFileSizeField,
			"value": form.Value[MaxFileSizeField],
		})
		return http.StatusBadRequest
	}

	opts := []Option{
		WithRegistry(h.registry),
		WithJournal(h.repo),
		WithUploadedBy(userID(c)),
		WithLogger(h.logger),
	}
	if len(h.cfg.AllowedFields) > 0 {
		opts = append(opts, WithAllowedFields(h.cfg.AllowedFields...))
	}

	coord, err := NewCoordinator(h.disk, h.cfg.UploadDir, fields, h.cfg.Constraints, opts...)
	if err != nil {
		h.cleanup(fields)
		switch {
		case errors.Is(err, ErrInvalidValue):
			response.Error(c, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
			return http.StatusBadRequest
		default:
			h.logger.Error("coordinator setup failed", "error", err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "upload is misconfigured")
			return http.StatusInternalServerError
		}
	}
	defer func() {
		if err := CleanupSpooled(h.disk.Fs(), coord.Files()); err != nil {
			h.logger.Warn("spool cleanup failed", "error", err)
		}
		// parts of fields outside the allow-list never reach the coordinator
		h.cleanup(fields)
	}()

	if !coord.HasFiles() {
		response.ErrorWithDetails(c, http.StatusBadRequest, "NO_FILES", ErrNoFiles.Error(), gin.H{
			"allowed_fields": h.cfg.AllowedFields,
		})
		return http.StatusBadRequest
	}

	failures := make([]errorView, 0)
	coord.OnError(func(e *Error) {
		v := errorView{
			Kind:         e.Kind,
			Field:        e.File.FieldName(),
			OriginalName: e.File.OriginalName(),
			Messages:     e.Messages,
		}
		if e.Constraint != nil {
			v.Constraint = e.Constraint.Kind()
		}
		failures = append(failures, v)
	})

	ok := coord.SaveAll(c.Request.Context(), func(f *File) string {
		if err := f.SetName(StoredName(f)); err != nil {
			h.logger.Warn("generated name rejected", "field", f.FieldName(), "error", err)
		}
		return override
	})

	saved := make([]fileView, 0, len(coord.UploadedFiles()))
	for _, f := range coord.UploadedFiles() {
		saved = append(saved, fileView{
			Field:        f.FieldName(),
			OriginalName: f.OriginalName(),
			Name:         f.Name(),
			Path:         f.PersistedPath(),
			MimeType:     f.MimeType(),
			DetectedMime: f.DetectedMimeType(),
			Size:         f.Size(),
			ReadableSize: bytesize.Format(f.Size()),
		})
	}

	status := http.StatusCreated
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	response.Batch(c, status, ok, gin.H{
		"files":      saved,
		"total_size": coord.ReadableAggregatedSize(),
	}, failures)
	return status
}

// cleanup removes whatever spooled parts are still on disk. Persisted parts
// were moved away, so removing them again is a no-op.
func (h *Handler) cleanup(fields []Field) {
	for _, field := range fields {
		for _, rec := range field.Records {
			if rec.TempPath != "" {
				_ = h.disk.Remove(rec.TempPath)
			}
		}
	}
}

// GetByID godoc
// @Summary Get a journal entry
// @Tags Uploads
// @Produce json
// @Param id path string true "Upload ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403,404,500 {object} map[string]interface{}
// @Router /uploads/{id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	u, ok := h.ownedUpload(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, u)
}

// ownedUpload loads the :id entry and writes the error response when it is
// missing or belongs to another user.
func (h *Handler) ownedUpload(c *gin.Context) (*Upload, bool) {
	u, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrUploadNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "upload not found")
			return nil, false
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load upload")
		return nil, false
	}
	if uid := userID(c); uid != 0 && u.UploadedBy != uid {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "you do not own this upload")
		return nil, false
	}
	return u, true
}

// List godoc
// @Summary List journal entries, newest first
// @Tags Uploads
// @Produce json
// @Param limit query int false "Maximum entries (default 100)"
// @Success 200 {object} map[string]interface{}
// @Router /uploads [get]
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	uploads, err := h.repo.List(c.Request.Context(), userID(c), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list uploads")
		return
	}
	response.Success(c, http.StatusOK, uploads)
}

// Delete godoc
// @Summary Delete a persisted file and its journal entry
// @Tags Uploads
// @Produce json
// @Param id path string true "Upload ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403,404,500 {object} map[string]interface{}
// @Router /uploads/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	u, ok := h.ownedUpload(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), u.ID); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "delete failed")
		return
	}
	if err := h.disk.Remove(u.Path); err != nil {
		h.logger.Warn("journal entry deleted but file left on disk", "id", u.ID, "path", u.Path, "error", err)
	}
	response.Success(c, http.StatusOK, gin.H{"id": u.ID, "deleted_at": time.Now().UTC()})
}

// Constraints godoc
// @Summary Show the active constraint configuration
// @Tags Uploads
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /constraints [get]
func (h *Handler) Constraints(c *gin.Context) {
	rules := make([]gin.H, 0, len(h.cfg.Constraints))
	for _, e := range h.cfg.Constraints {
		if e.Constraint != nil {
			rules = append(rules, gin.H{"alias": e.Constraint.Kind(), "expression": describe(e.Constraint)})
			continue
		}
		rules = append(rules, gin.H{"alias": e.Alias, "expression": e.Expression})
	}
	response.Success(c, http.StatusOK, gin.H{
		"upload_dir":     filepath.ToSlash(h.cfg.UploadDir),
		"allowed_fields": h.cfg.AllowedFields,
		"max_file_size":  bytesize.Format(h.cfg.MaxFileSize),
		"aliases":        h.registry.Aliases(),
		"rules":          rules,
	})
}

func describe(c constraint.Constraint) string {
	if s, ok := c.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// userID returns the authenticated user, or 0 when auth is disabled.
func userID(c *gin.Context) int64 {
	id, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	switch v := id.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

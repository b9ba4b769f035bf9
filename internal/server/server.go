// Package server wires configuration, storage, the journal and the upload
// handlers into a gin engine.
package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"fileupload/internal/config"
	"fileupload/internal/database"
	"fileupload/internal/domain/constraint"
	"fileupload/internal/domain/upload"
	"fileupload/internal/middleware"
	"fileupload/internal/pkg/jwt"
	"fileupload/internal/storage"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Disk   *storage.Disk
	Logger *log.Logger
}

// NewRouter migrates the journal, prepares the upload directories and builds
// the engine. Constraint rules are checked here so a bad rule stops startup.
func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config

	if err := database.Migrate(d.DB, &upload.Upload{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if cfg.CreateDirs {
		for _, dir := range []string{cfg.UploadDir, cfg.TmpDir} {
			if err := d.Disk.MkdirAll(dir); err != nil {
				return nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
	}

	registry := constraint.NewRegistry()
	constraint.RegisterExtended(registry)

	entries := make([]upload.ConstraintEntry, 0, len(cfg.Constraints))
	for _, rule := range cfg.Constraints {
		c, err := registry.Build(rule.Alias, rule.Expr)
		if err == nil {
			err = constraint.ApplyMessages(c, rule.Messages)
		}
		if err != nil {
			return nil, fmt.Errorf("constraint %s %q: %w", rule.Alias, rule.Expr, err)
		}
		entries = append(entries, upload.Rule(rule.Alias, rule.Expr).WithMessages(rule.Messages))
	}

	handler := upload.NewHandler(d.Disk, upload.NewRepository(d.DB), registry, upload.HandlerConfig{
		UploadDir:     cfg.UploadDir,
		TmpDir:        cfg.TmpDir,
		AllowedFields: cfg.AllowedFields,
		Constraints:   entries,
		MaxFileSize:   cfg.MaxFileSize,
	}, d.Logger)

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxMultipartMemory
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORS(cfg.CORSOrigins...))

	r.GET("/health", health(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	if cfg.AuthEnabled() {
		v1.Use(middleware.JWTAuth(jwt.New(cfg.JWTSecret, cfg.JWTTTL)))
	} else {
		d.Logger.Warn("JWT_SECRET not set, upload API is unauthenticated")
	}
	upload.RegisterRoutes(v1, handler)

	return r, nil
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

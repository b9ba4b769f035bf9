package upload

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the upload endpoints on r. Authentication, when
// enabled, is applied to r by the caller.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	uploads := r.Group("/uploads")
	{
		uploads.POST("", h.Upload)
		uploads.GET("", h.List)
		uploads.GET("/:id", h.GetByID)
		uploads.DELETE("/:id", h.Delete)
	}
	r.GET("/constraints", h.Constraints)
}
